package codec

import (
	"fmt"

	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/wire"
)

// EncodeReaction writes a reaction. Its stickers belong to no set and are
// written as standalone sticker records.
//
// Layout: flags, reaction, title, static icon, appear, select, activate and
// effect animations, [around animation], [center animation].
func (c *Codec) EncodeReaction(w *wire.Storer, r *model.Reaction) error {
	hasAround := r.AroundAnimation.IsValid()
	hasCenter := r.CenterAnimation.IsValid()

	var f wire.Flags
	f.Set(reactionIsActive, r.IsActive)
	f.Set(reactionHasAroundAnimation, hasAround)
	f.Set(reactionHasCenterAnimation, hasCenter)
	f.Set(reactionIsPremium, r.IsPremium)
	w.Flags(f)

	w.String(r.Reaction)
	w.String(r.Title)
	for _, id := range r.StickerIDs() {
		if err := c.EncodeSticker(w, id, false); err != nil {
			return fmt.Errorf("reaction %q: %w", r.Reaction, err)
		}
	}
	return nil
}

// DecodeReaction reads a reaction and registers its stickers.
func (c *Codec) DecodeReaction(p *wire.Parser, rep *model.Report) (model.Reaction, error) {
	var r model.Reaction
	f := p.Flags()
	r.IsActive = f.Has(reactionIsActive)
	r.IsPremium = f.Has(reactionIsPremium)
	r.Reaction = p.String()
	r.Title = p.String()
	if p.Err() != nil {
		return model.Reaction{}, p.Err()
	}

	slots := []*model.FileID{
		&r.StaticIcon,
		&r.AppearAnimation,
		&r.SelectAnimation,
		&r.ActivateAnimation,
		&r.EffectAnimation,
	}
	if f.Has(reactionHasAroundAnimation) {
		slots = append(slots, &r.AroundAnimation)
	}
	if f.Has(reactionHasCenterAnimation) {
		slots = append(slots, &r.CenterAnimation)
	}
	for _, slot := range slots {
		id, err := c.DecodeSticker(p, false, rep)
		if err != nil {
			return model.Reaction{}, fmt.Errorf("reaction %q: %w", r.Reaction, err)
		}
		*slot = id
	}
	reportUnknownFlags(rep, recordName("reaction "+r.Reaction), f, reactionFlagCount)
	return r, nil
}

// EncodeReactionList writes the list. An absent or empty list is a single
// cleared flag prefix with no body.
func (c *Codec) EncodeReactionList(w *wire.Storer, list *model.ReactionList) error {
	hasReactions := list != nil && len(list.Reactions) > 0

	var f wire.Flags
	f.Set(reactionsHasReactions, hasReactions)
	w.Flags(f)
	if !hasReactions {
		return nil
	}
	w.Int32(int32(len(list.Reactions)))
	for i := range list.Reactions {
		if err := c.EncodeReaction(w, &list.Reactions[i]); err != nil {
			return fmt.Errorf("reaction[%d]: %w", i, err)
		}
	}
	w.Int32(list.Hash)
	return nil
}

// DecodeReactionList reads a reaction list. An absent list decodes as an
// empty one with a zero hash.
func (c *Codec) DecodeReactionList(p *wire.Parser, rep *model.Report) (*model.ReactionList, error) {
	f := p.Flags()
	if p.Err() != nil {
		return nil, p.Err()
	}
	list := &model.ReactionList{}
	if !f.Has(reactionsHasReactions) {
		return list, nil
	}
	n := p.Int32()
	if p.Err() != nil {
		return nil, p.Err()
	}
	if n < 0 || int(n) > p.Remaining()/4 {
		return nil, fail(p, fmt.Errorf("%w: %d reactions", wire.ErrTruncated, n))
	}
	list.Reactions = make([]model.Reaction, 0, n)
	for i := 0; i < int(n); i++ {
		r, err := c.DecodeReaction(p, rep)
		if err != nil {
			return nil, fmt.Errorf("reaction[%d]: %w", i, err)
		}
		list.Reactions = append(list.Reactions, r)
	}
	list.Hash = p.Int32()
	if p.Err() != nil {
		return nil, p.Err()
	}
	reportUnknownFlags(rep, recordName("reactions"), f, reactionsFlagCount)
	return list, nil
}
