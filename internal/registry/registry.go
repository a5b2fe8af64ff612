// Package registry is the canonical in-memory store of stickers and sticker
// sets. Every encoder reads from it and every decoder writes into it.
//
// A Registry is owned by a single task: it performs no locking.
package registry

import (
	"sort"

	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/textutil"
)

// MembershipHook is notified when a set's installed/archived state is
// applied. isNew is true for the first materialization of the set.
type MembershipHook interface {
	OnStickerSetUpdated(set *model.StickerSet, isInstalled, isArchived, isNew bool)
}

// Registry owns stickers by file identity and sets by set identity.
type Registry struct {
	stickers   map[model.FileID]*model.Sticker
	sets       map[model.StickerSetID]*model.StickerSet
	shortNames map[string]model.StickerSetID
	hook       MembershipHook
}

// New creates an empty registry. hook may be nil.
func New(hook MembershipHook) *Registry {
	return &Registry{
		stickers:   make(map[model.FileID]*model.Sticker),
		sets:       make(map[model.StickerSetID]*model.StickerSet),
		shortNames: make(map[string]model.StickerSetID),
		hook:       hook,
	}
}

// Sticker returns the sticker with the given identity or nil.
func (r *Registry) Sticker(id model.FileID) *model.Sticker { return r.stickers[id] }

// Set returns the set with the given identity or nil.
func (r *Registry) Set(id model.StickerSetID) *model.StickerSet { return r.sets[id] }

// LookupSetByShortName finds a set by its cleaned short name.
func (r *Registry) LookupSetByShortName(name string) *model.StickerSet {
	id, ok := r.shortNames[textutil.CleanUsername(name)]
	if !ok {
		return nil
	}
	return r.sets[id]
}

// SetIDs returns all known set identities in ascending order.
func (r *Registry) SetIDs() []model.StickerSetID {
	ids := make([]model.StickerSetID, 0, len(r.sets))
	for id := range r.sets {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// StickerCount returns the number of stickers held.
func (r *Registry) StickerCount() int { return len(r.stickers) }

// RegisterShortName indexes set under its cleaned short name. Empty names are ignored.
func (r *Registry) RegisterShortName(set *model.StickerSet) {
	if name := textutil.CleanUsername(set.ShortName); name != "" {
		r.shortNames[name] = set.ID
	}
}

// UpdateSetMembership applies installed/archived state and fires the hook.
func (r *Registry) UpdateSetMembership(set *model.StickerSet, isInstalled, isArchived, isNew bool) {
	set.IsInstalled = isInstalled
	set.IsArchived = isArchived
	if r.hook != nil {
		r.hook.OnStickerSetUpdated(set, isInstalled, isArchived, isNew)
	}
}

// AddStickerSet stores a set obtained from outside the codec, e.g. the
// network layer. An existing entry with the same identity is replaced and
// its short name re-indexed.
func (r *Registry) AddStickerSet(set *model.StickerSet) {
	r.sets[set.ID] = set
	r.RegisterShortName(set)
}

// IndexEmojis maps every cleaned emoji of the given stickers to the stickers
// carrying it. Stickers keep the order of ids and never repeat back to back
// under one emoji. Emojis that clean to nothing are skipped.
func IndexEmojis(ids []model.FileID, emojis map[model.FileID][]string) map[string][]model.FileID {
	out := make(map[string][]model.FileID)
	for _, id := range ids {
		for _, emoji := range emojis[id] {
			cleaned := textutil.RemoveEmojiModifiers(emoji)
			if cleaned == "" {
				continue
			}
			list := out[cleaned]
			if len(list) == 0 || list[len(list)-1] != id {
				out[cleaned] = append(list, id)
			}
		}
	}
	return out
}
