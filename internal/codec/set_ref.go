package codec

import (
	"fmt"

	"github.com/and161185/stickercache/internal/errs"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/wire"
)

// EncodeSetReference writes a set identity and its access hash, enough to
// recreate the set as a stub without the full record.
func (c *Codec) EncodeSetReference(w *wire.Storer, id model.StickerSetID) error {
	set := c.reg.Set(id)
	if !id.IsValid() || set == nil {
		return fmt.Errorf("encode reference to %v: %w", id, errs.ErrUnknownEntity)
	}
	w.Int64(int64(id))
	w.Int64(set.AccessHash)
	return nil
}

// DecodeSetReference reads a set reference, creating a stub entry when the
// set is unknown.
func (c *Codec) DecodeSetReference(p *wire.Parser, rep *model.Report) (model.StickerSetID, error) {
	id := model.StickerSetID(p.Int64())
	accessHash := p.Int64()
	if p.Err() != nil {
		return 0, p.Err()
	}
	if c.reg.ResolveOrCreateSet(id, accessHash, rep) == nil {
		return 0, fail(p, fmt.Errorf("reference to %v: %w", id, errs.ErrZeroStickerSet))
	}
	return id, nil
}
