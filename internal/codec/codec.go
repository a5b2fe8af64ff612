// Package codec encodes stickers, sticker sets and reactions into the
// compact cache format and decodes them back, reconciling every decoded
// record with the canonical registry.
//
// Each record starts with a flag prefix followed by fields in a fixed order.
// Optional fields take no bytes at all when their flag is clear. Flag
// positions are declared per record type in flags.go and are append-only.
package codec

import (
	"fmt"

	"github.com/and161185/stickercache/internal/errs"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/registry"
	"github.com/and161185/stickercache/internal/wire"
)

// PreviewLimit is the number of member stickers kept when a set is stored
// without its full sticker list.
const PreviewLimit = 5

// Codec binds the record encoders and decoders to one registry.
type Codec struct {
	reg *registry.Registry
}

// New returns a codec reading from and writing into reg.
func New(reg *registry.Registry) *Codec {
	return &Codec{reg: reg}
}

// Registry returns the registry the codec is bound to.
func (c *Codec) Registry() *registry.Registry { return c.reg }

// fail records err on the parser and returns the parser's first error.
func fail(p *wire.Parser, err error) error {
	p.SetError(err)
	return p.Err()
}

// MarshalStickerSet encodes the set with the given identity.
func (c *Codec) MarshalStickerSet(id model.StickerSetID, withStickers bool) ([]byte, error) {
	w := wire.NewStorer(256)
	if err := c.EncodeStickerSet(w, id, withStickers); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// UnmarshalStickerSet decodes a complete set record. The set entry is
// updated only when the whole input was consumed.
func (c *Codec) UnmarshalStickerSet(data []byte) (*model.StickerSet, *model.Report, error) {
	rep := &model.Report{}
	p := wire.NewParser(data)
	set, d, err := c.parseStickerSet(p, rep)
	if err != nil {
		return nil, rep, err
	}
	if err := finish(p); err != nil {
		return nil, rep, fmt.Errorf("%v: %w", set.ID, err)
	}
	c.commitSet(set, d, rep)
	return set, rep, nil
}

// MarshalSticker encodes a sticker kept outside of any set record.
func (c *Codec) MarshalSticker(id model.FileID) ([]byte, error) {
	w := wire.NewStorer(64)
	if err := c.EncodeSticker(w, id, false); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// UnmarshalSticker decodes a sticker kept outside of any set record.
func (c *Codec) UnmarshalSticker(data []byte) (model.FileID, *model.Report, error) {
	rep := &model.Report{}
	p := wire.NewParser(data)
	id, err := c.DecodeSticker(p, false, rep)
	if err != nil {
		return 0, rep, err
	}
	if err := finish(p); err != nil {
		return 0, rep, fmt.Errorf("%v: %w", id, err)
	}
	return id, rep, nil
}

// MarshalReactionList encodes the reaction list. A nil list encodes as absent.
func (c *Codec) MarshalReactionList(list *model.ReactionList) ([]byte, error) {
	w := wire.NewStorer(512)
	if err := c.EncodeReactionList(w, list); err != nil {
		return nil, err
	}
	return w.Bytes(), nil
}

// UnmarshalReactionList decodes a reaction list record.
func (c *Codec) UnmarshalReactionList(data []byte) (*model.ReactionList, *model.Report, error) {
	rep := &model.Report{}
	p := wire.NewParser(data)
	list, err := c.DecodeReactionList(p, rep)
	if err != nil {
		return nil, rep, err
	}
	if err := finish(p); err != nil {
		return nil, rep, fmt.Errorf("reactions: %w", err)
	}
	return list, rep, nil
}

func finish(p *wire.Parser) error {
	if p.Remaining() != 0 {
		return fmt.Errorf("%w: %d bytes", errs.ErrTrailingData, p.Remaining())
	}
	return nil
}
