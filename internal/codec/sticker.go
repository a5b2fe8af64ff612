package codec

import (
	"fmt"

	"github.com/and161185/stickercache/internal/errs"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/wire"
)

// EncodeSticker writes the sticker record for id.
//
// Layout: flags, [set id, [access hash]] when outside a set, alt,
// dimensions, small thumbnail, medium thumbnail, file id, [mask point,
// x shift, y shift, scale], [minithumbnail].
func (c *Codec) EncodeSticker(w *wire.Storer, id model.FileID, inSet bool) error {
	s := c.reg.Sticker(id)
	if s == nil {
		return fmt.Errorf("encode %v: %w", id, errs.ErrUnknownEntity)
	}
	hasAccessHash := s.SetID.IsValid() && !inSet
	var set *model.StickerSet
	if hasAccessHash {
		if set = c.reg.Set(s.SetID); set == nil {
			return fmt.Errorf("encode %v: %v: %w", id, s.SetID, errs.ErrUnknownEntity)
		}
	}

	var f wire.Flags
	f.Set(stickerIsMask, s.IsMask)
	f.Set(stickerHasSetAccessHash, hasAccessHash)
	f.Set(stickerInSet, inSet)
	f.Set(stickerIsTgs, s.Format == model.FormatTgs)
	f.Set(stickerHasMinithumbnail, len(s.Minithumbnail) > 0)
	f.Set(stickerIsWebm, s.Format == model.FormatWebm)
	w.Flags(f)

	if !inSet {
		w.Int64(int64(s.SetID))
		if hasAccessHash {
			w.Int64(set.AccessHash)
		}
	}
	w.String(s.Alt)
	storeDimensions(w, s.Dimensions)
	storePhotoSize(w, s.SmallThumb)
	storePhotoSize(w, s.MediumThumb)
	w.Int64(int64(s.FileID))
	if s.IsMask {
		w.Int32(int32(s.MaskPoint))
		w.Float64(s.XShift)
		w.Float64(s.YShift)
		w.Float64(s.Scale)
	}
	if len(s.Minithumbnail) > 0 {
		w.Blob(s.Minithumbnail)
	}
	return nil
}

// DecodeSticker reads a sticker record and merges it into the registry.
// inSet must match the context the record was written in; a mismatch fails
// the decode and consumes the rest of the input.
func (c *Codec) DecodeSticker(p *wire.Parser, inSet bool, rep *model.Report) (model.FileID, error) {
	if p.Err() != nil {
		return 0, p.Err()
	}
	f := p.Flags()
	if p.Err() != nil {
		return 0, p.Err()
	}
	if f.Has(stickerInSet) != inSet {
		return 0, fail(p, contextMismatch(p))
	}

	s := &model.Sticker{
		IsMask: f.Has(stickerIsMask),
		Format: formatFromFlags(f.Has(stickerIsWebm), f.Has(stickerIsTgs)),
	}
	if !inSet {
		s.SetID = model.StickerSetID(p.Int64())
		if f.Has(stickerHasSetAccessHash) {
			accessHash := p.Int64()
			if p.Err() == nil {
				c.reg.ResolveOrCreateSet(s.SetID, accessHash, rep)
			}
		} else {
			// written before access hashes were kept; the set cannot be trusted
			s.SetID = 0
		}
	}
	s.Alt = p.String()
	s.Dimensions = parseDimensions(p)
	for i := 0; i < 2; i++ {
		placeThumbnail(s, parsePhotoSize(p), rep)
	}
	s.FileID = model.FileID(p.Int64())
	if s.IsMask {
		s.MaskPoint = model.MaskPoint(p.Int32())
		s.XShift = p.Float64()
		s.YShift = p.Float64()
		s.Scale = p.Float64()
	}
	if f.Has(stickerHasMinithumbnail) {
		s.Minithumbnail = p.Blob()
	}
	if p.Err() != nil {
		return 0, p.Err()
	}
	if !s.FileID.IsValid() {
		return 0, fail(p, fmt.Errorf("%v: %w", s.FileID, errs.ErrInvalidSticker))
	}
	reportUnknownFlags(rep, s.FileID, f, stickerFlagCount)
	return c.reg.OnGetSticker(s, false, rep), nil
}

// placeThumbnail puts a decoded thumbnail into the slot its type names.
func placeThumbnail(s *model.Sticker, t model.PhotoSize, rep *model.Report) {
	if t.IsEmpty() {
		return
	}
	switch t.Type {
	case model.ThumbnailMedium:
		s.MediumThumb = t
	case model.ThumbnailSmall, model.ThumbnailTiny:
		s.SmallThumb = t
	default:
		rep.Add(model.SeverityWarning, recordName("sticker thumbnail"), "unsupported type %d", t.Type)
	}
}

func storeDimensions(w *wire.Storer, d model.Dimensions) {
	w.Uint32(uint32(d.Width)<<16 | uint32(d.Height))
}

func parseDimensions(p *wire.Parser) model.Dimensions {
	v := p.Uint32()
	return model.Dimensions{Width: uint16(v >> 16), Height: uint16(v)}
}

func storePhotoSize(w *wire.Storer, ps model.PhotoSize) {
	w.Int32(ps.Type)
	storeDimensions(w, ps.Dimensions)
	w.Int32(ps.Size)
	w.Int64(int64(ps.FileID))
}

func parsePhotoSize(p *wire.Parser) model.PhotoSize {
	var ps model.PhotoSize
	ps.Type = p.Int32()
	ps.Dimensions = parseDimensions(p)
	ps.Size = p.Int32()
	ps.FileID = model.FileID(p.Int64())
	return ps
}
