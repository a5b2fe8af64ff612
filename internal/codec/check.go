package codec

import (
	"fmt"

	"github.com/and161185/stickercache/internal/errs"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/textutil"
	"github.com/and161185/stickercache/internal/wire"
)

// checkText rejects text fields that are not valid UTF-8.
func checkText(entity fmt.Stringer, field, value string) error {
	if !textutil.IsValidUTF8(value) {
		return fmt.Errorf("%v: %s: %w", entity, field, errs.ErrInvalidText)
	}
	return nil
}

// contextMismatch consumes the rest of the input and tells a blank record
// (all zero bytes) apart from a genuinely foreign one.
func contextMismatch(p *wire.Parser) error {
	for _, b := range p.Rest() {
		if b != 0 {
			return errs.ErrStickerContextMismatch
		}
	}
	return errs.ErrZeroStickerSet
}

// reportUnknownFlags notes bits set beyond what this reader knows. They come
// from a newer writer; the known part of the record is still usable.
func reportUnknownFlags(rep *model.Report, entity fmt.Stringer, f wire.Flags, known wire.Bit) {
	if u := f.Unknown(known); u != 0 {
		rep.Add(model.SeverityWarning, entity, "unknown flags %#x", uint32(u))
	}
}

// formatFromFlags applies the fixed priority: webm, then tgs, then webp.
func formatFromFlags(isWebm, isTgs bool) model.StickerFormat {
	switch {
	case isWebm:
		return model.FormatWebm
	case isTgs:
		return model.FormatTgs
	default:
		return model.FormatWebp
	}
}

type recordName string

func (n recordName) String() string { return string(n) }
