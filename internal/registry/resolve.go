package registry

import (
	"bytes"

	"github.com/and161185/stickercache/internal/model"
)

// ResolveOrCreateSet returns the set with the given identity, creating an
// uninitialized stub that carries accessHash when it is absent. A differing
// credential on a known set is reported and the registry's value is kept:
// credentials may rotate upstream. It returns nil for an invalid identity.
func (r *Registry) ResolveOrCreateSet(id model.StickerSetID, accessHash int64, rep *model.Report) *model.StickerSet {
	if !id.IsValid() {
		return nil
	}
	if set, ok := r.sets[id]; ok {
		if set.AccessHash != accessHash {
			rep.Add(model.SeverityWarning, id, "access hash has changed from %d to %d", accessHash, set.AccessHash)
		}
		return set
	}
	set := &model.StickerSet{ID: id, AccessHash: accessHash}
	r.sets[id] = set
	return set
}

// AttachStickerToSet points the sticker's owning-set reference at setID.
// Moving a sticker away from another valid set is reported.
func (r *Registry) AttachStickerToSet(fileID model.FileID, setID model.StickerSetID, rep *model.Report) {
	s := r.stickers[fileID]
	if s == nil || s.SetID == setID {
		return
	}
	if s.SetID.IsValid() {
		rep.Add(model.SeverityError, fileID, "set has changed from %d to %d", s.SetID, setID)
	}
	s.SetID = setID
}

// OnGetSticker stores s or merges it into the known sticker with the same
// file identity and returns that identity.
//
// With replace the incoming record wins for every non-empty field. Without
// it the incoming record is treated as older than what is held and only
// fills fields that are still empty; cached records are always decoded this
// way.
func (r *Registry) OnGetSticker(s *model.Sticker, replace bool, rep *model.Report) model.FileID {
	cur, ok := r.stickers[s.FileID]
	if !ok {
		r.stickers[s.FileID] = s
		return s.FileID
	}
	if s.SetID.IsValid() {
		r.AttachStickerToSet(s.FileID, s.SetID, rep)
	}

	take := func(empty bool) bool { return replace || empty }

	if s.Alt != "" && cur.Alt != s.Alt && take(cur.Alt == "") {
		cur.Alt = s.Alt
	}
	if s.Dimensions.Width != 0 && cur.Dimensions != s.Dimensions && take(cur.Dimensions.Width == 0) {
		cur.Dimensions = s.Dimensions
	}
	if !s.SmallThumb.IsEmpty() && cur.SmallThumb != s.SmallThumb && take(cur.SmallThumb.IsEmpty()) {
		cur.SmallThumb = s.SmallThumb
	}
	if !s.MediumThumb.IsEmpty() && cur.MediumThumb != s.MediumThumb && take(cur.MediumThumb.IsEmpty()) {
		cur.MediumThumb = s.MediumThumb
	}
	if len(s.Minithumbnail) > 0 && !bytes.Equal(cur.Minithumbnail, s.Minithumbnail) && take(len(cur.Minithumbnail) == 0) {
		cur.Minithumbnail = s.Minithumbnail
	}
	if s.Format != model.FormatUnknown && cur.Format != s.Format && take(cur.Format == model.FormatUnknown) {
		if cur.Format != model.FormatUnknown {
			rep.Add(model.SeverityWarning, s.FileID, "format has changed from %s to %s", cur.Format, s.Format)
		}
		cur.Format = s.Format
	}
	if s.IsMask && take(!cur.IsMask) {
		cur.IsMask = true
		cur.MaskPoint = s.MaskPoint
		cur.XShift = s.XShift
		cur.YShift = s.YShift
		cur.Scale = s.Scale
	}
	return cur.FileID
}
