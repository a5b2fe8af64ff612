package codec

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/registry"
	"github.com/and161185/stickercache/internal/wire"
	"github.com/stretchr/testify/require"
)

type hookCall struct {
	id          model.StickerSetID
	isInstalled bool
	isArchived  bool
	isNew       bool
}

type recordingHook struct {
	calls []hookCall
}

func (h *recordingHook) OnStickerSetUpdated(set *model.StickerSet, isInstalled, isArchived, isNew bool) {
	h.calls = append(h.calls, hookCall{id: set.ID, isInstalled: isInstalled, isArchived: isArchived, isNew: isNew})
}

func newCodec(t *testing.T) *Codec {
	t.Helper()
	return New(registry.New(nil))
}

func putSticker(c *Codec, s model.Sticker) model.FileID {
	return c.reg.OnGetSticker(&s, true, nil)
}

// putSet registers a fully loaded set with n member stickers numbered from
// firstFile. Every third sticker is a mask, every other one carries a
// minithumbnail, and the last one has no emojis.
func putSet(c *Codec, id model.StickerSetID, n int, firstFile model.FileID) *model.StickerSet {
	set := &model.StickerSet{
		ID:            id,
		AccessHash:    77,
		IsInited:      true,
		WasLoaded:     true,
		IsLoaded:      true,
		IsInstalled:   true,
		Title:         "Cats",
		ShortName:     "cats_pack",
		StickerCount:  int32(n),
		Hash:          0x5eed,
		Format:        model.FormatWebp,
		StickerEmojis: make(map[model.FileID][]string),
		EmojiStickers: make(map[string][]model.FileID),
	}
	for i := 0; i < n; i++ {
		fid := firstFile + model.FileID(i)
		s := model.Sticker{
			FileID:     fid,
			SetID:      id,
			Alt:        "😺",
			Dimensions: model.Dimensions{Width: 512, Height: 512},
			Format:     model.FormatWebp,
			SmallThumb: model.PhotoSize{
				Type:       model.ThumbnailSmall,
				Dimensions: model.Dimensions{Width: 128, Height: 128},
				Size:       900,
				FileID:     fid + 1000,
			},
		}
		if i%3 == 1 {
			s.IsMask = true
			s.MaskPoint = model.MaskPointEyes
			s.XShift = -0.5
			s.YShift = 0.25
			s.Scale = 1.5
		}
		if i%2 == 0 {
			s.Minithumbnail = []byte{0xff, 0xd8, byte(i)}
			s.MediumThumb = model.PhotoSize{
				Type:       model.ThumbnailMedium,
				Dimensions: model.Dimensions{Width: 320, Height: 320},
				Size:       4000,
				FileID:     fid + 2000,
			}
		}
		putSticker(c, s)
		set.StickerIDs = append(set.StickerIDs, fid)
		if i != n-1 {
			set.StickerEmojis[fid] = []string{"😺"}
			set.EmojiStickers["😺"] = append(set.EmojiStickers["😺"], fid)
		}
	}
	c.reg.AddStickerSet(set)
	return set
}

func mustHex(t *testing.T, parts ...string) []byte {
	t.Helper()
	b, err := hex.DecodeString(strings.Join(parts, ""))
	require.NoError(t, err)
	return b
}

// writeLooseSticker writes a sticker record by hand, outside of any set.
func writeLooseSticker(w *wire.Storer, f wire.Flags, setID, accessHash int64, fileID int64) {
	w.Flags(f)
	w.Int64(setID)
	if f.Has(stickerHasSetAccessHash) {
		w.Int64(accessHash)
	}
	w.String("")
	w.Uint32(0)
	for i := 0; i < 2; i++ {
		storePhotoSize(w, model.PhotoSize{})
	}
	w.Int64(fileID)
}

func TestFlagLayout_Pinned(t *testing.T) {
	require.Equal(t, wire.Bit(5), stickerIsWebm)
	require.Equal(t, wire.Bit(6), stickerFlagCount)
	require.Equal(t, wire.Bit(8), setHasExpiresAt)
	require.Equal(t, wire.Bit(14), setIsWebm)
	require.Equal(t, wire.Bit(15), setFlagCount)
	require.Equal(t, wire.Bit(3), reactionIsPremium)
	require.Equal(t, wire.Bit(1), reactionsFlagCount)
}
