package convert

import (
	"encoding/json"
	"testing"

	model "github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/registry"
	"github.com/stretchr/testify/require"
)

const bundleJSON = `{
  "sticker_sets": [{
    "id": 42,
    "access_hash": 77,
    "title": "Cats",
    "short_name": "cats_pack",
    "format": "tgs",
    "is_installed": true,
    "thumbnail": {"type": "s", "width": 100, "height": 100, "size": 512, "file_id": 900},
    "stickers": [
      {"file_id": 1, "alt": "🐱", "width": 512, "height": 512, "format": "tgs", "emojis": ["🐱"]},
      {"file_id": 2, "width": 512, "height": 512, "format": "tgs",
       "mask": {"point": "eyes", "x_shift": -0.5, "y_shift": 0, "scale": 1.25}}
    ]
  }],
  "reactions": {
    "hash": 9,
    "reactions": [{"reaction": "👍", "title": "Like", "is_active": true,
      "static_icon": 1, "appear_animation": 2, "select_animation": 3,
      "activate_animation": 4, "effect_animation": 5, "center_animation": 6}]
  }
}`

func TestFromStickerSetView(t *testing.T) {
	var b Bundle
	require.NoError(t, json.Unmarshal([]byte(bundleJSON), &b))
	require.Len(t, b.StickerSets, 1)

	set, stickers, err := FromStickerSetView(b.StickerSets[0])
	require.NoError(t, err)
	require.Equal(t, model.StickerSetID(42), set.ID)
	require.Equal(t, model.FormatTgs, set.Format)
	require.True(t, set.IsInited)
	require.True(t, set.WasLoaded)
	require.Equal(t, int32(2), set.StickerCount)
	require.Equal(t, []model.FileID{1, 2}, set.StickerIDs)
	require.Equal(t, []string{"🐱"}, set.StickerEmojis[1])
	require.Equal(t, []model.FileID{1}, set.EmojiStickers["🐱"])
	require.Equal(t, model.PhotoSize{
		Type:       model.ThumbnailSmall,
		Dimensions: model.Dimensions{Width: 100, Height: 100},
		Size:       512,
		FileID:     900,
	}, set.Thumbnail)

	require.Len(t, stickers, 2)
	require.Equal(t, model.StickerSetID(42), stickers[0].SetID)
	require.True(t, stickers[1].IsMask)
	require.Equal(t, model.MaskPointEyes, stickers[1].MaskPoint)
	require.Equal(t, 1.25, stickers[1].Scale)
}

func TestFromStickerSetView_Errors(t *testing.T) {
	_, _, err := FromStickerSetView(StickerSetView{})
	require.Error(t, err)

	_, _, err = FromStickerSetView(StickerSetView{ID: 1, Format: "gif"})
	require.Error(t, err)

	_, _, err = FromStickerSetView(StickerSetView{ID: 1, Stickers: []StickerView{
		{FileID: 1, Mask: &MaskView{Point: "nose"}},
	}})
	require.ErrorContains(t, err, "sticker[0]")

	_, _, err = FromStickerSetView(StickerSetView{ID: 1, Thumbnail: &PhotoSizeView{Type: "xx"}})
	require.Error(t, err)
}

func TestToStickerSetView(t *testing.T) {
	reg := registry.New(nil)
	reg.OnGetSticker(&model.Sticker{FileID: 1, SetID: 42, Format: model.FormatWebm, IsMask: true, MaskPoint: model.MaskPointChin}, true, nil)
	set := &model.StickerSet{
		ID:            42,
		Title:         "Cats",
		Format:        model.FormatWebm,
		StickerIDs:    []model.FileID{1, 2},
		StickerEmojis: map[model.FileID][]string{1: {"🐱"}},
		EmojiStickers: map[string][]model.FileID{"🐱": {1}},
	}

	v := ToStickerSetView(reg, set)
	require.Equal(t, "webm", v.Format)
	require.Len(t, v.Stickers, 1)
	require.Equal(t, []string{"🐱"}, v.Stickers[0].Emojis)
	require.Equal(t, "chin", v.Stickers[0].Mask.Point)
	require.Nil(t, v.Thumbnail)
	require.Equal(t, map[string][]int64{"🐱": {1}}, v.EmojiStickers)
}

func TestReactionListView_RoundTrip(t *testing.T) {
	var b Bundle
	require.NoError(t, json.Unmarshal([]byte(bundleJSON), &b))

	list := FromReactionListView(*b.Reactions)
	require.Equal(t, int32(9), list.Hash)
	require.Len(t, list.Reactions, 1)
	require.Equal(t, model.FileID(6), list.Reactions[0].CenterAnimation)
	require.False(t, list.Reactions[0].AroundAnimation.IsValid())

	require.Equal(t, *b.Reactions, ToReactionListView(list))
	require.Empty(t, ToReactionListView(nil).Reactions)
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, model.FormatWebp, f)

	f, err = ParseFormat("webm")
	require.NoError(t, err)
	require.Equal(t, model.FormatWebm, f)

	_, err = ParseFormat("WEBM")
	require.Error(t, err)
}
