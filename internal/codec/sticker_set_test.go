package codec

import (
	"testing"

	"github.com/and161185/stickercache/internal/errs"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/registry"
	"github.com/and161185/stickercache/internal/wire"
	"github.com/stretchr/testify/require"
)

// legacySetFixture is an inited, installed and viewed preview of set 1001
// with no stored members, written before minithumbnails and webm existed.
func legacySetFixture(t *testing.T) []byte {
	return mustHex(t,
		"89000000",
		"e903000000000000", // id 1001
		"4d00000000000000", // access hash 77
		"0443617473000000", // "Cats"
		"0463617473000000", // "cats"
		"03000000",         // sticker count
		"34120000",         // hash
		"00000000",         // stored members
	)
}

func TestStickerSet_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		n     int
		setup func(set *model.StickerSet)
	}{
		{name: "empty", n: 0},
		{name: "single", n: 1},
		{name: "installed", n: 4},
		{name: "expiring", n: 3, setup: func(set *model.StickerSet) {
			set.IsInstalled = false
			set.ExpiresAt = 1_700_000_000
			set.Format = model.FormatTgs
			set.IsViewed = true
		}},
		{name: "thumbnails", n: 2, setup: func(set *model.StickerSet) {
			set.IsArchived = true
			set.IsOfficial = true
			set.IsMasks = true
			set.Format = model.FormatWebm
			set.Thumbnail = model.PhotoSize{Type: model.ThumbnailSmall, Dimensions: model.Dimensions{Width: 100, Height: 100}, Size: 2048, FileID: 4242}
			set.Minithumbnail = []byte("mini")
			set.IsThumbnailReloaded = true
			set.AreLegacyStickerThumbnailsReloaded = true
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newCodec(t)
			set := putSet(src, 1, tt.n, 100)
			if tt.setup != nil {
				tt.setup(set)
			}
			data, err := src.MarshalStickerSet(1, true)
			require.NoError(t, err)

			dst := newCodec(t)
			got, rep, err := dst.UnmarshalStickerSet(data)
			require.NoError(t, err)
			require.Equal(t, 0, rep.Len(), rep.Anomalies)

			require.Equal(t, set.Title, got.Title)
			require.Equal(t, set.ShortName, got.ShortName)
			require.Equal(t, set.ExpiresAt, got.ExpiresAt)
			require.Equal(t, set.Format, got.Format)
			require.Equal(t, set.IsInstalled, got.IsInstalled)
			require.Equal(t, set.IsArchived, got.IsArchived)
			require.Equal(t, set.Thumbnail, got.Thumbnail)
			require.Equal(t, len(set.StickerIDs), len(got.StickerIDs))
			require.True(t, got.WasLoaded)
			require.True(t, got.IsLoaded)
			for _, id := range got.StickerIDs {
				require.Equal(t, model.StickerSetID(1), dst.reg.Sticker(id).SetID)
			}

			again, err := dst.MarshalStickerSet(1, true)
			require.NoError(t, err)
			require.Equal(t, data, again)
		})
	}
}

func TestStickerSet_PreviewTruncation(t *testing.T) {
	src := newCodec(t)
	putSet(src, 1, 7, 100)

	data, err := src.MarshalStickerSet(1, false)
	require.NoError(t, err)

	f := wire.NewParser(data).Flags()
	require.True(t, f.Has(setIsInited))
	require.False(t, f.Has(setWasLoaded))
	require.False(t, f.Has(setIsLoaded))

	dst := newCodec(t)
	got, _, err := dst.UnmarshalStickerSet(data)
	require.NoError(t, err)
	require.Equal(t, []model.FileID{100, 101, 102, 103, 104}, got.StickerIDs)
	require.Equal(t, int32(7), got.StickerCount)
	require.False(t, got.WasLoaded)
	require.False(t, got.IsLoaded)
	require.Nil(t, got.EmojiStickers)
	require.False(t, got.IsFull())
}

func TestStickerSet_PreviewAtLimitKeepsLoaded(t *testing.T) {
	src := newCodec(t)
	putSet(src, 1, PreviewLimit, 100)

	data, err := src.MarshalStickerSet(1, false)
	require.NoError(t, err)
	f := wire.NewParser(data).Flags()
	require.True(t, f.Has(setWasLoaded))
	require.True(t, f.Has(setIsLoaded))
}

func TestStickerSet_PreviewDoesNotDowngradeFullSet(t *testing.T) {
	src := newCodec(t)
	putSet(src, 1, 7, 100)
	full, err := src.MarshalStickerSet(1, true)
	require.NoError(t, err)
	preview, err := src.MarshalStickerSet(1, false)
	require.NoError(t, err)

	dst := newCodec(t)
	_, _, err = dst.UnmarshalStickerSet(full)
	require.NoError(t, err)
	got, _, err := dst.UnmarshalStickerSet(preview)
	require.NoError(t, err)

	require.Len(t, got.StickerIDs, 7)
	require.True(t, got.WasLoaded)
	require.True(t, got.IsLoaded)
	require.NotEmpty(t, got.EmojiStickers)
}

func TestStickerSet_EmojiMap(t *testing.T) {
	src := newCodec(t)
	set := putSet(src, 1, 2, 1)
	set.StickerEmojis = map[model.FileID][]string{
		1: {"😀", "😀", "😀\U0001F3FB"},
		2: {"😀"},
	}

	data, err := src.MarshalStickerSet(1, true)
	require.NoError(t, err)

	dst := newCodec(t)
	got, _, err := dst.UnmarshalStickerSet(data)
	require.NoError(t, err)
	require.Equal(t, map[string][]model.FileID{"😀": {1, 2}}, got.EmojiStickers)
	require.Equal(t, []string{"😀", "😀", "😀\U0001F3FB"}, got.StickerEmojis[1])
}

func TestStickerSet_ExpiryMonotonic(t *testing.T) {
	src := newCodec(t)
	set := putSet(src, 1, 2, 100)
	set.IsInstalled = false

	dst := newCodec(t)
	decodeAt := func(expiresAt int32) *model.StickerSet {
		set.ExpiresAt = expiresAt
		data, err := src.MarshalStickerSet(1, true)
		require.NoError(t, err)
		got, rep, err := dst.UnmarshalStickerSet(data)
		require.NoError(t, err)
		require.Equal(t, 0, rep.Len(), rep.Anomalies)
		return got
	}

	require.Equal(t, int32(1000), decodeAt(1000).ExpiresAt)
	require.Equal(t, int32(1000), decodeAt(500).ExpiresAt)
	require.Equal(t, int32(2000), decodeAt(2000).ExpiresAt)
}

func TestStickerSet_InvalidStickerFailsSet(t *testing.T) {
	src := newCodec(t)
	putSet(src, 1, 3, 100)
	src.reg.Sticker(101).FileID = 0

	data, err := src.MarshalStickerSet(1, true)
	require.NoError(t, err)

	dst := newCodec(t)
	got, _, err := dst.UnmarshalStickerSet(data)
	require.ErrorIs(t, err, errs.ErrInvalidSticker)
	require.Nil(t, got)

	set := dst.reg.Set(1)
	if set != nil {
		require.False(t, set.IsInited)
		require.False(t, set.WasLoaded)
		require.False(t, set.IsLoaded)
		require.Empty(t, set.StickerIDs)
	}
}

func TestStickerSet_FailedRedecodeKeepsEntry(t *testing.T) {
	src := newCodec(t)
	set := putSet(src, 1, 3, 100)
	good, err := src.MarshalStickerSet(1, true)
	require.NoError(t, err)

	set.Title = "Dogs"
	set.ExpiresAt = 9999
	src.reg.Sticker(102).FileID = 0
	bad, err := src.MarshalStickerSet(1, true)
	require.NoError(t, err)

	dst := newCodec(t)
	_, _, err = dst.UnmarshalStickerSet(good)
	require.NoError(t, err)
	_, _, err = dst.UnmarshalStickerSet(bad)
	require.ErrorIs(t, err, errs.ErrInvalidSticker)

	kept := dst.reg.Set(1)
	require.Equal(t, "Cats", kept.Title)
	require.Equal(t, int32(0), kept.ExpiresAt)
	require.True(t, kept.WasLoaded)
	require.True(t, kept.IsLoaded)
	require.Equal(t, []model.FileID{100, 101, 102}, kept.StickerIDs)

	other := newCodec(t)
	putSticker(other, model.Sticker{FileID: 100, SetID: 9})
	_, rep, err := other.UnmarshalStickerSet(bad)
	require.ErrorIs(t, err, errs.ErrInvalidSticker)
	require.Equal(t, model.StickerSetID(9), other.reg.Sticker(100).SetID)
	require.Equal(t, 0, rep.Count(model.SeverityError), rep.Anomalies)
}

func TestStickerSet_Scenario(t *testing.T) {
	tests := []struct {
		name      string
		isMasks   bool
		wasLoaded bool
	}{
		{name: "masks with emojis", isMasks: true, wasLoaded: true},
		{name: "plain preview", isMasks: false, wasLoaded: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newCodec(t)
			putSticker(src, model.Sticker{
				FileID:     10,
				SetID:      1001,
				Alt:        "🐱",
				Dimensions: model.Dimensions{Width: 512, Height: 512},
				IsMask:     true,
				MaskPoint:  model.MaskPointMouth,
				XShift:     0.1,
				YShift:     -0.2,
				Scale:      2,
			})
			putSticker(src, model.Sticker{FileID: 11, SetID: 1001, Alt: "😺"})
			src.reg.AddStickerSet(&model.StickerSet{
				ID:           1001,
				AccessHash:   77,
				IsInited:     true,
				WasLoaded:    tt.wasLoaded,
				IsLoaded:     tt.wasLoaded,
				IsMasks:      tt.isMasks,
				Title:        "Cats",
				ShortName:    "cats_pack",
				StickerCount: 2,
				StickerIDs:   []model.FileID{10, 11},
				StickerEmojis: map[model.FileID][]string{
					10: {"🐱"},
					11: {"😺"},
				},
			})
			data, err := src.MarshalStickerSet(1001, true)
			require.NoError(t, err)

			hook := &recordingHook{}
			dst := New(registry.New(hook))
			// a stale owner left over from an older cache
			dst.reg.OnGetSticker(&model.Sticker{FileID: 11, SetID: 5}, true, nil)

			got, rep, err := dst.UnmarshalStickerSet(data)
			require.NoError(t, err)
			require.Equal(t, 1, rep.Count(model.SeverityError), rep.Anomalies)

			require.Same(t, got, dst.reg.Set(1001))
			require.Same(t, got, dst.reg.LookupSetByShortName("Cats_Pack"))
			require.Equal(t, int64(77), got.AccessHash)
			require.Equal(t, "Cats", got.Title)
			require.Equal(t, tt.isMasks, got.IsMasks)
			require.Equal(t, model.StickerSetID(1001), dst.reg.Sticker(10).SetID)
			require.Equal(t, model.StickerSetID(1001), dst.reg.Sticker(11).SetID)
			require.True(t, dst.reg.Sticker(10).IsMask)
			require.Equal(t, model.MaskPointMouth, dst.reg.Sticker(10).MaskPoint)
			require.False(t, dst.reg.Sticker(11).IsMask)

			if tt.wasLoaded {
				require.Equal(t, map[string][]model.FileID{"🐱": {10}, "😺": {11}}, got.EmojiStickers)
			} else {
				require.Nil(t, got.EmojiStickers)
			}
			require.Equal(t, []hookCall{{id: 1001, isNew: true}}, hook.calls)
		})
	}
}

func TestStickerSet_DriftOnRedecode(t *testing.T) {
	src := newCodec(t)
	set := putSet(src, 1, 2, 100)
	first, err := src.MarshalStickerSet(1, true)
	require.NoError(t, err)

	set.Title = "Dogs"
	set.ShortName = "dogs_pack"
	set.Format = model.FormatTgs
	set.IsMasks = true
	set.Hash++
	second, err := src.MarshalStickerSet(1, true)
	require.NoError(t, err)

	hook := &recordingHook{}
	dst := New(registry.New(hook))
	_, _, err = dst.UnmarshalStickerSet(first)
	require.NoError(t, err)
	got, rep, err := dst.UnmarshalStickerSet(second)
	require.NoError(t, err)

	require.Equal(t, 1, rep.Count(model.SeverityInfo), rep.Anomalies)
	require.Equal(t, 3, rep.Count(model.SeverityError), rep.Anomalies)
	require.Equal(t, "Cats", got.Title)
	require.Equal(t, "cats_pack", got.ShortName)
	require.Equal(t, model.FormatWebp, got.Format)
	require.False(t, got.IsMasks)
	require.True(t, got.WasLoaded)
	require.False(t, got.IsLoaded)
	require.Nil(t, dst.reg.LookupSetByShortName("dogs_pack"))
	require.Len(t, hook.calls, 1)
}

func TestStickerSet_AccessHashDrift(t *testing.T) {
	src := newCodec(t)
	putSet(src, 1, 1, 100)
	data, err := src.MarshalStickerSet(1, true)
	require.NoError(t, err)

	dst := newCodec(t)
	dst.reg.ResolveOrCreateSet(1, 12345, nil)
	got, rep, err := dst.UnmarshalStickerSet(data)
	require.NoError(t, err)
	require.Equal(t, 1, rep.Count(model.SeverityWarning))
	require.Equal(t, int64(12345), got.AccessHash)
}

func TestStickerSet_LegacyFixture(t *testing.T) {
	data := legacySetFixture(t)

	hook := &recordingHook{}
	c := New(registry.New(hook))
	got, rep, err := c.UnmarshalStickerSet(data)
	require.NoError(t, err)
	require.Equal(t, 0, rep.Len())

	require.Equal(t, model.StickerSetID(1001), got.ID)
	require.Equal(t, int64(77), got.AccessHash)
	require.True(t, got.IsInited)
	require.True(t, got.IsInstalled)
	require.True(t, got.IsViewed)
	require.False(t, got.WasLoaded)
	require.Equal(t, "Cats", got.Title)
	require.Equal(t, "cats", got.ShortName)
	require.Equal(t, int32(3), got.StickerCount)
	require.Equal(t, int32(0x1234), got.Hash)
	require.Equal(t, model.FormatWebp, got.Format)
	require.Empty(t, got.StickerIDs)
	require.Equal(t, []hookCall{{id: 1001, isInstalled: true, isNew: true}}, hook.calls)

	again, err := c.MarshalStickerSet(1001, false)
	require.NoError(t, err)
	require.Equal(t, data, again)
}

func TestStickerSet_Rejects(t *testing.T) {
	t.Run("zero blob", func(t *testing.T) {
		_, _, err := newCodec(t).UnmarshalStickerSet(make([]byte, 24))
		require.ErrorIs(t, err, errs.ErrZeroStickerSet)
	})
	t.Run("empty", func(t *testing.T) {
		_, _, err := newCodec(t).UnmarshalStickerSet(nil)
		require.ErrorIs(t, err, wire.ErrTruncated)
	})
	t.Run("trailing data", func(t *testing.T) {
		hook := &recordingHook{}
		c := New(registry.New(hook))
		data := append(legacySetFixture(t), 0, 0, 0, 0)
		_, _, err := c.UnmarshalStickerSet(data)
		require.ErrorIs(t, err, errs.ErrTrailingData)

		stub := c.reg.Set(1001)
		require.False(t, stub.IsInited)
		require.Empty(t, stub.Title)
		require.Nil(t, c.reg.LookupSetByShortName("cats"))
		require.Empty(t, hook.calls)

		got, _, err := c.UnmarshalStickerSet(legacySetFixture(t))
		require.NoError(t, err)
		require.Equal(t, "Cats", got.Title)
		require.Same(t, got, c.reg.LookupSetByShortName("cats"))
		require.Equal(t, []hookCall{{id: 1001, isInstalled: true, isNew: true}}, hook.calls)
	})
	t.Run("huge member count", func(t *testing.T) {
		data := legacySetFixture(t)
		copy(data[len(data)-4:], []byte{0xff, 0xff, 0xff, 0x7f})
		_, _, err := newCodec(t).UnmarshalStickerSet(data)
		require.ErrorIs(t, err, wire.ErrTruncated)
	})
	t.Run("invalid title", func(t *testing.T) {
		data := legacySetFixture(t)
		data[21] = 0xff
		c := newCodec(t)
		_, _, err := c.UnmarshalStickerSet(data)
		require.ErrorIs(t, err, errs.ErrInvalidText)
		require.False(t, c.reg.Set(1001).IsInited)
	})
	t.Run("unknown entity", func(t *testing.T) {
		_, err := newCodec(t).MarshalStickerSet(1, true)
		require.ErrorIs(t, err, errs.ErrUnknownEntity)
	})
}

func TestStickerSet_UnknownFlagsReported(t *testing.T) {
	data := legacySetFixture(t)
	data[2] |= 0x10

	got, rep, err := newCodec(t).UnmarshalStickerSet(data)
	require.NoError(t, err)
	require.Equal(t, "Cats", got.Title)
	require.Equal(t, 1, rep.Count(model.SeverityWarning))
}
