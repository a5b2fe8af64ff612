// Package convert maps registry entities to the JSON views used by the CLI
// for inspection and import.
package convert

import (
	"fmt"

	model "github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/registry"
)

// --- views ---

// PhotoSizeView is a thumbnail descriptor.
type PhotoSizeView struct {
	Type   string `json:"type"`
	Width  uint16 `json:"width"`
	Height uint16 `json:"height"`
	Size   int32  `json:"size"`
	FileID int64  `json:"file_id"`
}

// MaskView is the placement of a mask sticker.
type MaskView struct {
	Point  string  `json:"point"`
	XShift float64 `json:"x_shift"`
	YShift float64 `json:"y_shift"`
	Scale  float64 `json:"scale"`
}

// StickerView is a sticker with the emojis it is listed under in its set.
type StickerView struct {
	FileID        int64          `json:"file_id"`
	SetID         int64          `json:"set_id,omitempty"`
	Alt           string         `json:"alt,omitempty"`
	Width         uint16         `json:"width"`
	Height        uint16         `json:"height"`
	Format        string         `json:"format"`
	SmallThumb    *PhotoSizeView `json:"small_thumb,omitempty"`
	MediumThumb   *PhotoSizeView `json:"medium_thumb,omitempty"`
	Minithumbnail []byte         `json:"minithumbnail,omitempty"`
	Mask          *MaskView      `json:"mask,omitempty"`
	Emojis        []string       `json:"emojis,omitempty"`
}

// StickerSetView is a sticker set with its member stickers inlined.
type StickerSetView struct {
	ID            int64          `json:"id"`
	AccessHash    int64          `json:"access_hash"`
	Title         string         `json:"title"`
	ShortName     string         `json:"short_name"`
	Format        string         `json:"format"`
	StickerCount  int32          `json:"sticker_count"`
	Hash          int32          `json:"hash"`
	ExpiresAt     int32          `json:"expires_at,omitempty"`
	IsInited      bool           `json:"is_inited"`
	WasLoaded     bool           `json:"was_loaded"`
	IsLoaded      bool           `json:"is_loaded"`
	IsInstalled   bool           `json:"is_installed"`
	IsArchived    bool           `json:"is_archived"`
	IsOfficial    bool           `json:"is_official"`
	IsMasks       bool           `json:"is_masks"`
	IsViewed      bool           `json:"is_viewed"`
	Thumbnail     *PhotoSizeView `json:"thumbnail,omitempty"`
	Minithumbnail []byte         `json:"minithumbnail,omitempty"`
	Stickers      []StickerView  `json:"stickers"`

	// EmojiStickers is filled on output only.
	EmojiStickers map[string][]int64 `json:"emoji_stickers,omitempty"`
}

// ReactionView is a reaction with its animation file identities.
type ReactionView struct {
	Reaction          string `json:"reaction"`
	Title             string `json:"title"`
	IsActive          bool   `json:"is_active"`
	IsPremium         bool   `json:"is_premium"`
	StaticIcon        int64  `json:"static_icon"`
	AppearAnimation   int64  `json:"appear_animation"`
	SelectAnimation   int64  `json:"select_animation"`
	ActivateAnimation int64  `json:"activate_animation"`
	EffectAnimation   int64  `json:"effect_animation"`
	AroundAnimation   int64  `json:"around_animation,omitempty"`
	CenterAnimation   int64  `json:"center_animation,omitempty"`
}

// ReactionListView is the reaction list.
type ReactionListView struct {
	Hash      int32          `json:"hash"`
	Reactions []ReactionView `json:"reactions"`
}

// Bundle is the import file layout.
type Bundle struct {
	StickerSets []StickerSetView  `json:"sticker_sets,omitempty"`
	Stickers    []StickerView     `json:"stickers,omitempty"`
	Reactions   *ReactionListView `json:"reactions,omitempty"`
}

// --- enums ---

var (
	formatNames = map[model.StickerFormat]string{
		model.FormatWebp: "webp",
		model.FormatTgs:  "tgs",
		model.FormatWebm: "webm",
	}
	maskPointNames = []string{"forehead", "eyes", "mouth", "chin"}
)

// ParseFormat maps a format name to a StickerFormat. An empty name is webp.
func ParseFormat(s string) (model.StickerFormat, error) {
	if s == "" {
		return model.FormatWebp, nil
	}
	for f, name := range formatNames {
		if name == s {
			return f, nil
		}
	}
	return model.FormatUnknown, fmt.Errorf("unknown sticker format %q", s)
}

func formatName(f model.StickerFormat) string {
	if name, ok := formatNames[f]; ok {
		return name
	}
	return f.String()
}

// ParseMaskPoint maps a face part name to a MaskPoint.
func ParseMaskPoint(s string) (model.MaskPoint, error) {
	for i, name := range maskPointNames {
		if name == s {
			return model.MaskPoint(i), nil
		}
	}
	return 0, fmt.Errorf("unknown mask point %q", s)
}

func maskPointName(p model.MaskPoint) string {
	if p >= 0 && int(p) < len(maskPointNames) {
		return maskPointNames[p]
	}
	return fmt.Sprintf("point(%d)", int32(p))
}

// --- PhotoSize ---

// ToPhotoSizeView returns nil for an empty descriptor.
func ToPhotoSizeView(p model.PhotoSize) *PhotoSizeView {
	if p.IsEmpty() {
		return nil
	}
	v := &PhotoSizeView{
		Width:  p.Dimensions.Width,
		Height: p.Dimensions.Height,
		Size:   p.Size,
		FileID: int64(p.FileID),
	}
	if p.Type > 0 && p.Type < 0x80 {
		v.Type = string(rune(p.Type))
	}
	return v
}

// FromPhotoSizeView maps a view back; nil gives an empty descriptor.
func FromPhotoSizeView(v *PhotoSizeView) (model.PhotoSize, error) {
	if v == nil {
		return model.PhotoSize{}, nil
	}
	if len(v.Type) != 1 {
		return model.PhotoSize{}, fmt.Errorf("invalid thumbnail type %q", v.Type)
	}
	return model.PhotoSize{
		Type:       int32(v.Type[0]),
		Dimensions: model.Dimensions{Width: v.Width, Height: v.Height},
		Size:       v.Size,
		FileID:     model.FileID(v.FileID),
	}, nil
}

// --- Sticker ---

// ToStickerView converts a sticker; emojis may be nil.
func ToStickerView(s *model.Sticker, emojis []string) StickerView {
	v := StickerView{
		FileID:        int64(s.FileID),
		SetID:         int64(s.SetID),
		Alt:           s.Alt,
		Width:         s.Dimensions.Width,
		Height:        s.Dimensions.Height,
		Format:        formatName(s.Format),
		SmallThumb:    ToPhotoSizeView(s.SmallThumb),
		MediumThumb:   ToPhotoSizeView(s.MediumThumb),
		Minithumbnail: s.Minithumbnail,
		Emojis:        emojis,
	}
	if s.IsMask {
		v.Mask = &MaskView{
			Point:  maskPointName(s.MaskPoint),
			XShift: s.XShift,
			YShift: s.YShift,
			Scale:  s.Scale,
		}
	}
	return v
}

// FromStickerView converts a view to a sticker.
func FromStickerView(v StickerView) (*model.Sticker, error) {
	format, err := ParseFormat(v.Format)
	if err != nil {
		return nil, err
	}
	small, err := FromPhotoSizeView(v.SmallThumb)
	if err != nil {
		return nil, fmt.Errorf("small thumb: %w", err)
	}
	medium, err := FromPhotoSizeView(v.MediumThumb)
	if err != nil {
		return nil, fmt.Errorf("medium thumb: %w", err)
	}
	s := &model.Sticker{
		FileID:        model.FileID(v.FileID),
		SetID:         model.StickerSetID(v.SetID),
		Alt:           v.Alt,
		Dimensions:    model.Dimensions{Width: v.Width, Height: v.Height},
		SmallThumb:    small,
		MediumThumb:   medium,
		Minithumbnail: v.Minithumbnail,
		Format:        format,
	}
	if v.Mask != nil {
		point, err := ParseMaskPoint(v.Mask.Point)
		if err != nil {
			return nil, err
		}
		s.IsMask = true
		s.MaskPoint = point
		s.XShift = v.Mask.XShift
		s.YShift = v.Mask.YShift
		s.Scale = v.Mask.Scale
	}
	return s, nil
}

// --- StickerSet ---

// ToStickerSetView converts a set, pulling member stickers from reg.
// Members missing from reg are skipped.
func ToStickerSetView(reg *registry.Registry, set *model.StickerSet) StickerSetView {
	v := StickerSetView{
		ID:            int64(set.ID),
		AccessHash:    set.AccessHash,
		Title:         set.Title,
		ShortName:     set.ShortName,
		Format:        formatName(set.Format),
		StickerCount:  set.StickerCount,
		Hash:          set.Hash,
		ExpiresAt:     set.ExpiresAt,
		IsInited:      set.IsInited,
		WasLoaded:     set.WasLoaded,
		IsLoaded:      set.IsLoaded,
		IsInstalled:   set.IsInstalled,
		IsArchived:    set.IsArchived,
		IsOfficial:    set.IsOfficial,
		IsMasks:       set.IsMasks,
		IsViewed:      set.IsViewed,
		Thumbnail:     ToPhotoSizeView(set.Thumbnail),
		Minithumbnail: set.Minithumbnail,
		Stickers:      make([]StickerView, 0, len(set.StickerIDs)),
	}
	for _, id := range set.StickerIDs {
		if s := reg.Sticker(id); s != nil {
			v.Stickers = append(v.Stickers, ToStickerView(s, set.StickerEmojis[id]))
		}
	}
	if len(set.EmojiStickers) > 0 {
		v.EmojiStickers = make(map[string][]int64, len(set.EmojiStickers))
		for emoji, ids := range set.EmojiStickers {
			out := make([]int64, 0, len(ids))
			for _, id := range ids {
				out = append(out, int64(id))
			}
			v.EmojiStickers[emoji] = out
		}
	}
	return v
}

// FromStickerSetView builds a fully loaded set and its member stickers from
// an import view. Every listed sticker becomes a member; a zero sticker
// count defaults to the number of members.
func FromStickerSetView(v StickerSetView) (*model.StickerSet, []*model.Sticker, error) {
	if v.ID == 0 {
		return nil, nil, fmt.Errorf("sticker set: empty id")
	}
	format, err := ParseFormat(v.Format)
	if err != nil {
		return nil, nil, fmt.Errorf("sticker set %d: %w", v.ID, err)
	}
	thumb, err := FromPhotoSizeView(v.Thumbnail)
	if err != nil {
		return nil, nil, fmt.Errorf("sticker set %d: thumbnail: %w", v.ID, err)
	}
	set := &model.StickerSet{
		ID:            model.StickerSetID(v.ID),
		AccessHash:    v.AccessHash,
		IsInited:      true,
		WasLoaded:     true,
		IsLoaded:      true,
		IsInstalled:   v.IsInstalled,
		IsArchived:    v.IsArchived,
		IsOfficial:    v.IsOfficial,
		IsMasks:       v.IsMasks,
		IsViewed:      v.IsViewed,
		Title:         v.Title,
		ShortName:     v.ShortName,
		StickerCount:  v.StickerCount,
		Hash:          v.Hash,
		ExpiresAt:     v.ExpiresAt,
		Thumbnail:     thumb,
		Minithumbnail: v.Minithumbnail,
		Format:        format,
		StickerIDs:    make([]model.FileID, 0, len(v.Stickers)),
		StickerEmojis: make(map[model.FileID][]string, len(v.Stickers)),
	}
	if set.StickerCount == 0 {
		set.StickerCount = int32(len(v.Stickers))
	}
	stickers := make([]*model.Sticker, 0, len(v.Stickers))
	for i, sv := range v.Stickers {
		s, err := FromStickerView(sv)
		if err != nil {
			return nil, nil, fmt.Errorf("sticker set %d: sticker[%d]: %w", v.ID, i, err)
		}
		s.SetID = set.ID
		stickers = append(stickers, s)
		set.StickerIDs = append(set.StickerIDs, s.FileID)
		set.StickerEmojis[s.FileID] = sv.Emojis
	}
	set.EmojiStickers = registry.IndexEmojis(set.StickerIDs, set.StickerEmojis)
	return set, stickers, nil
}

// --- Reactions ---

// ToReactionListView converts the reaction list; nil gives an empty view.
func ToReactionListView(list *model.ReactionList) ReactionListView {
	v := ReactionListView{Reactions: []ReactionView{}}
	if list == nil {
		return v
	}
	v.Hash = list.Hash
	for _, r := range list.Reactions {
		v.Reactions = append(v.Reactions, ReactionView{
			Reaction:          r.Reaction,
			Title:             r.Title,
			IsActive:          r.IsActive,
			IsPremium:         r.IsPremium,
			StaticIcon:        int64(r.StaticIcon),
			AppearAnimation:   int64(r.AppearAnimation),
			SelectAnimation:   int64(r.SelectAnimation),
			ActivateAnimation: int64(r.ActivateAnimation),
			EffectAnimation:   int64(r.EffectAnimation),
			AroundAnimation:   int64(r.AroundAnimation),
			CenterAnimation:   int64(r.CenterAnimation),
		})
	}
	return v
}

// FromReactionListView converts a view to a reaction list.
func FromReactionListView(v ReactionListView) *model.ReactionList {
	list := &model.ReactionList{Hash: v.Hash}
	for _, r := range v.Reactions {
		list.Reactions = append(list.Reactions, model.Reaction{
			Reaction:          r.Reaction,
			Title:             r.Title,
			IsActive:          r.IsActive,
			IsPremium:         r.IsPremium,
			StaticIcon:        model.FileID(r.StaticIcon),
			AppearAnimation:   model.FileID(r.AppearAnimation),
			SelectAnimation:   model.FileID(r.SelectAnimation),
			ActivateAnimation: model.FileID(r.ActivateAnimation),
			EffectAnimation:   model.FileID(r.EffectAnimation),
			AroundAnimation:   model.FileID(r.AroundAnimation),
			CenterAnimation:   model.FileID(r.CenterAnimation),
		})
	}
	return list
}
