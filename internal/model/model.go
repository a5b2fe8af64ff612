// Package model defines domain entities used by the codec, registry and services.
package model

import "strconv"

// FileID identifies the binary file behind a sticker or thumbnail. The file
// itself is owned elsewhere; only the identity is cached.
type FileID int64

// IsValid reports whether the identity refers to a file.
func (id FileID) IsValid() bool { return id > 0 }

func (id FileID) String() string { return "file " + strconv.FormatInt(int64(id), 10) }

// StickerSetID identifies a sticker set.
type StickerSetID int64

// IsValid reports whether the identity refers to a set. Zero means unset.
func (id StickerSetID) IsValid() bool { return id != 0 }

func (id StickerSetID) String() string { return "sticker set " + strconv.FormatInt(int64(id), 10) }

// StickerFormat is the encoding of a sticker image.
type StickerFormat int

const (
	FormatUnknown StickerFormat = iota
	FormatWebp                  // still image
	FormatTgs                   // animated vector
	FormatWebm                  // animated video
)

func (f StickerFormat) String() string {
	switch f {
	case FormatWebp:
		return "webp"
	case FormatTgs:
		return "tgs"
	case FormatWebm:
		return "webm"
	default:
		return "unknown"
	}
}

// MaskPoint is the face part a mask sticker is anchored to.
type MaskPoint int32

const (
	MaskPointForehead MaskPoint = iota
	MaskPointEyes
	MaskPointMouth
	MaskPointChin
)

// Dimensions are pixel sizes. Both fit into 16 bits.
type Dimensions struct {
	Width  uint16
	Height uint16
}

// Thumbnail slot types.
const (
	ThumbnailSmall  int32 = 's'
	ThumbnailTiny   int32 = 't'
	ThumbnailMedium int32 = 'm'
)

// PhotoSize describes a thumbnail.
type PhotoSize struct {
	Type       int32 // 's', 't', 'm'; 0 when empty
	Dimensions Dimensions
	Size       int32 // bytes
	FileID     FileID
}

// IsEmpty reports whether the descriptor carries no file.
func (p PhotoSize) IsEmpty() bool { return !p.FileID.IsValid() }

// Sticker is a single sticker image and its metadata.
type Sticker struct {
	FileID        FileID
	SetID         StickerSetID // zero when unknown or legacy
	Alt           string       // emoji alt text
	Dimensions    Dimensions
	SmallThumb    PhotoSize
	MediumThumb   PhotoSize
	Minithumbnail []byte // inline preview, may be empty
	Format        StickerFormat

	IsMask    bool
	MaskPoint MaskPoint
	XShift    float64
	YShift    float64
	Scale     float64
}

// StickerSet is a named collection of stickers.
type StickerSet struct {
	ID         StickerSetID
	AccessHash int64

	IsInited    bool
	WasLoaded   bool // ever fully materialized
	IsLoaded    bool // current data fully materialized
	IsInstalled bool
	IsArchived  bool
	IsOfficial  bool
	IsMasks     bool
	IsViewed    bool

	IsThumbnailReloaded                bool
	AreLegacyStickerThumbnailsReloaded bool

	Title         string
	ShortName     string
	StickerCount  int32 // declared by the origin
	Hash          int32 // consistency hash from the origin
	ExpiresAt     int32 // unix seconds, 0 when absent
	Thumbnail     PhotoSize
	Minithumbnail []byte
	Format        StickerFormat

	StickerIDs []FileID

	// Built only for fully loaded sets.
	EmojiStickers map[string][]FileID // cleaned emoji -> stickers, first-occurrence order
	StickerEmojis map[FileID][]string // sticker -> raw emoji list
}

// IsFull reports whether every member sticker is held.
func (s *StickerSet) IsFull() bool {
	return int(s.StickerCount) <= len(s.StickerIDs)
}

// Reaction is an emoji reaction with its animation stickers.
type Reaction struct {
	Reaction  string
	Title     string
	IsActive  bool
	IsPremium bool

	StaticIcon        FileID
	AppearAnimation   FileID
	SelectAnimation   FileID
	ActivateAnimation FileID
	EffectAnimation   FileID
	AroundAnimation   FileID // optional
	CenterAnimation   FileID // optional
}

// StickerIDs returns the stickers the reaction references, mandatory ones
// first, optional ones only when set.
func (r *Reaction) StickerIDs() []FileID {
	ids := []FileID{r.StaticIcon, r.AppearAnimation, r.SelectAnimation, r.ActivateAnimation, r.EffectAnimation}
	if r.AroundAnimation.IsValid() {
		ids = append(ids, r.AroundAnimation)
	}
	if r.CenterAnimation.IsValid() {
		ids = append(ids, r.CenterAnimation)
	}
	return ids
}

// ReactionList is the ordered set of available reactions.
type ReactionList struct {
	Reactions []Reaction
	Hash      int32
}
