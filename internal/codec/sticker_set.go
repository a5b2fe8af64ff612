package codec

import (
	"fmt"

	"github.com/and161185/stickercache/internal/errs"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/registry"
	"github.com/and161185/stickercache/internal/textutil"
	"github.com/and161185/stickercache/internal/wire"
)

// EncodeStickerSet writes the set record for id. Without withStickers only
// the first PreviewLimit members are written and the set is flagged as not
// loaded, whatever its in-memory state.
//
// Layout: flags, id, access hash, then for inited sets: title, short name,
// sticker count, hash, [expires at], [thumbnail], [minithumbnail], stored
// count and that many in-set sticker records, each followed by its emoji
// list when the set is stored fully loaded.
func (c *Codec) EncodeStickerSet(w *wire.Storer, id model.StickerSetID, withStickers bool) error {
	set := c.reg.Set(id)
	if set == nil {
		return fmt.Errorf("encode %v: %w", id, errs.ErrUnknownEntity)
	}

	limit := len(set.StickerIDs)
	if !withStickers {
		limit = PreviewLimit
	}
	isFull := len(set.StickerIDs) <= limit
	wasLoaded := set.WasLoaded && isFull
	isLoaded := set.IsLoaded && isFull
	hasExpiresAt := !set.IsInstalled && set.ExpiresAt != 0
	hasThumbnail := set.Thumbnail.FileID.IsValid()
	hasMinithumbnail := len(set.Minithumbnail) > 0

	var f wire.Flags
	f.Set(setIsInited, set.IsInited)
	f.Set(setWasLoaded, wasLoaded)
	f.Set(setIsLoaded, isLoaded)
	f.Set(setIsInstalled, set.IsInstalled)
	f.Set(setIsArchived, set.IsArchived)
	f.Set(setIsOfficial, set.IsOfficial)
	f.Set(setIsMasks, set.IsMasks)
	f.Set(setIsViewed, set.IsViewed)
	f.Set(setHasExpiresAt, hasExpiresAt)
	f.Set(setHasThumbnail, hasThumbnail)
	f.Set(setIsThumbnailReloaded, set.IsThumbnailReloaded)
	f.Set(setIsTgs, set.Format == model.FormatTgs)
	f.Set(setAreLegacyThumbnailsReloaded, set.AreLegacyStickerThumbnailsReloaded)
	f.Set(setHasMinithumbnail, hasMinithumbnail)
	f.Set(setIsWebm, set.Format == model.FormatWebm)
	w.Flags(f)

	w.Int64(int64(set.ID))
	w.Int64(set.AccessHash)
	if !set.IsInited {
		return nil
	}
	w.String(set.Title)
	w.String(set.ShortName)
	w.Int32(set.StickerCount)
	w.Int32(set.Hash)
	if hasExpiresAt {
		w.Int32(set.ExpiresAt)
	}
	if hasThumbnail {
		storePhotoSize(w, set.Thumbnail)
	}
	if hasMinithumbnail {
		w.Blob(set.Minithumbnail)
	}

	stored := min(len(set.StickerIDs), limit)
	w.Uint32(uint32(stored))
	for i, stickerID := range set.StickerIDs[:stored] {
		if err := c.EncodeSticker(w, stickerID, true); err != nil {
			return fmt.Errorf("%v: sticker[%d]: %w", id, i, err)
		}
		if wasLoaded {
			// a missing entry is written as an empty list, never omitted
			w.Strings(set.StickerEmojis[stickerID])
		}
	}
	return nil
}

// decodedSet holds the fields of a set record before they are reconciled
// with the registry.
type decodedSet struct {
	flags         wire.Flags
	title         string
	shortName     string
	stickerCount  int32
	hash          int32
	expiresAt     int32
	thumbnail     model.PhotoSize
	minithumbnail []byte
	format        model.StickerFormat

	stickerIDs    []model.FileID
	stickerEmojis map[model.FileID][]string
}

// DecodeStickerSet reads a set record and reconciles it with the registry.
//
// A set seen for the first time adopts every decoded field. A known set is
// merged conservatively: drift in title, short name, format or the masks
// flag is reported but not applied, a changed sticker count or hash clears
// IsLoaded, and ExpiresAt only grows. On a hard failure the registry entry
// and the back-references of its members keep their previous values.
func (c *Codec) DecodeStickerSet(p *wire.Parser, rep *model.Report) (*model.StickerSet, error) {
	set, d, err := c.parseStickerSet(p, rep)
	if err != nil {
		return nil, err
	}
	c.commitSet(set, d, rep)
	return set, nil
}

// parseStickerSet reads a set record without applying it. Only the stub
// entry for the set identity and the member stickers themselves reach the
// registry.
func (c *Codec) parseStickerSet(p *wire.Parser, rep *model.Report) (*model.StickerSet, *decodedSet, error) {
	if p.Err() != nil {
		return nil, nil, p.Err()
	}
	d := &decodedSet{flags: p.Flags()}
	id := model.StickerSetID(p.Int64())
	accessHash := p.Int64()
	if p.Err() != nil {
		return nil, nil, p.Err()
	}
	if !id.IsValid() {
		return nil, nil, fail(p, fmt.Errorf("%v: %w", id, errs.ErrZeroStickerSet))
	}
	set := c.reg.ResolveOrCreateSet(id, accessHash, rep)
	reportUnknownFlags(rep, id, d.flags, setFlagCount)
	d.format = formatFromFlags(d.flags.Has(setIsWebm), d.flags.Has(setIsTgs))

	if d.flags.Has(setIsInited) {
		if err := c.decodeSetBody(p, set, d, rep); err != nil {
			return nil, nil, err
		}
	}
	return set, d, nil
}

func (c *Codec) decodeSetBody(p *wire.Parser, set *model.StickerSet, d *decodedSet, rep *model.Report) error {
	d.title = p.String()
	d.shortName = p.String()
	d.stickerCount = p.Int32()
	d.hash = p.Int32()
	if d.flags.Has(setHasExpiresAt) {
		d.expiresAt = p.Int32()
	}
	if d.flags.Has(setHasThumbnail) {
		d.thumbnail = parsePhotoSize(p)
	}
	if d.flags.Has(setHasMinithumbnail) {
		d.minithumbnail = p.Blob()
	}
	stored := p.Uint32()
	if p.Err() != nil {
		return p.Err()
	}
	// each sticker record takes well over four bytes
	if int64(stored) > int64(p.Remaining()/4) {
		return fail(p, fmt.Errorf("%v: %w: %d stored stickers", set.ID, wire.ErrTruncated, stored))
	}

	withEmojis := d.flags.Has(setWasLoaded)
	d.stickerIDs = make([]model.FileID, 0, stored)
	if withEmojis {
		d.stickerEmojis = make(map[model.FileID][]string, stored)
	}
	for i := 0; i < int(stored); i++ {
		stickerID, err := c.DecodeSticker(p, true, rep)
		if err != nil {
			return fmt.Errorf("%v: sticker[%d]: %w", set.ID, i, err)
		}
		d.stickerIDs = append(d.stickerIDs, stickerID)

		if withEmojis {
			emojis := p.Strings()
			if p.Err() != nil {
				return fmt.Errorf("%v: sticker[%d] emojis: %w", set.ID, i, p.Err())
			}
			for _, emoji := range emojis {
				if textutil.RemoveEmojiModifiers(emoji) == "" {
					rep.Add(model.SeverityInfo, stickerID, "empty emoji")
				}
			}
			d.stickerEmojis[stickerID] = emojis
		}
	}

	if err := checkText(set.ID, "title", d.title); err != nil {
		return fail(p, err)
	}
	if err := checkText(set.ID, "short name", d.shortName); err != nil {
		return fail(p, err)
	}
	return nil
}

// commitSet applies a fully decoded record to the registry entry.
func (c *Codec) commitSet(set *model.StickerSet, d *decodedSet, rep *model.Report) {
	f := d.flags
	wasInited := set.IsInited
	wasLoaded := f.Has(setWasLoaded)
	isLoaded := f.Has(setIsLoaded)

	// a preview never replaces a set that is already held in full
	keepMembers := set.WasLoaded && !wasLoaded
	stale := false

	for _, stickerID := range d.stickerIDs {
		c.reg.AttachStickerToSet(stickerID, set.ID, rep)
	}

	set.IsViewed = set.IsViewed || f.Has(setIsViewed)
	set.IsThumbnailReloaded = set.IsThumbnailReloaded || f.Has(setIsThumbnailReloaded)
	set.AreLegacyStickerThumbnailsReloaded = set.AreLegacyStickerThumbnailsReloaded || f.Has(setAreLegacyThumbnailsReloaded)

	if !f.Has(setIsInited) {
		if !keepMembers && !wasInited {
			set.WasLoaded, set.IsLoaded = wasLoaded, isLoaded
		}
		return
	}

	if !wasInited {
		set.IsInited = true
		set.Title = d.title
		set.ShortName = d.shortName
		set.Minithumbnail = d.minithumbnail
		set.Thumbnail = d.thumbnail
		set.StickerCount = d.stickerCount
		set.Hash = d.hash
		set.ExpiresAt = d.expiresAt
		set.IsOfficial = f.Has(setIsOfficial)
		set.IsMasks = f.Has(setIsMasks)
		set.Format = d.format
		c.reg.RegisterShortName(set)
		c.reg.UpdateSetMembership(set, f.Has(setIsInstalled), f.Has(setIsArchived), true)
	} else {
		if set.Title != d.title {
			rep.Add(model.SeverityInfo, set.ID, "title has changed")
		}
		if set.ShortName != d.shortName {
			rep.Add(model.SeverityError, set.ID, "short name has changed from %q to %q", d.shortName, set.ShortName)
		}
		if set.StickerCount != d.stickerCount || set.Hash != d.hash {
			stale = true
			isLoaded = false
		}
		if set.Format != d.format {
			rep.Add(model.SeverityError, set.ID, "sticker format has changed from %s to %s", d.format, set.Format)
		}
		if set.IsMasks != f.Has(setIsMasks) {
			rep.Add(model.SeverityError, set.ID, "is masks has changed from %t to %t", f.Has(setIsMasks), set.IsMasks)
		}
	}
	if d.expiresAt > set.ExpiresAt {
		set.ExpiresAt = d.expiresAt
	}

	if keepMembers {
		if stale {
			set.IsLoaded = false
		}
		return
	}
	set.WasLoaded = wasLoaded
	set.IsLoaded = isLoaded
	set.StickerIDs = d.stickerIDs
	set.StickerEmojis = d.stickerEmojis
	set.EmojiStickers = nil
	if d.stickerEmojis != nil {
		set.EmojiStickers = registry.IndexEmojis(d.stickerIDs, d.stickerEmojis)
	}
}
