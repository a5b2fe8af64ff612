package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/stickercache/internal/codec"
	"github.com/and161185/stickercache/internal/errs"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/registry"
	"github.com/and161185/stickercache/internal/repository"
)

// Record keys.
const (
	stickerSetKeyPrefix = "ss"
	stickerKeyPrefix    = "st"
	ReactionsKey        = "reactions"
)

// StickerSetKey is the record key of a sticker set.
func StickerSetKey(id model.StickerSetID) string {
	return stickerSetKeyPrefix + strconv.FormatInt(int64(id), 10)
}

// StickerKey is the record key of a sticker kept outside of any set.
func StickerKey(id model.FileID) string {
	return stickerKeyPrefix + strconv.FormatInt(int64(id), 10)
}

// CacheService persists registry entities as encoded records and loads them back.
type CacheService interface {
	// SaveStickerSet encodes a set, in full or as a preview, and stores it.
	SaveStickerSet(ctx context.Context, id model.StickerSetID, withStickers bool) (int64, error)
	// LoadStickerSet reads a stored set into the registry.
	LoadStickerSet(ctx context.Context, id model.StickerSetID) (*model.StickerSet, error)
	// SaveSticker stores a sticker that does not belong to a set record.
	SaveSticker(ctx context.Context, id model.FileID) (int64, error)
	// LoadSticker reads a stored sticker into the registry.
	LoadSticker(ctx context.Context, id model.FileID) (*model.Sticker, error)
	// SaveReactions stores the reaction list.
	SaveReactions(ctx context.Context, list *model.ReactionList) (int64, error)
	// LoadReactions reads the stored reaction list.
	LoadReactions(ctx context.Context) (*model.ReactionList, error)
	// StoredStickerSets lists the identities of stored sets.
	StoredStickerSets(ctx context.Context) ([]model.StickerSetID, error)
	// ImportStickerSet feeds a set and its stickers into the registry as
	// fresh data and stores it fully.
	ImportStickerSet(ctx context.Context, set *model.StickerSet, stickers []*model.Sticker) (int64, error)
	// ImportStickers feeds loose stickers into the registry and stores each one.
	ImportStickers(ctx context.Context, stickers []*model.Sticker) error
}

type CacheServiceImpl struct {
	mu      sync.Mutex
	repo    repository.RecordRepository
	codec   *codec.Codec
	account uuid.UUID
	log     *zap.Logger
}

var _ CacheService = (*CacheServiceImpl)(nil)

// NewCacheService constructs a CacheService over a fresh registry. hook may be nil.
func NewCacheService(
	repo repository.RecordRepository, account uuid.UUID, log *zap.Logger, hook registry.MembershipHook,
) *CacheServiceImpl {
	if log == nil {
		log = zap.NewNop()
	}
	return &CacheServiceImpl{
		repo:    repo,
		codec:   codec.New(registry.New(hook)),
		account: account,
		log:     log,
	}
}

// Registry returns the registry the service encodes from and decodes into.
// It must not be used concurrently with the service; use Update for that.
func (s *CacheServiceImpl) Registry() *registry.Registry { return s.codec.Registry() }

// Update runs fn with exclusive access to the registry.
func (s *CacheServiceImpl) Update(fn func(reg *registry.Registry)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.codec.Registry())
}

// SaveStickerSet encodes the set and stores it under its key.
func (s *CacheServiceImpl) SaveStickerSet(ctx context.Context, id model.StickerSetID, withStickers bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveStickerSet(ctx, id, withStickers)
}

func (s *CacheServiceImpl) saveStickerSet(ctx context.Context, id model.StickerSetID, withStickers bool) (int64, error) {
	if !id.IsValid() {
		return 0, fmt.Errorf("validation: %v", id)
	}
	blob, err := s.codec.MarshalStickerSet(id, withStickers)
	if err != nil {
		return 0, err
	}
	return s.put(ctx, StickerSetKey(id), blob)
}

// LoadStickerSet reads a stored set. A record that fails to decode is
// dropped from storage and the set, if known, is marked as not loaded so
// that it gets fetched again.
func (s *CacheServiceImpl) LoadStickerSet(ctx context.Context, id model.StickerSetID) (*model.StickerSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := StickerSetKey(id)
	rec, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	set, rep, err := s.codec.UnmarshalStickerSet(rec.Blob)
	s.logReport(key, rep)
	if err == nil && set.ID != id {
		err = fmt.Errorf("%s holds %v: %w", key, set.ID, errs.ErrCorruptRecord)
	}
	if err != nil {
		if known := s.codec.Registry().Set(id); known != nil {
			known.IsLoaded = false
		}
		s.discard(ctx, key, err)
		return nil, err
	}
	return set, nil
}

// SaveSticker encodes a loose sticker and stores it under its key.
func (s *CacheServiceImpl) SaveSticker(ctx context.Context, id model.FileID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !id.IsValid() {
		return 0, fmt.Errorf("validation: %v", id)
	}
	blob, err := s.codec.MarshalSticker(id)
	if err != nil {
		return 0, err
	}
	return s.put(ctx, StickerKey(id), blob)
}

// LoadSticker reads a stored loose sticker.
func (s *CacheServiceImpl) LoadSticker(ctx context.Context, id model.FileID) (*model.Sticker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := StickerKey(id)
	rec, err := s.get(ctx, key)
	if err != nil {
		return nil, err
	}
	got, rep, err := s.codec.UnmarshalSticker(rec.Blob)
	s.logReport(key, rep)
	if err == nil && got != id {
		err = fmt.Errorf("%s holds %v: %w", key, got, errs.ErrCorruptRecord)
	}
	if err != nil {
		s.discard(ctx, key, err)
		return nil, err
	}
	return s.codec.Registry().Sticker(id), nil
}

// SaveReactions encodes the reaction list and stores it.
func (s *CacheServiceImpl) SaveReactions(ctx context.Context, list *model.ReactionList) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	blob, err := s.codec.MarshalReactionList(list)
	if err != nil {
		return 0, err
	}
	return s.put(ctx, ReactionsKey, blob)
}

// LoadReactions reads the stored reaction list.
func (s *CacheServiceImpl) LoadReactions(ctx context.Context) (*model.ReactionList, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.get(ctx, ReactionsKey)
	if err != nil {
		return nil, err
	}
	list, rep, err := s.codec.UnmarshalReactionList(rec.Blob)
	s.logReport(ReactionsKey, rep)
	if err != nil {
		s.discard(ctx, ReactionsKey, err)
		return nil, err
	}
	return list, nil
}

// StoredStickerSets lists stored set identities. Keys that do not parse are skipped.
func (s *CacheServiceImpl) StoredStickerSets(ctx context.Context) ([]model.StickerSetID, error) {
	keys, err := s.repo.ListKeys(ctx, s.account, stickerSetKeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]model.StickerSetID, 0, len(keys))
	for _, k := range keys {
		v, err := strconv.ParseInt(k[len(stickerSetKeyPrefix):], 10, 64)
		if err != nil || v == 0 {
			s.log.Warn("unexpected cache key", zap.String("key", k))
			continue
		}
		out = append(out, model.StickerSetID(v))
	}
	return out, nil
}

// ImportStickerSet merges stickers and set into the registry, replacing what
// is held, and stores the set with all of its members. A set missing some of
// its members is held as not loaded; a loaded one gets its emoji index
// rebuilt from StickerEmojis.
func (s *CacheServiceImpl) ImportStickerSet(
	ctx context.Context, set *model.StickerSet, stickers []*model.Sticker,
) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if set == nil || !set.ID.IsValid() {
		return 0, errors.New("validation: empty sticker set")
	}
	reg := s.codec.Registry()
	rep := &model.Report{}
	for i, st := range stickers {
		if st == nil || !st.FileID.IsValid() {
			return 0, fmt.Errorf("validation: sticker[%d]: %w", i, errs.ErrInvalidSticker)
		}
		st.SetID = set.ID
		reg.OnGetSticker(st, true, rep)
	}
	if !set.IsFull() {
		set.WasLoaded, set.IsLoaded = false, false
	}
	if set.WasLoaded {
		if set.StickerEmojis == nil {
			set.StickerEmojis = make(map[model.FileID][]string)
		}
		set.EmojiStickers = registry.IndexEmojis(set.StickerIDs, set.StickerEmojis)
	} else {
		set.StickerEmojis, set.EmojiStickers = nil, nil
	}

	prev := reg.Set(set.ID)
	isNew := prev == nil || !prev.IsInited
	reg.AddStickerSet(set)
	reg.UpdateSetMembership(set, set.IsInstalled, set.IsArchived, isNew)
	s.logReport(StickerSetKey(set.ID), rep)
	return s.saveStickerSet(ctx, set.ID, true)
}

// ImportStickers merges loose stickers into the registry, replacing what is
// held, and stores them one by one.
func (s *CacheServiceImpl) ImportStickers(ctx context.Context, stickers []*model.Sticker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reg := s.codec.Registry()
	rep := &model.Report{}
	for i, st := range stickers {
		if st == nil || !st.FileID.IsValid() {
			return fmt.Errorf("validation: sticker[%d]: %w", i, errs.ErrInvalidSticker)
		}
		reg.OnGetSticker(st, true, rep)
	}
	s.logReport("stickers", rep)
	for _, st := range stickers {
		blob, err := s.codec.MarshalSticker(st.FileID)
		if err != nil {
			return err
		}
		if _, err := s.put(ctx, StickerKey(st.FileID), blob); err != nil {
			return err
		}
	}
	return nil
}

func (s *CacheServiceImpl) put(ctx context.Context, key string, blob []byte) (int64, error) {
	ver, err := s.repo.Put(ctx, s.account, key, blob)
	if err != nil {
		return 0, fmt.Errorf("store %s: %w", key, err)
	}
	s.log.Debug("record stored", zap.String("key", key), zap.Int("bytes", len(blob)), zap.Int64("ver", ver))
	return ver, nil
}

func (s *CacheServiceImpl) get(ctx context.Context, key string) (*model.Record, error) {
	rec, err := s.repo.Get(ctx, s.account, key)
	if errors.Is(err, errs.ErrCorruptRecord) {
		s.discard(ctx, key, err)
	}
	return rec, err
}

// discard drops a record that cannot be trusted any more.
func (s *CacheServiceImpl) discard(ctx context.Context, key string, cause error) {
	s.log.Warn("dropping cache record", zap.String("key", key), zap.Error(cause))
	if err := s.repo.Delete(ctx, s.account, key); err != nil && !errors.Is(err, errs.ErrNotFound) {
		s.log.Error("delete cache record", zap.String("key", key), zap.Error(err))
	}
}

func (s *CacheServiceImpl) logReport(key string, rep *model.Report) {
	if rep == nil {
		return
	}
	for _, a := range rep.Anomalies {
		fields := []zap.Field{
			zap.String("key", key),
			zap.String("entity", a.Entity),
		}
		switch a.Severity {
		case model.SeverityError:
			s.log.Error(a.Message, fields...)
		case model.SeverityWarning:
			s.log.Warn(a.Message, fields...)
		default:
			s.log.Info(a.Message, fields...)
		}
	}
}
