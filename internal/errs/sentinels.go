// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Storage sentinels.
var (
	// ErrNotFound indicates the requested record or entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCorruptRecord indicates a stored blob whose digest no longer matches.
	ErrCorruptRecord = errors.New("corrupt record")

	// ErrVersionConflict indicates a concurrent writer created the same record first.
	ErrVersionConflict = errors.New("version conflict")
)

// Decode sentinels. Any of these means the byte stream cannot be trusted and
// the partially decoded entity must be discarded.
var (
	// ErrInvalidSticker indicates a sticker record without a valid file identity.
	ErrInvalidSticker = errors.New("invalid sticker")

	// ErrStickerContextMismatch indicates a sticker record whose "stored inside a set"
	// bit disagrees with the decoding context.
	ErrStickerContextMismatch = errors.New("invalid sticker set is stored in the database")

	// ErrZeroStickerSet indicates a context mismatch where the rest of the blob is
	// zero padding, the signature of a legacy or blank record.
	ErrZeroStickerSet = errors.New("zero sticker set is stored in the database")

	// ErrInvalidText indicates a text field that is not valid UTF-8.
	ErrInvalidText = errors.New("invalid text")

	// ErrTrailingData indicates unread bytes after a complete record.
	ErrTrailingData = errors.New("trailing data after record")
)

// Encode sentinels.
var (
	// ErrUnknownEntity indicates an encode request for an entity missing from the registry.
	ErrUnknownEntity = errors.New("unknown entity")
)
