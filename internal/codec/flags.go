package codec

import "github.com/and161185/stickercache/internal/wire"

// Flag layouts. The order inside each block is the stored format; append new
// bits before the count constant and never reorder.

// Sticker record.
const (
	stickerIsMask wire.Bit = iota
	stickerHasSetAccessHash
	stickerInSet
	stickerIsTgs
	stickerHasMinithumbnail
	stickerIsWebm
	stickerFlagCount
)

// Sticker set record.
const (
	setIsInited wire.Bit = iota
	setWasLoaded
	setIsLoaded
	setIsInstalled
	setIsArchived
	setIsOfficial
	setIsMasks
	setIsViewed
	setHasExpiresAt
	setHasThumbnail
	setIsThumbnailReloaded
	setIsTgs
	setAreLegacyThumbnailsReloaded
	setHasMinithumbnail
	setIsWebm
	setFlagCount
)

// Reaction record.
const (
	reactionIsActive wire.Bit = iota
	reactionHasAroundAnimation
	reactionHasCenterAnimation
	reactionIsPremium
	reactionFlagCount
)

// Reaction list record.
const (
	reactionsHasReactions wire.Bit = iota
	reactionsFlagCount
)
