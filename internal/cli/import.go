package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/stickercache/internal/convert"
	"github.com/and161185/stickercache/internal/model"
	"github.com/and161185/stickercache/internal/service"
)

func newImportCmd(load func() (*app, error)) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.json>",
		Short: "Import sticker sets, stickers and reactions from JSON",
		Long: `Import reads a JSON bundle with "sticker_sets", "stickers" and "reactions"
and stores every entity as a cache record. Sets are stored with all of their
stickers. Loose stickers are stored before the reaction list that refers to them.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			b, err := readBundle(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			a, err := load()
			if err != nil {
				return err
			}
			svc, closeFn, err := a.openService(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			sum, err := importBundle(cmd.Context(), svc, b)
			if err != nil {
				return err
			}
			a.log.Info("import finished",
				zap.Int("sets", sum.sets),
				zap.Int("stickers", sum.stickers),
				zap.Int("reactions", sum.reactions),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d sets, %d stickers, %d reactions\n", sum.sets, sum.stickers, sum.reactions)
			return nil
		},
	}
}

func readBundle(r io.Reader) (convert.Bundle, error) {
	var b convert.Bundle
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&b); err != nil {
		return convert.Bundle{}, err
	}
	return b, nil
}

type importSummary struct {
	sets, stickers, reactions int
}

func importBundle(ctx context.Context, svc service.CacheService, b convert.Bundle) (importSummary, error) {
	var sum importSummary
	for i, v := range b.StickerSets {
		set, stickers, err := convert.FromStickerSetView(v)
		if err != nil {
			return sum, fmt.Errorf("sticker_sets[%d]: %w", i, err)
		}
		if _, err := svc.ImportStickerSet(ctx, set, stickers); err != nil {
			return sum, fmt.Errorf("sticker_sets[%d]: %w", i, err)
		}
		sum.sets++
	}

	loose := make([]*model.Sticker, 0, len(b.Stickers))
	for i, v := range b.Stickers {
		s, err := convert.FromStickerView(v)
		if err != nil {
			return sum, fmt.Errorf("stickers[%d]: %w", i, err)
		}
		loose = append(loose, s)
	}
	if len(loose) > 0 {
		if err := svc.ImportStickers(ctx, loose); err != nil {
			return sum, fmt.Errorf("stickers: %w", err)
		}
		sum.stickers = len(loose)
	}

	if b.Reactions != nil {
		list := convert.FromReactionListView(*b.Reactions)
		if _, err := svc.SaveReactions(ctx, list); err != nil {
			return sum, fmt.Errorf("reactions: %w", err)
		}
		sum.reactions = len(list.Reactions)
	}
	return sum, nil
}
