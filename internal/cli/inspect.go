package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/and161185/stickercache/internal/convert"
	"github.com/and161185/stickercache/internal/model"
)

func newInspectCmd(load func() (*app, error)) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Decode stored records and print them as JSON",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set <id>",
			Short: "Decode a stored sticker set",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := parseSetID(args[0])
				if err != nil {
					return err
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

				set, err := svc.LoadStickerSet(cmd.Context(), id)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), convert.ToStickerSetView(svc.Registry(), set))
			},
		},
		&cobra.Command{
			Use:   "sets",
			Short: "List stored sticker sets",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := load()
				if err != nil {
					return err
				}
				svc, closeFn, err := a.openService(cmd.Context())
				if err != nil {
					return err
				}
				defer closeFn()

				ids, err := svc.StoredStickerSets(cmd.Context())
				if err != nil {
					return err
				}
				for _, id := range ids {
					fmt.Fprintln(cmd.OutOrStdout(), int64(id))
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "reactions",
			Short: "Decode the stored reaction list",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				a, err := load()
				if err != nil {
					return err
				}
				svc, closeFn, err := a.openService(cmd.Context())
				if err != nil {
					return err
				}
				defer closeFn()

				list, err := svc.LoadReactions(cmd.Context())
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), convert.ToReactionListView(list))
			},
		},
	)
	return cmd
}

func parseSetID(s string) (model.StickerSetID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid sticker set id %q", s)
	}
	return model.StickerSetID(v), nil
}
