package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/minangbatik/batikhub/internal/client/client"
	"github.com/minangbatik/batikhub/internal/common"
	"github.com/minangbatik/batikhub/internal/filex"
)

// maxUploadSize mirrors the server's image bound so oversized files fail
// before they are sent.
const maxUploadSize = 2048 * 1024

// readImage is a test seam for filex.ReadFileLimit.
var readImage = filex.ReadFileLimit

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every batik in the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			list, err := opts.client().ListBatiks(cmd.Context())
			if err != nil {
				return err
			}
			return writeBatiks(opts, cmd.OutOrStdout(), list)
		},
	}
}

func newMineCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:     "mine",
		Aliases: []string{"history"},
		Short:   "List your own uploads",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			list, err := opts.client().ListMine(cmd.Context())
			if err != nil {
				return err
			}
			return writeBatiks(opts, cmd.OutOrStdout(), list)
		},
	}
}

func newShowCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one batik",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			b, err := opts.client().GetBatik(cmd.Context(), id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(w, b)
			}
			_, err = fmt.Fprintf(w, "ID:          %d\nName:        %s\nMinangkabau: %t\nDescription: %s\nOrigin:      %s\nFile:        %s\nURL:         %s\n",
				b.ID, common.StringValue(b.BatikName), b.IsMinangkabauBatik,
				common.StringValue(b.Description), common.StringValue(b.Origin), b.OriginalName, b.URL)
			return err
		},
	}
}

func newUploadCmd(opts *options) *cobra.Command {
	var (
		minangkabau             bool
		name, description, orig string
	)

	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image to the catalog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			data, err := readImage(args[0], maxUploadSize)
			if err != nil {
				return err
			}

			up := client.Upload{
				Filename:           filepath.Base(args[0]),
				Data:               data,
				IsMinangkabauBatik: minangkabau,
			}
			flags := cmd.Flags()
			if flags.Changed("name") {
				up.BatikName = common.StringPtr(name)
			}
			if flags.Changed("description") {
				up.Description = common.StringPtr(description)
			}
			if flags.Changed("origin") {
				up.Origin = common.StringPtr(orig)
			}

			b, err := opts.client().Upload(cmd.Context(), up)
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), b)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Stored #%d %s\n%s\n", b.ID, common.StringValue(b.BatikName), b.URL)
			return err
		},
	}

	cmd.Flags().BoolVar(&minangkabau, "minangkabau", false, "mark the image as a Minangkabau batik")
	cmd.Flags().StringVar(&name, "name", "", "batik name")
	cmd.Flags().StringVar(&description, "description", "", "description")
	cmd.Flags().StringVar(&orig, "origin", "", "origin label")
	return cmd
}

func newDeleteCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete one of your uploads",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.client().DeleteBatik(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted #%d\n", id)
			return err
		},
	}
}

func newClearCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all of your uploads",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			n, err := opts.client().ClearHistory(cmd.Context())
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d entries\n", n)
			return err
		},
	}
}

func writeBatiks(opts *options, w io.Writer, list []client.Batik) error {
	if opts.jsonOutput {
		return writeJSON(w, list)
	}
	for _, b := range list {
		mark := "-"
		if b.IsMinangkabauBatik {
			mark = "M"
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", b.ID, mark, common.StringValue(b.BatikName), b.URL); err != nil {
			return err
		}
	}
	return nil
}
