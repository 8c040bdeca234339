package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

func newCommentCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <batik-id> <text>...",
		Short: "Comment on a batik",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.client().AddComment(cmd.Context(), id, strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), c)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Comment #%d added\n", c.ID)
			return err
		},
	}
}

func newCommentsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "comments <batik-id>",
		Short: "List the comments of a batik",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			list, err := opts.client().Comments(cmd.Context(), id)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			if opts.jsonOutput {
				return writeJSON(w, list)
			}
			for _, c := range list {
				author := ""
				if c.User != nil {
					author = c.User.Name
				}
				if _, err := fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, author, c.Content); err != nil {
					return err
				}
			}
			return nil
		},
	}
}

func newUncommentCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "uncomment <comment-id>",
		Short: "Delete one of your comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if err := opts.client().DeleteComment(cmd.Context(), id); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment #%d\n", id)
			return err
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
