package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/minangbatik/batikhub/internal/client/client"
	"github.com/minangbatik/batikhub/internal/client/config"
	"github.com/minangbatik/batikhub/internal/common"
)

type options struct {
	configFile string
	server     string
	token      string
	jsonOutput bool

	timeout time.Duration
	in      *bufio.Reader
}

func (o *options) client() *client.Client {
	c := client.New(o.server, o.token)
	c.SetTimeout(o.timeout)
	return c
}

// resolve layers the config file and environment under any flags the user
// passed explicitly.
func (o *options) resolve(cmd *cobra.Command) error {
	cfg, err := config.Load(o.configFile, os.Getenv)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if !flags.Changed("server") {
		o.server = cfg.ServerURL
	}
	if !flags.Changed("token") {
		o.token = cfg.Token
	}
	o.timeout = cfg.RequestTimeout
	o.in = bufio.NewReader(cmd.InOrStdin())
	return nil
}

// NewRootCmd builds the batikctl command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "batikctl",
		Short:         "batikctl talks to a batikhub server",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return opts.resolve(cmd)
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&opts.configFile, "config", "", "path to a JSON config file")
	pf.StringVar(&opts.server, "server", "", "batikhub base URL (defaults to $"+config.ServerEnvName+")")
	pf.StringVar(&opts.token, "token", "", "bearer token (defaults to $"+common.TokenEnvName+")")
	pf.BoolVar(&opts.jsonOutput, "json", false, "output JSON")

	cmd.AddCommand(
		newRegisterCmd(opts),
		newLoginCmd(opts),
		newLogoutCmd(opts),
		newWhoamiCmd(opts),
		newListCmd(opts),
		newMineCmd(opts),
		newShowCmd(opts),
		newUploadCmd(opts),
		newDeleteCmd(opts),
		newClearCmd(opts),
		newCommentCmd(opts),
		newCommentsCmd(opts),
		newUncommentCmd(opts),
	)
	return cmd
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

func parseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

func requireToken(opts *options) error {
	if opts.token == "" {
		return fmt.Errorf("not logged in: pass --token or set %s", common.TokenEnvName)
	}
	return nil
}

// prompt returns value when set and otherwise asks for it on the input.
func prompt(opts *options, w io.Writer, value, label string) (string, error) {
	if strings.TrimSpace(value) != "" {
		return value, nil
	}
	return GetSimpleText(opts.in, label, w)
}
