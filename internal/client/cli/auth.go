package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/minangbatik/batikhub/internal/client/client"
	"github.com/minangbatik/batikhub/internal/common"
)

func newRegisterCmd(opts *options) *cobra.Command {
	var name, email string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			var err error
			if name, err = prompt(opts, w, name, "Name"); err != nil {
				return err
			}
			if email, err = prompt(opts, w, email, "Email"); err != nil {
				return err
			}
			password, err := GetPassword(w, "Password")
			if err != nil {
				return err
			}
			confirm, err := GetPassword(w, "Confirm password")
			if err != nil {
				return err
			}

			resp, err := opts.client().Register(cmd.Context(), client.RegisterRequest{
				Name:                 name,
				Email:                email,
				Password:             password,
				PasswordConfirmation: confirm,
			})
			if err != nil {
				return err
			}
			return writeAuth(opts, w, resp)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLoginCmd(opts *options) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and print a bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			var err error
			if email, err = prompt(opts, w, email, "Email"); err != nil {
				return err
			}
			password, err := GetPassword(w, "Password")
			if err != nil {
				return err
			}

			resp, err := opts.client().Login(cmd.Context(), client.LoginRequest{Email: email, Password: password})
			if err != nil {
				return err
			}
			return writeAuth(opts, w, resp)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	return cmd
}

func newLogoutCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the current token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			if err := opts.client().Logout(cmd.Context()); err != nil {
				return err
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return err
		},
	}
}

func newWhoamiCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the account behind the token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireToken(opts); err != nil {
				return err
			}
			u, err := opts.client().Me(cmd.Context())
			if err != nil {
				return err
			}
			if opts.jsonOutput {
				return writeJSON(cmd.OutOrStdout(), u)
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", u.ID, u.Name, u.Email)
			return err
		},
	}
}

func writeAuth(opts *options, w io.Writer, resp *client.AuthResponse) error {
	if opts.jsonOutput {
		return writeJSON(w, resp)
	}
	name := ""
	if resp.User != nil {
		name = resp.User.Name
	}
	_, err := fmt.Fprintf(w, "Welcome, %s.\nexport %s=%s\n", name, common.TokenEnvName, resp.AccessToken)
	return err
}
