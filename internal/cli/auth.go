package cli

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TWRT/taskdesk/internal/models"
)

// readPassword falls back to the first line of stdin when no flag was given.
func readPassword(cmd *cobra.Command, flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newRegisterCmd(e *env) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "register <username> <email>",
		Short: "Create an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			user, err := a.Register(cmd.Context(), models.Registration{Username: args[0], Email: args[1], Password: pw})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s (#%d). Run `taskdesk login %s` to sign in.\n", user.Username, user.ID, user.Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (read from stdin when omitted)")
	return cmd
}

func newLoginCmd(e *env) *cobra.Command {
	var password string
	cmd := &cobra.Command{
		Use:   "login <username>",
		Short: "Sign in and store the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}
			if err := a.Login(cmd.Context(), args[0], pw); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", a.Session.Current().Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (read from stdin when omitted)")
	return cmd
}

func newLogoutCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.open(cmd)
			if err != nil {
				return err
			}
			if err := a.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			s := a.Session.Current()
			fmt.Fprintf(cmd.OutOrStdout(), "%s (#%d, %s)\n", s.Username, s.UserID, s.Role)
			return nil
		},
	}
}

func newUsersCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List active users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			res := a.Users.List(cmd.Context())
			if res.Err != nil && !res.HasData {
				return res.Err
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tUSERNAME\tROLE")
			for _, u := range res.Data {
				fmt.Fprintf(w, "%d\t%s\t%s\n", u.ID, u.Username, u.Role)
			}
			return w.Flush()
		},
	}
}
