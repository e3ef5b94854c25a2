package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newNotificationsCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox", "n"},
		Short:   "Read and manage notifications",
	}

	var unread bool
	list := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			res := a.Notifications.List(cmd.Context(), unread)
			if res.Err != nil && !res.HasData {
				return res.Err
			}
			if len(res.Data) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No notifications")
				return nil
			}
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\t \tWHEN\tTITLE\tMESSAGE")
			for _, n := range res.Data {
				mark := " "
				if !n.IsRead {
					mark = "*"
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", n.ID, mark, ago(n.CreatedAt), n.Title, n.Message)
			}
			return w.Flush()
		},
	}
	list.Flags().BoolVarP(&unread, "unread", "u", false, "only unread notifications")

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			_, err = a.Notifications.MarkRead(cmd.Context(), id)
			return err
		},
	}

	readAll := &cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			// A fresh process has an empty cache, so look first; an empty
			// inbox then skips the request.
			a.Notifications.List(cmd.Context(), true)
			n, err := a.Notifications.MarkAllRead(cmd.Context())
			if err != nil {
				return err
			}
			if n == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to mark")
			}
			return nil
		},
	}

	del := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a notification",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			return a.Notifications.Delete(cmd.Context(), id)
		},
	}

	cmd.AddCommand(list, read, readAll, del)
	return cmd
}
