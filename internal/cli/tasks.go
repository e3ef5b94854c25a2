package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/TWRT/taskdesk/internal/models"
)

func newTasksCmd(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Work with tasks",
	}
	cmd.AddCommand(
		newTaskListCmd(e),
		newTaskShowCmd(e),
		newTaskCreateCmd(e),
		newTaskUpdateCmd(e),
		newTaskStatusCmd(e),
		newTaskDeleteCmd(e),
		newTaskCommentCmd(e),
		newTaskHistoryCmd(e),
	)
	return cmd
}

func parseDue(s string) (*time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid due date %q, expected YYYY-MM-DD", s)
	}
	return &d, nil
}

func newTaskListCmd(e *env) *cobra.Command {
	var status, search string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks you own or are assigned to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			res := a.Tasks.List(ctx, models.TaskFilter{Status: models.TaskStatus(status), Search: search})
			if res.Err != nil && !res.HasData {
				return res.Err
			}
			if res.Err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "showing cached tasks: %v\n", res.Err)
			}
			if len(res.Data) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found")
				return nil
			}
			name := a.Users.Names(ctx)
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tSTATUS\tTITLE\tASSIGNEE\tDUE\tUPDATED")
			for _, t := range res.Data {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Status, t.Title, name(t.AssignedToID), dueDate(t.DueDate), ago(t.UpdatedAt))
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVarP(&status, "status", "s", "", "filter by status (todo, in_progress, done)")
	cmd.Flags().StringVarP(&search, "search", "q", "", "filter by text in title or description")
	return cmd
}

func newTaskShowCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task with its comments and history",
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
			ctx := cmd.Context()
			res := a.Tasks.Get(ctx, id)
			if res.Err != nil {
				return res.Err
			}
			t := res.Data
			name := a.Users.Names(ctx)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "#%d %s\n", t.ID, t.Title)
			fmt.Fprintf(out, "Status:   %s\n", t.Status)
			fmt.Fprintf(out, "Assignee: %s\n", name(t.AssignedToID))
			fmt.Fprintf(out, "Owner:    %s\n", name(&t.OwnerID))
			fmt.Fprintf(out, "Due:      %s\n", dueDate(t.DueDate))
			fmt.Fprintf(out, "Created:  %s\n", ago(t.CreatedAt))
			fmt.Fprintf(out, "\n%s\n", orDash(t.Description))

			details, err := a.Tasks.Details(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\nComments (%d)\n", len(details.Comments.Data))
			for _, c := range details.Comments.Data {
				fmt.Fprintf(out, "  %s, %s: %s\n", name(&c.UserID), ago(c.CreatedAt), c.Content)
			}
			fmt.Fprintln(out, "\nHistory")
			for _, h := range details.History.Data {
				fmt.Fprintf(out, "  %s %s by %s", ago(h.CreatedAt), h.Action, name(&h.UserID))
				if h.Details != nil {
					fmt.Fprintf(out, " (%s)", *h.Details)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}

func newTaskCreateCmd(e *env) *cobra.Command {
	var (
		description, status, due string
		assignee                 int64
	)
	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := models.TaskInput{Title: strings.Join(args, " "), Status: models.TaskStatus(status)}
			if cmd.Flags().Changed("description") {
				in.Description = &description
			}
			if due != "" {
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				in.DueDate = d
			}
			if cmd.Flags().Changed("assignee") {
				in.AssignedToID = &assignee
			}
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			task, err := a.Tasks.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "#%d %s\n", task.ID, task.Title)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().StringVarP(&status, "status", "s", string(models.StatusTodo), "initial status")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().Int64VarP(&assignee, "assignee", "a", 0, "id of the user to assign")
	return cmd
}

func newTaskUpdateCmd(e *env) *cobra.Command {
	var (
		title, description, status, due      string
		assignee                             int64
		unassign, clearDue, clearDescription bool
	)
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var patch models.TaskPatch
			flags := cmd.Flags()
			if flags.Changed("title") {
				patch.Title = &title
			}
			switch {
			case clearDescription:
				patch.Description = models.Null[string]()
			case flags.Changed("description"):
				patch.Description = models.Some(description)
			}
			if flags.Changed("status") {
				s := models.TaskStatus(status)
				patch.Status = &s
			}
			switch {
			case clearDue:
				patch.DueDate = models.Null[time.Time]()
			case flags.Changed("due"):
				d, err := parseDue(due)
				if err != nil {
					return err
				}
				patch.DueDate = models.Some(*d)
			}
			switch {
			case unassign:
				patch.AssignedToID = models.Null[int64]()
			case flags.Changed("assignee"):
				patch.AssignedToID = models.Some(assignee)
			}
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			_, err = a.Tasks.Update(cmd.Context(), id, patch)
			return err
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().StringVarP(&status, "status", "s", "", "new status")
	cmd.Flags().StringVar(&due, "due", "", "new due date (YYYY-MM-DD)")
	cmd.Flags().Int64VarP(&assignee, "assignee", "a", 0, "id of the user to assign")
	cmd.Flags().BoolVar(&unassign, "unassign", false, "remove the assignee")
	cmd.Flags().BoolVar(&clearDue, "clear-due", false, "remove the due date")
	cmd.Flags().BoolVar(&clearDescription, "clear-description", false, "remove the description")
	cmd.MarkFlagsMutuallyExclusive("assignee", "unassign")
	cmd.MarkFlagsMutuallyExclusive("due", "clear-due")
	cmd.MarkFlagsMutuallyExclusive("description", "clear-description")
	return cmd
}

func newTaskStatusCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <todo|in_progress|done>",
		Short: "Move a task to another status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			_, err = a.Tasks.SetStatus(cmd.Context(), id, models.TaskStatus(args[1]))
			return err
		},
	}
}

func newTaskDeleteCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task you created",
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
			return a.Tasks.Delete(cmd.Context(), id)
		},
	}
}

func newTaskCommentCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "comment <id> <text>",
		Short: "Comment on a task",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			a, err := e.authed(cmd)
			if err != nil {
				return err
			}
			_, err = a.Tasks.AddComment(cmd.Context(), id, strings.Join(args[1:], " "))
			return err
		},
	}
}

func newTaskHistoryCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "history <id>",
		Short: "Show the activity log of a task",
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
			res := a.Tasks.History(cmd.Context(), id)
			if res.Err != nil && !res.HasData {
				return res.Err
			}
			name := a.Users.Names(cmd.Context())
			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "WHEN\tACTION\tBY\tDETAILS")
			for _, h := range res.Data {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", ago(h.CreatedAt), h.Action, name(&h.UserID), orDash(h.Details))
			}
			return w.Flush()
		},
	}
}
