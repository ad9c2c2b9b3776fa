package commands

import (
	"fmt"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/benvon/smart-tasks/internal/validation"
	"github.com/spf13/cobra"
)

func newSubtasksCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "subtasks",
		Short: "Manage a task's checklist",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <task-id>",
		Short: "List subtasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := s.rt.Coordinator.Task(args[0])
			if err != nil {
				return err
			}
			if len(task.Subtasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No subtasks")
				return nil
			}
			for _, st := range task.Subtasks {
				mark := " "
				if st.Status == models.SubtaskStatusDone {
					mark = "x"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "[%s] %-14s %s\n", mark, st.ID, st.Title)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <task-id> <title>",
		Short: "Add a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			title := validation.SanitizeText(args[1])
			if title == "" {
				return fmt.Errorf("%w: subtask title is required", models.ErrInvalidInput)
			}
			task, err := s.rt.Coordinator.AddSubtask(cmd.Context(), args[0], title)
			if err != nil {
				return err
			}
			added := task.Subtasks[len(task.Subtasks)-1]
			fmt.Fprintf(cmd.OutOrStdout(), "Created subtask %s\n", added.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "status <task-id> <subtask-id> <todo|done>",
		Short: "Set a subtask's status",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateSubtaskStatus(args[2]); err != nil {
				return err
			}
			_, err := s.rt.Coordinator.SetSubtaskStatus(cmd.Context(), args[0], args[1], models.SubtaskStatus(args[2]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subtask %s is now %s\n", args[1], args[2])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <task-id> <subtask-id>",
		Short: "Delete a subtask",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := s.rt.Coordinator.DeleteSubtask(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted subtask %s\n", args[1])
			return nil
		},
	})
	return cmd
}
