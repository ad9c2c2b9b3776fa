package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/benvon/smart-tasks/internal/services/view"
	"github.com/benvon/smart-tasks/internal/validation"
	"github.com/spf13/cobra"
)

const dateLayout = "2006-01-02"

func newTasksCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List and change tasks",
	}
	cmd.AddCommand(newTasksListCmd(s))
	cmd.AddCommand(newTasksAddCmd(s))
	cmd.AddCommand(newTasksStatusCmd(s, "done", models.TaskStatusDone))
	cmd.AddCommand(newTasksStatusCmd(s, "start", models.TaskStatusInProgress))
	cmd.AddCommand(newTasksStatusCmd(s, "reopen", models.TaskStatusTodo))
	cmd.AddCommand(newTasksSetStatusCmd(s))
	cmd.AddCommand(newTasksDeleteCmd(s))
	cmd.AddCommand(newSubtasksCmd(s))
	return cmd
}

func newTasksListCmd(s *session) *cobra.Command {
	var (
		all        bool
		status     string
		priorities []string
		categories []string
		search     string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks, optionally filtered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			tasks := s.rt.Coordinator.CurrentTasks()
			if all {
				printTasks(cmd.OutOrStdout(), tasks)
				return nil
			}

			patch := models.FilterPatch{}
			if status != "" {
				patch.Status = &status
			}
			if len(priorities) > 0 {
				ps := make([]models.Priority, 0, len(priorities))
				for _, p := range priorities {
					if err := validation.ValidatePriority(p); err != nil {
						return err
					}
					ps = append(ps, models.Priority(p))
				}
				patch.Priority = &ps
			}
			if len(categories) > 0 {
				patch.Category = &categories
			}
			if search != "" {
				patch.Search = &search
			}
			if err := validation.Struct(patch); err != nil {
				return err
			}

			printTasks(cmd.OutOrStdout(), view.Filter(tasks, models.DefaultFilterCriteria().Merge(patch)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Ignore every filter flag")
	cmd.Flags().StringVar(&status, "status", "", "all, todo, in-progress or done")
	cmd.Flags().StringSliceVar(&priorities, "priority", nil, "Priority to include (repeatable)")
	cmd.Flags().StringSliceVar(&categories, "category", nil, "Category id to include (repeatable)")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive text in title, description or tags")
	return cmd
}

func newTasksAddCmd(s *session) *cobra.Command {
	var (
		title       string
		description string
		priority    string
		category    string
		due         string
		reminder    string
		tags        []string
	)
	cmd := &cobra.Command{
		Use:   "add [title]",
		Short: "Create a task",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				title = args[0]
			}
			input := models.TaskInput{
				Title:       validation.SanitizeText(title),
				Description: validation.SanitizeText(description),
				Priority:    models.Priority(priority),
				Category:    category,
				Tags:        validation.SanitizeTags(tags),
			}
			if due != "" {
				d, err := time.ParseInLocation(dateLayout, due, time.Local)
				if err != nil {
					return fmt.Errorf("--due must be YYYY-MM-DD: %w", err)
				}
				input.DueDate = &d
			}
			if reminder != "" {
				r, err := time.Parse(time.RFC3339, reminder)
				if err != nil {
					return fmt.Errorf("--remind must be RFC 3339: %w", err)
				}
				input.ReminderTime = &r
			}
			if err := validation.Struct(input); err != nil {
				return err
			}

			task, err := s.rt.Coordinator.AddTask(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", task.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "Task title (or pass it as the argument)")
	cmd.Flags().StringVar(&description, "description", "", "Task description")
	cmd.Flags().StringVar(&priority, "priority", "", "high, medium or low")
	cmd.Flags().StringVar(&category, "category", "", "Category id")
	cmd.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&reminder, "remind", "", "Reminder time (RFC 3339)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag (repeatable)")
	return cmd
}

func newTasksStatusCmd(s *session, use string, status models.TaskStatus) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: fmt.Sprintf("Set a task's status to %s", status),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			task, err := s.rt.Coordinator.SetTaskStatus(cmd.Context(), args[0], status)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", task.ID, task.Status)
			return nil
		},
	}
}

func newTasksSetStatusCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <todo|in-progress|done>",
		Short: "Set a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.ValidateTaskStatus(args[1]); err != nil {
				return err
			}
			task, err := s.rt.Coordinator.SetTaskStatus(cmd.Context(), args[0], models.TaskStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", task.ID, task.Status)
			return nil
		},
	}
}

func newTasksDeleteCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete one or more tasks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 1 {
				if err := s.rt.Coordinator.DeleteTask(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted 1 task\n")
				return nil
			}
			n, err := s.rt.Coordinator.BatchDelete(cmd.Context(), args)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d tasks\n", n)
			return nil
		},
	}
}

func printTasks(w io.Writer, tasks []models.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks")
		return
	}
	for _, t := range tasks {
		line := fmt.Sprintf("%-14s %-11s %-6s %s", t.ID, t.Status, t.Priority, t.Title)
		if t.DueDate != nil {
			line += "  due " + t.DueDate.Local().Format(dateLayout)
		}
		if len(t.Tags) > 0 {
			line += "  #" + strings.Join(t.Tags, " #")
		}
		if n := len(t.Subtasks); n > 0 {
			done := 0
			for _, st := range t.Subtasks {
				if st.Status == models.SubtaskStatusDone {
					done++
				}
			}
			line += fmt.Sprintf("  [%d/%d]", done, n)
		}
		fmt.Fprintln(w, line)
	}
}
