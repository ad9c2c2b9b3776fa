package commands

import (
	"fmt"

	"github.com/benvon/smart-tasks/internal/services/reminder"
	"github.com/spf13/cobra"
)

func newRemindersCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Inspect and deliver due reminders",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "due",
		Short: "List tasks whose reminder is due but not yet delivered",
		RunE: func(cmd *cobra.Command, _ []string) error {
			due := reminder.Due(s.rt.Coordinator.CurrentTasks(), s.now())
			printTasks(cmd.OutOrStdout(), due)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Deliver due reminders once and mark them reminded",
		RunE: func(cmd *cobra.Command, _ []string) error {
			notifiers := reminder.MultiNotifier{reminder.NewLogNotifier(s.logger)}
			if s.cfg.TelegramToken != "" {
				tg, err := reminder.NewTelegramNotifier(s.cfg.TelegramToken, s.cfg.TelegramChatID)
				if err != nil {
					return err
				}
				notifiers = append(notifiers, tg)
			}
			monitor := reminder.NewMonitor(s.rt.Coordinator, notifiers, s.cfg.ReminderInterval, s.logger)
			ids := monitor.Check(cmd.Context())
			fmt.Fprintf(cmd.OutOrStdout(), "Delivered %d reminders\n", len(ids))
			return nil
		},
	})
	return cmd
}
