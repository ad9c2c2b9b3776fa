package commands

import (
	"fmt"
	"io"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/spf13/cobra"
)

func newSyncCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Show or change remote sync",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether sync is enabled and a remote is configured",
		RunE: func(cmd *cobra.Command, _ []string) error {
			printSync(cmd.OutOrStdout(), s.rt.Coordinator.SyncSettings(cmd.Context()))
			return nil
		},
	})
	cmd.AddCommand(newSyncToggleCmd(s, "enable", true))
	cmd.AddCommand(newSyncToggleCmd(s, "disable", false))
	return cmd
}

func newSyncToggleCmd(s *session, use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Turn remote sync %s", map[bool]string{true: "on", false: "off"}[enabled]),
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := s.rt.Coordinator.SetSyncEnabled(cmd.Context(), enabled)
			if err != nil {
				return err
			}
			printSync(cmd.OutOrStdout(), settings)
			return nil
		},
	}
}

func printSync(w io.Writer, settings models.SyncSettings) {
	fmt.Fprintf(w, "Sync enabled:      %v\n", settings.Enabled)
	fmt.Fprintf(w, "Remote configured: %v\n", settings.Configured)
}
