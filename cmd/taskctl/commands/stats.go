package commands

import (
	"fmt"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/spf13/cobra"
)

func newStatsCmd(s *session) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show task statistics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			st := s.rt.Coordinator.Statistics()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total:        %d\n", st.Total)
			fmt.Fprintf(out, "Todo:         %d\n", st.Todo)
			fmt.Fprintf(out, "In progress:  %d\n", st.InProgress)
			fmt.Fprintf(out, "Done:         %d\n", st.Done)
			fmt.Fprintf(out, "Completion:   %d%%\n", st.CompletionRate)
			fmt.Fprintln(out, "By priority:")
			for _, p := range models.Priorities {
				fmt.Fprintf(out, "  %-7s %d\n", p, st.PriorityStats[p])
			}
			if len(st.CategoryStats) > 0 {
				fmt.Fprintln(out, "By category:")
				for _, c := range s.rt.Coordinator.Categories() {
					if n, ok := st.CategoryStats[c.ID]; ok {
						fmt.Fprintf(out, "  %-12s %d\n", c.Name, n)
					}
				}
			}
			return nil
		},
	}
}
