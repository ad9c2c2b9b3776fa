package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newStorageCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Maintain the local store",
	}

	var yes bool
	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every locally stored key",
		Long:  "Remove tasks, categories and settings from the local store. Remote data is untouched.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear storage without --yes")
			}
			if err := s.rt.Store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Local storage cleared")
			return nil
		},
	}
	clearCmd.Flags().BoolVar(&yes, "yes", false, "Confirm clearing local storage")
	cmd.AddCommand(clearCmd)
	return cmd
}
