package commands

import (
	"fmt"

	"github.com/benvon/smart-tasks/internal/models"
	"github.com/benvon/smart-tasks/internal/validation"
	"github.com/spf13/cobra"
)

func newCategoriesCmd(s *session) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List and change categories",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, c := range s.rt.Coordinator.Categories() {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-8s %s\n", c.ID, c.Color, c.Name)
			}
			return nil
		},
	})
	cmd.AddCommand(newCategoriesAddCmd(s))
	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a category and clear it from its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := s.rt.Coordinator.DeleteCategory(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %s\n", args[0])
			return nil
		},
	})
	return cmd
}

func newCategoriesAddCmd(s *session) *cobra.Command {
	var color string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input := models.CategoryInput{Name: validation.SanitizeText(args[0]), Color: color}
			if err := validation.Struct(input); err != nil {
				return err
			}
			c, err := s.rt.Coordinator.AddCategory(cmd.Context(), input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created category %s\n", c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&color, "color", "", "Hex color, e.g. #52c41a")
	return cmd
}
