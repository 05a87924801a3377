package cmd

import (
	"github.com/spf13/cobra"
)

// mappingsListCmd represents the list command
var mappingsListCmd = &cobra.Command{
	Use:          "list",
	Short:        "list the mappings of a naming context",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		entries, err := s.List(cmd.Context(), namespace)
		if err != nil {
			return err
		}
		printMappingsTable(entries)
		return nil
	},
}

func init() {
	mappingsCmd.AddCommand(mappingsListCmd)
}
