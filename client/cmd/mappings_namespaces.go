package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mappingsNamespacesCmd represents the namespaces command
var mappingsNamespacesCmd = &cobra.Command{
	Use:          "namespaces",
	Short:        "list the naming contexts holding mappings",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		namespaces, err := s.Namespaces(cmd.Context())
		if err != nil {
			return err
		}
		for _, ns := range namespaces {
			fmt.Println(ns)
		}
		return nil
	},
}

func init() {
	mappingsCmd.AddCommand(mappingsNamespacesCmd)
}
