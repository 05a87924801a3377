package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sdcio/dataplane-translator/pkg/store"
)

// mappingsGetCmd represents the get command
var mappingsGetCmd = &cobra.Command{
	Use:          "get NAME",
	Short:        "show the index mapped to a name",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		idx, ok, err := s.Get(cmd.Context(), namespace, args[0])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("name %q not mapped in %s", args[0], namespace)
		}
		printMappingsTable([]*store.Entry{{Namespace: namespace, Name: args[0], Index: idx}})
		return nil
	},
}

func init() {
	mappingsCmd.AddCommand(mappingsGetCmd)
}
