package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// mappingsDeleteCmd represents the delete command
var mappingsDeleteCmd = &cobra.Command{
	Use:          "delete NAME",
	Short:        "delete the mapping of a name, the device object is not touched",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()
		if err := s.Delete(cmd.Context(), namespace, args[0]); err != nil {
			return err
		}
		fmt.Printf("deleted mapping %s in %s\n", args[0], namespace)
		return nil
	},
}

func init() {
	mappingsCmd.AddCommand(mappingsDeleteCmd)
}
