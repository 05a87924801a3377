package cmd

import (
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sdcio/dataplane-translator/pkg/store"
)

var namespace string

// mappingsCmd represents the mappings command
var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "inspect and edit name to index mappings",
}

func init() {
	rootCmd.AddCommand(mappingsCmd)
	mappingsCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "interface-context", "naming context")
}

func printMappingsTable(entries []*store.Entry) {
	tableData := make([][]string, 0, len(entries))
	for _, e := range entries {
		tableData = append(tableData, []string{e.Namespace, e.Name, strconv.FormatUint(uint64(e.Index), 10)})
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Namespace", "Name", "Index"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(tableData)
	table.Render()
}
