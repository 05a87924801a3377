package cmd

import (
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/sdcio/dataplane-translator/pkg/device"
	"github.com/sdcio/dataplane-translator/pkg/device/sim"
	"github.com/sdcio/dataplane-translator/pkg/naming"
	"github.com/sdcio/dataplane-translator/pkg/registry"
	"github.com/sdcio/dataplane-translator/pkg/server"
	"github.com/sdcio/dataplane-translator/pkg/translate"
)

// registryCmd represents the registry command
var registryCmd = &cobra.Command{
	Use:   "registry",
	Short: "inspect the handler registry",
}

// registryOrderCmd represents the order command
var registryOrderCmd = &cobra.Command{
	Use:          "order",
	Short:        "print the handlers in execution order",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		names, err := naming.NewRegistryFromConfig(cfg.Naming)
		if err != nil {
			return err
		}
		// the device is never called while building the graph
		dev := sim.New(1)
		defer dev.Close()
		g, err := server.BuildGraph(device.NewReplyConsumer(dev, cfg.Device.ReplyTimeout), names)
		if err != nil {
			return err
		}
		printRegistryTable(g)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(registryCmd)
	registryCmd.AddCommand(registryOrderCmd)
}

func capabilities(r *registry.Registration) string {
	if r.IsStructural() {
		return "structural"
	}
	caps := []string{}
	h := r.Handler()
	if _, ok := h.(translate.Writer); ok {
		caps = append(caps, "write")
	}
	if _, ok := h.(translate.Validator); ok {
		caps = append(caps, "validate")
	}
	if _, ok := h.(translate.ListReader); ok {
		caps = append(caps, "list")
	} else if _, ok := h.(translate.Reader); ok {
		caps = append(caps, "read")
	}
	if _, ok := h.(translate.Merger); ok {
		caps = append(caps, "merge")
	}
	return strings.Join(caps, ",")
}

func printRegistryTable(g *registry.Graph) {
	tableData := [][]string{}
	for _, r := range g.Order() {
		subtrees := []string{}
		for _, s := range r.Subtrees() {
			subtrees = append(subtrees, s.String())
		}
		tableData = append(tableData, []string{
			strconv.Itoa(r.Position()),
			r.Root().String(),
			strings.Join(subtrees, "\n"),
			capabilities(r),
		})
	}
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Position", "Path", "Subtrees", "Capabilities"})
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.AppendBulk(tableData)
	table.Render()
}
