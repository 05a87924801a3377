package cmd

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/sdcio/dataplane-translator/pkg/config"
	"github.com/sdcio/dataplane-translator/pkg/store"
)

var configFile string
var debug bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "translatectl",
	Short: "inspect the mapping store and the handler registry of the dataplane translator",
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		if debug {
			log.SetLevel(log.DebugLevel)
		}
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path of the translator")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "set log level to DEBUG")
}

func loadConfig() (*config.Config, error) {
	return config.New(configFile)
}

// openStore opens the mapping store of the translator. The translator must
// not be running when a badgerdb or bbolt store is opened.
func openStore() (store.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return store.New(cfg.MappingStore)
}
