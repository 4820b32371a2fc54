package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	envFile    string
)

func main() {
	root := &cobra.Command{
		Use:   "news-robot",
		Short: "Collect news search results into an Excel report",
		Long: `news-robot searches a news site for a phrase, narrows the results to a set
of sections, and records every article published within the last months
into an Excel workbook together with its picture.`,
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "path to config file")
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "optional .env file with overrides")

	root.AddCommand(runCmd(), parseCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
