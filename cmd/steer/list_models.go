package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"steer-sdk/core/pkg/cli"
)

var listModelsFormat string
var listModelsAll bool

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List models known to the capability registry",
	Long: `list-models prints every model id the capability registry knows
about. By default only models whose provider is currently configured
and available are shown; --all prints every registry entry regardless
of provider availability.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := buildClient()
		if err != nil {
			return err
		}

		var models []string
		if listModelsAll {
			models = c.AllModels()
		} else {
			models = c.GetAvailableModels()
		}
		sort.Strings(models)

		if listModelsFormat == string(cli.FormatText) {
			for _, m := range models {
				fmt.Fprintln(os.Stdout, m)
			}
			return nil
		}

		formatter := cli.NewFormatter(cli.OutputFormat(listModelsFormat))
		return formatter.FormatTo(os.Stdout, models)
	},
}

func init() {
	listModelsCmd.Flags().StringVar(&listModelsFormat, "format", string(cli.FormatText), "output format: text, json, or csv")
	listModelsCmd.Flags().BoolVar(&listModelsAll, "all", false, "list every registry entry, not just available models")
	rootCmd.AddCommand(listModelsCmd)
}
