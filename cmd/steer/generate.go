package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"steer-sdk/core/pkg/cli"
	"steer-sdk/core/pkg/core"
)

var (
	genMaxTokens   int
	genTemperature float64
	genStream      bool
	genFormat      string
)

var generateCmd = &cobra.Command{
	Use:   "generate <model> <prompt>",
	Short: "Generate a completion from a single prompt",
	Long: `generate sends a single user-role message to the named model and
prints the response. The model id must resolve through the capability
registry (see list-models); --stream prints deltas as they arrive
instead of waiting for the full response.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		modelID, prompt := args[0], args[1]

		c, err := buildClient()
		if err != nil {
			return err
		}

		if !c.CheckModelAvailability(modelID) {
			return fmt.Errorf("model %q is not available (unknown model or provider not configured)", modelID)
		}

		messages := []core.Message{{Role: core.RoleUser, Content: prompt}}
		params := core.GenerationParams{MaxTokens: genMaxTokens}
		if genTemperature >= 0 {
			params.Temperature = &genTemperature
		}

		ctx := cli.SetupSignalHandler()

		if genStream {
			chunks, err := c.Stream(ctx, modelID, messages, params)
			if err != nil {
				return fmt.Errorf("stream: %w", err)
			}
			for chunk := range chunks {
				fmt.Fprint(os.Stdout, chunk)
			}
			fmt.Fprintln(os.Stdout)
			return nil
		}

		resp, err := c.Generate(ctx, modelID, messages, params)
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}

		formatter := cli.NewFormatter(cli.OutputFormat(genFormat))
		if genFormat == string(cli.FormatText) {
			fmt.Fprintln(os.Stdout, resp.Text)
			if resp.CostUSD != nil {
				fmt.Fprintf(os.Stderr, "tokens: %d prompt + %d completion, cost: $%.6f\n",
					resp.Usage.PromptTokens, resp.Usage.CompletionTokens, *resp.CostUSD)
			}
			return nil
		}
		return formatter.FormatTo(os.Stdout, resp)
	},
}

func init() {
	generateCmd.Flags().IntVar(&genMaxTokens, "max-tokens", 1024, "maximum tokens to generate")
	generateCmd.Flags().Float64Var(&genTemperature, "temperature", -1, "sampling temperature (omit to use the provider default)")
	generateCmd.Flags().BoolVar(&genStream, "stream", false, "stream deltas to stdout as they arrive")
	generateCmd.Flags().StringVar(&genFormat, "format", string(cli.FormatText), "output format: text, json, or csv")
	rootCmd.AddCommand(generateCmd)
}
