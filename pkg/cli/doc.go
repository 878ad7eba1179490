/*
Package cli provides the output formatting and signal handling that
cmd/steer builds its commands on.

Output Formatting:

cli supports multiple output formats (text, JSON, CSV) for displaying
command results:

	formatter := cli.NewFormatter(cli.FormatJSON)
	data := MyCommandResult{...}
	if err := formatter.FormatTo(os.Stdout, data); err != nil {
		return err
	}

Signal Handling:

generate and stream abort cleanly on SIGINT/SIGTERM instead of running
a provider call to completion:

	ctx := cli.SetupSignalHandler()
	resp, err := client.Generate(ctx, model, messages, params)
*/
package cli
