// Command steer is the CLI front end for the steer-sdk client: a thin
// wrapper over pkg/client for ad-hoc generation and model discovery
// against any configured provider.
//
// Usage:
//
//	# Generate a single completion
//	steer generate gpt-4o "summarize this changelog"
//
//	# Stream the completion to stdout as it arrives
//	steer generate claude-3-5-sonnet-20241022 "write a haiku" --stream
//
//	# List models known to the capability registry
//	steer list-models
//
//	# Show version information
//	steer version
package main

func main() {
	Execute()
}
