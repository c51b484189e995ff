package main

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"

	"repomap/internal/errors"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		printError(err)
		os.Exit(1)
	}
}

// printError renders a failure with its code and suggested fixes, as
// JSON under --json so wrapping tools can parse it.
func printError(err error) {
	var mapErr *errors.MapError
	if !stderrors.As(err, &mapErr) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	if jsonOutput {
		if data, jerr := json.MarshalIndent(mapErr, "", "  "); jerr == nil {
			fmt.Fprintln(os.Stderr, string(data))
			return
		}
	}

	fmt.Fprintf(os.Stderr, "Error: %v\n", mapErr)
	for _, fix := range mapErr.SuggestedFixes {
		fmt.Fprintf(os.Stderr, "  Try: %s", fix.Description)
		if fix.Command != "" {
			fmt.Fprintf(os.Stderr, "  ($ %s)", fix.Command)
		}
		fmt.Fprintln(os.Stderr)
	}
}
