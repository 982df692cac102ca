// Command validate checks the record files written by a file-mode run: line
// format, tile and pixel bounds, duplicate pixels and neighbor counts.
//
// Usage:
//
//	go run ./cmd/validate records --s-res 1000 --neighbors 1
//	go run ./cmd/validate records --json > report.json
package main

import (
	"fmt"
	"os"

	"github.com/couchcryptid/forma-etl/internal/validate"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		opts      validate.Options
		jsonOut   bool
		firstOnly bool
	)

	cmd := &cobra.Command{
		Use:           "validate <record_dir>",
		Short:         "Check FORMA record files",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := validate.Dir(args[0], opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
				return err
			}
			if jsonOut {
				if err := rep.WriteJSON(cmd.OutOrStdout()); err != nil {
					return err
				}
			} else {
				printReport(rep, firstOnly)
			}
			if !rep.Passed() {
				return fmt.Errorf("%d issues", rep.Issues)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.SRes, "s-res", "1000", "spatial resolution of the records")
	cmd.Flags().IntVar(&opts.Neighbors, "neighbors", 1, "neighbor radius used for the run (0 skips the check)")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().BoolVar(&firstOnly, "first-only", false, "print only the first issue of each failing file")
	return cmd
}

func printReport(rep validate.Report, firstOnly bool) {
	fmt.Println("=== FORMA Record Validation ===")
	fmt.Println()

	for _, f := range rep.Files {
		status := "\033[32mPASS\033[0m"
		if f.IssueCount > 0 {
			status = fmt.Sprintf("\033[31mFAIL (%d issues)\033[0m", f.IssueCount)
		}
		fmt.Printf("  %-28s %6d lines %6d fire  %s\n", f.Name, f.Lines, f.FireRecords, status)
	}

	fmt.Println()
	fmt.Printf("Files: %d, records: %d\n", len(rep.Files), rep.Lines)

	for _, f := range rep.Files {
		if f.IssueCount == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", f.Name)
		for i, is := range f.Issues {
			fmt.Printf("  [%d] line %d: %s\n", i+1, is.Line, is.Message)
			if firstOnly {
				break
			}
		}
		if hidden := f.IssueCount - len(f.Issues); hidden > 0 && !firstOnly {
			fmt.Printf("  ... %d more\n", hidden)
		}
	}

	if rep.Passed() {
		fmt.Println("\nAll validations passed.")
		return
	}
	fmt.Println("\nValidation FAILED.")
}
