package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/fabula/internal/loader"
)

// ValidationResult holds the outcome of validating a story document.
type ValidationResult struct {
	Valid    bool                     `json:"valid"`
	Errors   []loader.ValidationError `json:"errors,omitempty"`
	Warnings []loader.Warning         `json:"warnings,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <story-file>",
		Short: "Validate a story document",
		Long: `Validate a story document without playing it.

Performs schema validation and structural checks: duplicate node ids,
dangling choice targets, unknown item/currency/stat references, puzzle
definitions, and reachability. Accepts .json, .yaml, .yml and .cue files.

Exit codes:
  0 - Story is valid
  1 - Story has validation errors
  2 - Command error (file not found, etc.)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, storyFile string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}

	if _, err := os.Stat(storyFile); err != nil {
		_ = formatter.Error("E000", fmt.Sprintf("cannot read story file: %v", err), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("story file not found: %s", storyFile))
	}

	doc, report, err := loader.Load(storyFile)
	var invalid *loader.InvalidStoryError
	if err != nil && !errors.As(err, &invalid) {
		_ = formatter.Error("E000", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load story", err)
	}

	if report != nil && !report.Valid() {
		return outputValidationErrors(formatter, report)
	}

	formatter.VerboseLog("Loaded %q with %d node(s)", doc.Title, len(doc.Nodes))
	return outputValidateSuccess(formatter, report)
}

// outputValidateSuccess outputs a passing validation result, including
// any warnings the validator collected.
func outputValidateSuccess(formatter *OutputFormatter, report *loader.Report) error {
	result := ValidationResult{Valid: true}
	if report != nil {
		result.Warnings = report.Warnings
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintln(formatter.Writer, "✓ Story valid")
	for _, w := range result.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning %s: %s\n", w.Code, w.Message)
	}
	return nil
}

// outputValidationErrors outputs all collected validation errors.
func outputValidationErrors(formatter *OutputFormatter, report *loader.Report) error {
	errs := report.Errors

	if formatter.Format == "json" {
		result := ValidationResult{
			Valid:    false,
			Errors:   errs,
			Warnings: report.Warnings,
		}

		response := CLIResponse{
			Status: "error",
			Data:   result,
			Error: &CLIError{
				Code:    errs[0].Code,
				Message: errs[0].Message,
			},
		}

		encoder := json.NewEncoder(formatter.Writer)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(response); err != nil {
			return err
		}

		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	fmt.Fprintln(formatter.Writer)

	for _, err := range errs {
		if err.Line > 0 {
			fmt.Fprintf(formatter.Writer, "line %d\n", err.Line)
		}
		fmt.Fprintf(formatter.Writer, "  %s: %s (%s)\n", err.Code, err.Message, err.Field)
	}
	for _, w := range report.Warnings {
		fmt.Fprintf(formatter.Writer, "  warning %s: %s\n", w.Code, w.Message)
	}

	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))
}
