package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/strata3d/strata/internal/schema"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                     `json:"valid"`
	File   string                   `json:"file"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <document>",
		Short: "Validate a scene document",
		Long: `Validate a scene document (JSON or YAML) against the document schema.

Checks structure, value constraints, and cross-references (active scene,
asset keys, duplicate ids) without touching a renderer or a journal.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	doc, _, violations, err := LoadDocument(path)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			_ = formatter.Error(ErrCodeUnreadable, exitErr.Message, nil)
		}
		return err
	}

	if len(violations) > 0 {
		if opts.Format == "json" {
			_ = formatter.Success(ValidationResult{Valid: false, File: path, Errors: violations})
		} else {
			fmt.Fprintln(formatter.Writer, schema.Report(violations))
		}
		return NewExitError(ExitFailure, fmt.Sprintf("%d validation error(s)", len(violations)))
	}

	formatter.VerboseLog("document %s: %d scene(s), active %q", path, len(doc.Scenes), doc.ActiveScene)
	if opts.Format == "json" {
		return formatter.Success(ValidationResult{Valid: true, File: path})
	}
	return formatter.Success(fmt.Sprintf("%s: valid (%d scene(s))", path, len(doc.Scenes)))
}
