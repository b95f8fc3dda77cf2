package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/strata3d/strata/internal/docstore"
	"github.com/strata3d/strata/internal/journal"
	"github.com/strata3d/strata/internal/runtime"
	"github.com/strata3d/strata/internal/scenedoc"
)

// PatchResult holds the outcome of a patch application.
type PatchResult struct {
	Applied bool   `json:"applied"`
	Ops     int    `json:"ops"`
	Hash    string `json:"hash,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// NewPatchCommand creates the patch command.
func NewPatchCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		outPath string
		dbPath  string
	)

	cmd := &cobra.Command{
		Use:   "patch <document> <batch>",
		Short: "Apply a patch batch to a scene document",
		Long: `Apply a JSON patch batch to a scene document through the full
validation pipeline: the batch is applied to a working copy, the result
is re-validated against the schema, and on any failure the document is
left untouched and every violation is reported.

The patched document is written as canonical JSON to stdout, or to the
file given with --out. With --db, the commit is also appended to a
revision journal.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPatch(rootOpts, args[0], args[1], outPath, dbPath, cmd)
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the patched document to this file")
	cmd.Flags().StringVar(&dbPath, "db", "", "append committed revisions to this journal database")
	return cmd
}

func runPatch(opts *RootOptions, docPath, batchPath, outPath, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	doc, _, violations, err := LoadDocument(docPath)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		_ = formatter.Error(ErrCodeUnreadable, fmt.Sprintf("document %s is not valid; run validate", docPath), violations)
		return NewExitError(ExitCommandError, "invalid input document")
	}

	ops, err := LoadBatch(batchPath)
	if err != nil {
		return err
	}
	formatter.VerboseLog("loaded %d operation(s) from %s", len(ops), batchPath)

	var storeOpts []docstore.Option
	if dbPath != "" {
		j, err := journal.Open(dbPath)
		if err != nil {
			_ = formatter.Error(ErrCodeJournalError, "opening journal", err.Error())
			return WrapExitError(ExitCommandError, "opening journal", err)
		}
		defer j.Close()
		storeOpts = append(storeOpts, docstore.WithJournal(j))
	}

	state := runtime.New()
	store := docstore.New(state, storeOpts...)
	store.SetDoc(doc)

	if err := store.ApplyPatch(ops); err != nil {
		var rejected *docstore.PatchRejectedError
		if errors.As(err, &rejected) {
			if opts.Format == "json" {
				_ = formatter.Success(PatchResult{Applied: false, Ops: len(ops), Reason: rejected.Reason})
			} else {
				fmt.Fprintln(formatter.Writer, rejected.Reason)
			}
			return NewExitError(ExitFailure, "patch rejected")
		}
		return WrapExitError(ExitCommandError, "applying patch", err)
	}

	patched := store.Doc()
	hash, err := patched.Hash()
	if err != nil {
		return WrapExitError(ExitCommandError, "hashing document", err)
	}

	tree, err := patched.ToTree()
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding document", err)
	}
	body, err := scenedoc.MarshalCanonical(tree)
	if err != nil {
		return WrapExitError(ExitCommandError, "encoding document", err)
	}

	if outPath != "" {
		if err := os.WriteFile(outPath, append(body, '\n'), 0o644); err != nil {
			_ = formatter.Error(ErrCodeWriteFailed, "writing output", err.Error())
			return WrapExitError(ExitCommandError, "writing output", err)
		}
		if opts.Format == "json" {
			return formatter.Success(PatchResult{Applied: true, Ops: len(ops), Hash: hash})
		}
		return formatter.Success(fmt.Sprintf("applied %d op(s), wrote %s (hash %s)", len(ops), outPath, hash[:12]))
	}

	if opts.Format == "json" {
		return formatter.Success(PatchResult{Applied: true, Ops: len(ops), Hash: hash})
	}
	fmt.Fprintln(formatter.Writer, string(body))
	return nil
}
