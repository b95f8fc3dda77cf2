package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/strata3d/strata/internal/journal"
)

// HistoryEntry is one revision row in history output.
type HistoryEntry struct {
	ID        string `json:"id"`
	Seq       int64  `json:"seq"`
	Source    string `json:"source"`
	Hash      string `json:"hash"`
	CreatedAt string `json:"created_at"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history --db <journal>",
		Short: "List committed document revisions",
		Long: `List the revisions recorded in a journal database, newest first.

Each commit of a document — full replace, mutation, or applied patch —
appends one revision with a canonical content hash.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dbPath, _ := cmd.Flags().GetString("db")
			return runHistory(rootOpts, dbPath, limit, cmd)
		},
	}

	cmd.Flags().String("db", "", "journal database path")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum revisions to list (0 for all)")
	return cmd
}

func runHistory(opts *RootOptions, dbPath string, limit int, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	j, err := journal.Open(dbPath)
	if err != nil {
		_ = formatter.Error(ErrCodeJournalError, "opening journal", err.Error())
		return WrapExitError(ExitCommandError, "opening journal", err)
	}
	defer j.Close()

	revs, err := j.History(limit)
	if err != nil {
		_ = formatter.Error(ErrCodeJournalError, "reading history", err.Error())
		return WrapExitError(ExitCommandError, "reading history", err)
	}

	entries := make([]HistoryEntry, 0, len(revs))
	for _, rev := range revs {
		entries = append(entries, HistoryEntry{
			ID:        rev.ID,
			Seq:       rev.Seq,
			Source:    rev.Source,
			Hash:      rev.Hash,
			CreatedAt: rev.CreatedAt,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(entries)
	}

	if len(entries) == 0 {
		fmt.Fprintln(formatter.Writer, "no revisions")
		return nil
	}
	w := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SEQ\tSOURCE\tHASH\tCREATED\tID")
	for _, e := range entries {
		hash := e.Hash
		if len(hash) > 12 {
			hash = hash[:12]
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", e.Seq, e.Source, hash, e.CreatedAt, e.ID)
	}
	return w.Flush()
}
