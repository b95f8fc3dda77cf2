package cli

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/strata3d/strata/internal/docstore"
	"github.com/strata3d/strata/internal/journal"
	"github.com/strata3d/strata/internal/reconcile"
	"github.com/strata3d/strata/internal/schema"
	"github.com/strata3d/strata/internal/session"
)

// reloadDebounce collapses the burst of filesystem events editors emit
// for a single save into one reload.
const reloadDebounce = 100 * time.Millisecond

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "watch <document>",
		Short: "Watch a document and hot-reload it into a headless session",
		Long: `Watch a scene document file and reload it on every save.

Each valid save is committed into a headless session — the same store,
reconciler, and event wiring the editor uses, driving a recording
renderer instead of a GPU — and a one-line summary of the resulting
scene is printed. Invalid saves are reported and skipped; the session
keeps the last valid document.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(rootOpts, args[0], dbPath, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "append committed revisions to this journal database")
	return cmd
}

func runWatch(opts *RootOptions, docPath, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

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

	renderer := reconcile.NewRecorder()
	sess := session.New(renderer, storeOpts...)
	defer sess.Close()

	if err := reloadInto(sess, docPath, formatter); err != nil {
		return err
	}

	// Watch the directory, not the file: editors replace files by
	// rename, which drops a file-level watch.
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = formatter.Error(ErrCodeWatchFailed, "starting watcher", err.Error())
		return WrapExitError(ExitCommandError, "starting watcher", err)
	}
	defer watcher.Close()

	absPath, err := filepath.Abs(docPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "resolving path", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		_ = formatter.Error(ErrCodeWatchFailed, "watching directory", err.Error())
		return WrapExitError(ExitCommandError, "watching directory", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	formatter.VerboseLog("watching %s", absPath)
	var lastReload time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != absPath {
				continue
			}
			if time.Since(lastReload) < reloadDebounce {
				continue
			}
			lastReload = time.Now()
			if err := reloadInto(sess, docPath, formatter); err != nil {
				// Unreadable mid-save file; the next event retries.
				formatter.VerboseLog("reload failed: %v", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			_ = formatter.Error(ErrCodeWatchFailed, "watch error", err.Error())
		}
	}
}

// reloadInto loads the document and commits it into the session if it
// validates. Invalid documents are reported and skipped.
func reloadInto(sess *session.Session, docPath string, formatter *OutputFormatter) error {
	doc, _, violations, err := LoadDocument(docPath)
	if err != nil {
		return err
	}
	if len(violations) > 0 {
		fmt.Fprintln(formatter.Writer, schema.Report(violations))
		return nil
	}

	sess.LoadDocument(doc)
	sess.Reconciler.WaitForLoads()

	scene := doc.ActiveSceneData()
	nodes := 0
	if scene != nil {
		nodes = len(scene.Nodes)
	}
	fmt.Fprintf(formatter.Writer, "%s reloaded %s: scene %q, %d node(s), %d live object(s)\n",
		time.Now().Format("15:04:05"), docPath, doc.ActiveScene, nodes, sess.Reconciler.Len())
	return nil
}
