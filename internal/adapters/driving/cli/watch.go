package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/custodia-labs/ragbank/internal/core/domain"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Rebuild the index when the data changes",
	Long: `Watch the customer CSV and the PDF directory and rebuild the index after
they change. Bursts of events are collapsed into one rebuild, and rebuilds
never overlap. The previous index keeps serving while a rebuild runs and
after a failed one.`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 2*time.Second, "quiet period before rebuilding")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := ensureSettings(); err != nil {
		return err
	}
	if err := ensureRAG(ctx); err != nil {
		return err
	}
	settings, err := settingsService.Get()
	if err != nil {
		return eris.Wrap(err, "load settings")
	}

	status, err := ragService.EnsureIndex(ctx)
	if err != nil {
		zap.L().Warn("initial build failed, waiting for changes", zap.Error(err))
	} else {
		printIndexStatus(cmd, status)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return eris.Wrap(err, "create watcher")
	}
	defer fw.Close()

	filter := newChangeFilter(settings.Data)
	for _, dir := range filter.dirs() {
		if err := fw.Add(dir); err != nil {
			return eris.Wrapf(err, "watch %s", dir)
		}
	}
	cmd.Printf("Watching %s\n", strings.Join(filter.dirs(), ", "))

	w := &rebuildLoop{
		filter:   filter,
		debounce: watchDebounce,
		rebuild: func(ctx context.Context) error {
			st, err := ragService.Rebuild(ctx)
			if err != nil {
				return err
			}
			cmd.Printf("Rebuilt %s (%d documents)\n", st.Collection, st.Documents)
			return nil
		},
	}
	return w.run(ctx, fw.Events, fw.Errors)
}

// changeFilter decides which filesystem events concern the sources.
type changeFilter struct {
	csvPath string
	pdfDir  string
}

func newChangeFilter(data domain.DataSettings) changeFilter {
	return changeFilter{
		csvPath: filepath.Clean(data.CSVPath),
		pdfDir:  filepath.Clean(data.PDFDir),
	}
}

// dirs returns the directories to watch. The CSV is watched through its
// parent so that editors replacing the file are still seen.
func (f changeFilter) dirs() []string {
	csvDir := filepath.Dir(f.csvPath)
	if csvDir == f.pdfDir {
		return []string{f.pdfDir}
	}
	return []string{csvDir, f.pdfDir}
}

// relevant reports whether event should trigger a rebuild.
func (f changeFilter) relevant(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	if strings.HasPrefix(filepath.Base(name), ".") {
		return false
	}
	if name == f.csvPath {
		return true
	}
	return filepath.Dir(name) == f.pdfDir && strings.EqualFold(filepath.Ext(name), ".pdf")
}

// rebuildLoop collapses bursts of events into sequential rebuilds.
type rebuildLoop struct {
	filter   changeFilter
	debounce time.Duration
	rebuild  func(ctx context.Context) error
}

func (l *rebuildLoop) run(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !l.filter.relevant(event) {
				continue
			}
			zap.L().Debug("source changed", zap.String("path", event.Name), zap.String("op", event.Op.String()))
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(l.debounce)
			fire = timer.C

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			zap.L().Warn("watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if err := l.rebuild(ctx); err != nil {
				zap.L().Error("rebuild failed, previous index still active", zap.Error(err))
			}
		}
	}
}
