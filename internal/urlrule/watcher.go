package urlrule

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch monitors the configuration file and hot-swaps the rule set until ctx
// is cancelled. compile re-reads the file and builds a fresh CompiledRules;
// when it fails the previous rules stay in effect.
//
// The parent directory is watched rather than the file itself: editors and
// config-management tools typically replace the file, which would otherwise
// drop the watch. Events are debounced so a save producing several writes
// triggers a single recompile.
func Watch(ctx context.Context, configPath string, rules *Rules, compile func() (*CompiledRules, error), logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	abs, err := filepath.Abs(configPath)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	logger.Info("rule watcher: started", slog.String("config", abs))

	var reloadTimer *time.Timer
	var reloadCh <-chan time.Time

	scheduleReload := func() {
		if reloadTimer == nil {
			reloadTimer = time.NewTimer(200 * time.Millisecond)
			reloadCh = reloadTimer.C
		} else {
			reloadTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reloadTimer != nil {
				reloadTimer.Stop()
			}
			logger.Info("rule watcher: stopped")
			return nil

		case <-reloadCh:
			compiled, compileErr := compile()
			if compileErr != nil {
				logger.Warn("rule watcher: reload failed, keeping previous rules",
					slog.String("error", compileErr.Error()))
				continue
			}
			rules.Store(compiled)
			logger.Info("rule watcher: rules reloaded", slog.Int("rules", compiled.Len()))

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Name != abs {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) != 0 {
				scheduleReload()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("rule watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
