package policy

import (
	"context"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch reloads the table whenever the policy file is rewritten. The watch
// is on the containing directory so editors that replace the file (rename
// over it) are still seen. A broken file keeps the previous rules in effect.
func Watch(ctx context.Context, path string, table *Table, log *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	target := filepath.Clean(path)
	log.Info("watching policy file", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			rules, err := LoadFile(target)
			if err != nil {
				log.Warn("policy reload failed, keeping previous rules", zap.Error(err))
				continue
			}
			table.Replace(rules)
			log.Info("policy reloaded", zap.Int("rules", len(rules)))
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("policy watcher error", zap.Error(err))
		}
	}
}
