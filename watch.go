package main

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/TaffyWrinkle/jacdac/internal/fs"
	"github.com/TaffyWrinkle/jacdac/internal/idl"
)

// watch compiles once and then again after every burst of document
// changes in the input directory or an include root.
func (self *app) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	dirs := []string{self.Dir}
	for _, root := range self.Config.Roots {
		if !filepath.IsAbs(root) {
			root = filepath.Join(self.Dir, root)
		}
		dirs = append(dirs, root)
	}
	for _, dir := range dirs {
		if err := w.Add(dir); err != nil {
			return err
		}
	}

	self.run(ctx)
	debounce := self.Config.Debounce()
	fire := make(chan struct{}, 1)
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			self.Logger.Debug("document changed", "path", event.Name, "op", event.Op.String())
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, func() {
				select {
				case fire <- struct{}{}:
				default:
				}
			})
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			self.Logger.Warn("watch error", "error", err)
		case <-fire:
			self.run(ctx)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if fs.KindOf(event.Name) == idl.FileKindNone {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write) || event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}
