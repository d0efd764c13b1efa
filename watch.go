package main

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/edaniels/golog"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

const rebuildDebounce = 2 * time.Second

// watchZones rebuilds the costmap when zone files in the zones directory
// change. Events are debounced so a burst of writes triggers one rebuild.
func watchZones(s *planServer, logger golog.Logger) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating zones watcher")
	}
	if err := watcher.Add(s.zonesDir); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "watching %s", s.zonesDir)
	}

	go func() {
		debounce := time.NewTimer(rebuildDebounce)
		if !debounce.Stop() {
			<-debounce.C
		}
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !strings.EqualFold(filepath.Ext(event.Name), ".geojson") {
					continue
				}
				if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
					continue
				}
				logger.Infof("zone file changed: %s (%s)", filepath.Base(event.Name), event.Op)
				debounce.Reset(rebuildDebounce)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warnf("zones watcher error: %v", err)
			case <-debounce.C:
				if err := s.rebuild(); err != nil {
					logger.Errorf("rebuild after zone change failed: %v", err)
				}
			}
		}
	}()

	logger.Infof("👀 watching %s for zone changes", s.zonesDir)
	return watcher, nil
}
