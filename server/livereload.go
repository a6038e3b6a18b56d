package server

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"Musarty/core/session"
	"Musarty/logger"

	"github.com/fsnotify/fsnotify"
)

const reloadDebounce = 150 * time.Millisecond

// LiveReload tells every open page to reload when a file under the web
// directory changes.
type LiveReload struct {
	watcher *fsnotify.Watcher
	hub     *session.Hub
	done    chan struct{}
	once    sync.Once
}

// WatchWebDir watches dir and its subdirectories.
func WatchWebDir(dir string, hub *session.Hub) (*LiveReload, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, err
	}

	lr := &LiveReload{watcher: watcher, hub: hub, done: make(chan struct{})}
	go lr.loop()
	logger.Info("live reload enabled", logger.String("dir", dir))
	return lr, nil
}

func (lr *LiveReload) loop() {
	// A save usually produces several events; they are folded into one reload.
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case event, ok := <-lr.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					lr.watcher.Add(event.Name)
				}
			}
			timer.Reset(reloadDebounce)

		case <-timer.C:
			logger.Info("web assets changed, reloading pages", logger.Int("sessions", lr.hub.Count()))
			if err := lr.hub.Broadcast(session.MsgTypeReload, nil); err != nil {
				logger.Warn("reload broadcast failed", logger.ErrorField(err))
			}

		case err, ok := <-lr.watcher.Errors:
			if !ok {
				return
			}
			logger.Warn("watcher error", logger.ErrorField(err))

		case <-lr.done:
			return
		}
	}
}

// Close stops watching.
func (lr *LiveReload) Close() error {
	var err error
	lr.once.Do(func() {
		close(lr.done)
		err = lr.watcher.Close()
	})
	return err
}
