package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Ananth-NQI/carnego-backend/internal/negotiation"
)

// ParsePolicy decodes a YAML pricing policy. Keys left out keep their default values.
func ParsePolicy(data []byte) (negotiation.Policy, error) {
	p := negotiation.DefaultPolicy()
	if len(bytes.TrimSpace(data)) == 0 {
		return p, nil
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return negotiation.Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	if err := p.Validate(); err != nil {
		return negotiation.Policy{}, err
	}
	return p, nil
}

// LoadPolicy reads a pricing policy file. An empty path means the defaults.
func LoadPolicy(path string) (negotiation.Policy, error) {
	if path == "" {
		return negotiation.DefaultPolicy(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return negotiation.Policy{}, fmt.Errorf("read policy %s: %w", path, err)
	}
	return ParsePolicy(data)
}

const policyDebounce = 250 * time.Millisecond

// WatchPolicy reloads the policy file whenever it changes and hands each valid policy to apply.
// Invalid edits are logged and skipped; the previous policy stays in force.
// It blocks until ctx is cancelled.
func WatchPolicy(ctx context.Context, path string, logger *zap.Logger, apply func(negotiation.Policy)) error {
	if path == "" {
		return errors.New("watch policy: empty path")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("watch policy: %w", err)
	}
	defer watcher.Close()

	// Watch the directory: editors replace files by rename, which drops a file watch
	dir, name := filepath.Split(filepath.Clean(path))
	if dir == "" {
		dir = "."
	}
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch policy dir %s: %w", dir, err)
	}

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(policyDebounce)
			} else {
				timer.Reset(policyDebounce)
			}
			fire = timer.C

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("policy watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			p, err := LoadPolicy(path)
			if err != nil {
				logger.Warn("policy reload rejected", zap.String("path", path), zap.Error(err))
				continue
			}
			logger.Info("policy reloaded", zap.String("path", path))
			apply(p)
		}
	}
}
