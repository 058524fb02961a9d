package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/arborworks/arbor/pkg/domain"
	"github.com/arborworks/arbor/pkg/schema"
)

// yamlExtensions are the file suffixes the loader recognizes as documents.
var yamlExtensions = []string{".yaml", ".yml"}

// Loader implements ports.DefinitionLoader over a directory of YAML files.
// Document names map to file names without the extension, so "chat-turn"
// resolves to chat-turn.yaml (or .yml). Files are re-read on every Load,
// which keeps the loader stateless and makes edits visible immediately.
type Loader struct {
	dir      string
	debounce time.Duration
}

// LoaderOption configures a file loader.
type LoaderOption func(*Loader)

// WithDebounce sets the quiet period applied to filesystem events before a
// reload signal fires. Editors often write a file several times in a burst.
func WithDebounce(d time.Duration) LoaderOption {
	return func(l *Loader) {
		l.debounce = d
	}
}

// NewLoader creates a loader rooted at dir. The directory must exist.
func NewLoader(dir string, opts ...LoaderOption) (*Loader, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("definition directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("definition directory: %s is not a directory", dir)
	}

	l := &Loader{dir: dir, debounce: 200 * time.Millisecond}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Load retrieves a document by name.
func (l *Loader) Load(ctx context.Context, name string) (*schema.Document, error) {
	if strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, name)
	}

	for _, ext := range yamlExtensions {
		path := filepath.Join(l.dir, name+ext)
		raw, err := os.ReadFile(path)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}

		doc, err := schema.ParseDocument(raw)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
		if doc.Name != name {
			return nil, fmt.Errorf("parsing %s: document name %q does not match file name %q", path, doc.Name, name)
		}
		return doc, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrDefinitionNotFound, name)
}

// List returns the names of all YAML documents in the directory.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", l.dir, err)
	}

	seen := make(map[string]bool)
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isYAMLExt(ext) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if seen[name] {
			return nil, fmt.Errorf("collision detected: %q is defined with more than one extension", name)
		}
		seen[name] = true
		names = append(names, name)
	}

	sort.Strings(names)
	return names, nil
}

// Watch implements ports.Watchable. It signals once per debounced burst of
// changes to YAML files under the directory. The channel closes when the
// context is canceled.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start watcher: %w", err)
	}
	if err := watcher.Add(l.dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", l.dir, err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		defer watcher.Close()

		var timer *time.Timer
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()

		var fire <-chan time.Time
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !isYAMLExt(filepath.Ext(evt.Name)) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(l.debounce)
				} else {
					timer.Reset(l.debounce)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				select {
				case ch <- struct{}{}:
				default: // A signal is already pending.
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				_ = err // Transient watch errors are not actionable here.
			}
		}
	}()

	return ch, nil
}

func isYAMLExt(ext string) bool {
	for _, e := range yamlExtensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}
