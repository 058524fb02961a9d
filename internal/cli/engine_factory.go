package cli

import (
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"

	backend "github.com/redis/go-redis/v9"

	"github.com/arborworks/arbor"
	fileAdapter "github.com/arborworks/arbor/pkg/adapters/file"
	redisAdapter "github.com/arborworks/arbor/pkg/adapters/redis"
)

// createEngine initializes an arbor engine with standard CLI conventions.
// Extra options (lifecycle hooks from the presentation layer) are appended
// after the factory defaults so they can override them.
func createEngine(opts RunOptions, logger *slog.Logger, extra ...arbor.Option) (*arbor.Engine, error) {
	engineOpts := []arbor.Option{arbor.WithLogger(logger)}

	if opts.Debug {
		engineOpts = append(engineOpts, arbor.WithLifecycleHooks(createDebugHooks(logger)))
	}

	storeOpts, err := StoreOptions(opts)
	if err != nil {
		return nil, err
	}
	engineOpts = append(engineOpts, storeOpts...)
	engineOpts = append(engineOpts, extra...)

	engine, err := arbor.New(opts.Dir, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	return engine, nil
}

// StoreOptions wires run record persistence. Redis wins when both backends
// are configured because it also provides the distributed lock.
func StoreOptions(opts RunOptions) ([]arbor.Option, error) {
	if opts.RedisURL != "" {
		client, err := redisClient(opts.RedisURL)
		if err != nil {
			return nil, err
		}
		return []arbor.Option{
			arbor.WithRunStore(redisAdapter.NewFromClient(client)),
			arbor.WithDistributedLocker(redisAdapter.NewLocker(client, "arbor:run:")),
		}, nil
	}

	if opts.StoreDir != "" {
		store, err := fileAdapter.NewStore(opts.StoreDir)
		if err != nil {
			return nil, err
		}
		return []arbor.Option{arbor.WithRunStore(store)}, nil
	}

	return nil, nil
}

// redisClient parses redis://[:password@]host:port[/db] into a client.
func redisClient(rawURL string) (*backend.Client, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "redis://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	password, _ := u.User.Password()
	db := 0
	if path := strings.TrimPrefix(u.Path, "/"); path != "" {
		db, err = strconv.Atoi(path)
		if err != nil {
			return nil, fmt.Errorf("invalid redis database in URL %q: %w", rawURL, err)
		}
	}

	return backend.NewClient(&backend.Options{
		Addr:     u.Host,
		Password: password,
		DB:       db,
	}), nil
}

// DefaultStoreDir returns the conventional run record location for a
// definitions directory.
func DefaultStoreDir(dir string) string {
	return filepath.Join(dir, ".arbor", "runs")
}
