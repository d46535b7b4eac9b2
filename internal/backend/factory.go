package backend

import (
	"context"
	"errors"
	"fmt"

	"walletgenie/internal/amqp"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/storage"
	"walletgenie/internal/store"
	"walletgenie/internal/store/memory"
)

type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

func (f *DefaultFactory) CreateBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var (
		result *BackendResult
		err    error
	)
	switch cfg.Type {
	case SQLiteBackend:
		result, err = f.createSQLiteBackend(ctx, cfg)
	case MemoryBackend:
		result = f.createMemoryBackend(cfg)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.Type)
	}
	if err != nil {
		return nil, err
	}

	f.attachPublisher(cfg, result)
	return result, nil
}

func (f *DefaultFactory) createSQLiteBackend(ctx context.Context, cfg Config) (*BackendResult, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	if err := seedIfEmpty(ctx, repo, cfg.DataDirectory, cfg.SeedUser); err != nil {
		f.logger.Warn("Failed to seed categories", log.FieldUserID, cfg.SeedUser, log.FieldError, err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", cfg.SQLiteDBPath)
	return &BackendResult{Store: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryBackend(cfg Config) *BackendResult {
	dataDir := cfg.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}
	st := memory.NewFromFiles(dataDir, cfg.SeedUser)

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)
	return &BackendResult{Store: st}
}

// attachPublisher connects to the broker when configured. A broker that is
// down at startup disables publishing instead of failing the backend.
func (f *DefaultFactory) attachPublisher(cfg Config, result *BackendResult) {
	if cfg.AMQPURL == "" {
		return
	}
	client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		f.logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		return
	}
	f.logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	result.Publisher = client
	storeCleanup := result.Cleanup
	result.Cleanup = func() error {
		errs := []error{client.Close()}
		if storeCleanup != nil {
			errs = append(errs, storeCleanup())
		}
		return errors.Join(errs...)
	}
}

// seedIfEmpty gives user the seed categories when they have none of either
// kind.
func seedIfEmpty(ctx context.Context, st store.CategoryRepository, dataDir, user string) error {
	if user == "" || dataDir == "" {
		return nil
	}
	current, err := st.ListCategories(ctx, user)
	if err != nil {
		return err
	}
	if len(current.Expense) > 0 || len(current.Income) > 0 {
		return nil
	}
	exp, inc := memory.SeedCategories(dataDir)
	for _, seed := range []struct {
		kind  core.Kind
		names []string
	}{{core.Expense, exp}, {core.Income, inc}} {
		for _, name := range seed.names {
			if err := st.AddCategory(ctx, user, seed.kind, name); err != nil && !errors.Is(err, core.ErrAlreadyExists) {
				return fmt.Errorf("seed %s %q: %w", seed.kind, name, err)
			}
		}
	}
	return nil
}
