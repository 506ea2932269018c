package storage

import (
	"context"
	"fmt"

	"github.com/ytakahashi/todo-list/internal/config"
)

// Open builds the KV store named by cfg.Backend.
func Open(ctx context.Context, cfg config.Config) (KV, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return NewMemory(), nil
	case config.BackendFile:
		f, err := NewFile(cfg.DataDir)
		if err != nil {
			return nil, err
		}
		return f, nil
	case config.BackendFirestore:
		fs, err := NewFirestore(ctx, cfg.GoogleCloudProject, cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.BackendPostgres:
		pg, err := NewPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
