package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ytakahashi/todo-list/internal/config"
	"github.com/ytakahashi/todo-list/internal/services"
	"github.com/ytakahashi/todo-list/internal/storage"
)

var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "todo",
		Short:         "Manage the task list from the command line",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(addCmd())
	rootCmd.AddCommand(toggleCmd())
	rootCmd.AddCommand(editCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(clearCompletedCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(importCmd())

	return rootCmd
}

// withStore opens the configured backend, loads the task list and runs fn.
func withStore(ctx context.Context, fn func(*services.TaskStore) error) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	kv, err := storage.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer kv.Close()

	store := services.NewTaskStore(kv, services.WithKey(cfg.StorageKey))
	store.Load(ctx)
	return fn(store)
}
