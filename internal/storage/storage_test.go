package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytakahashi/todo-list/internal/config"
)

func testKV(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, ok, err := kv.Get(ctx, "todo.tasks.v1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.Set(ctx, "todo.tasks.v1", `[{"id":"a"}]`))
	got, ok, err := kv.Get(ctx, "todo.tasks.v1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":"a"}]`, got)

	require.NoError(t, kv.Set(ctx, "todo.tasks.v1", `[]`))
	got, _, err = kv.Get(ctx, "todo.tasks.v1")
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)

	require.NoError(t, kv.Set(ctx, "other", ""))
	got, ok, err = kv.Get(ctx, "other")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", got)

	assert.NoError(t, kv.Close())
}

func TestMemory(t *testing.T) {
	testKV(t, NewMemory())
}

func TestFile(t *testing.T) {
	dir := t.TempDir()
	f, err := NewFile(dir)
	require.NoError(t, err)

	testKV(t, f)

	_, err = os.Stat(filepath.Join(dir, "todo.tasks.v1.json"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "todo.tasks.v1.json.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestFile_RejectsPathKeys(t *testing.T) {
	f, err := NewFile(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		assert.Error(t, f.Set(context.Background(), key, "x"), "key %q", key)
		_, _, err := f.Get(context.Background(), key)
		assert.Error(t, err, "key %q", key)
	}
}

func TestFile_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	f, err := NewFile(dir)
	require.NoError(t, err)
	require.NoError(t, f.Set(ctx, "k", "v"))

	reopened, err := NewFile(dir)
	require.NoError(t, err)
	got, ok, err := reopened.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	kv, err := Open(ctx, config.Config{Backend: config.BackendMemory})
	require.NoError(t, err)
	assert.IsType(t, &Memory{}, kv)

	kv, err = Open(ctx, config.Config{Backend: config.BackendFile, DataDir: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &File{}, kv)

	_, err = Open(ctx, config.Config{Backend: "redis"})
	assert.Error(t, err)
}
