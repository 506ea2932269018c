package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ytakahashi/todo-list/internal/storage"
)

func seededStore(t *testing.T) *TaskStore {
	t.Helper()
	ctx := context.Background()

	s := newTestStore(t, storage.NewMemory())
	_, err := s.Add(ctx, "Pay rent", "2024-02-01")
	require.NoError(t, err)
	b, err := s.Add(ctx, "Call mom", "")
	require.NoError(t, err)
	_, err = s.ToggleComplete(ctx, b.ID)
	require.NoError(t, err)
	return s
}

func TestExport_Shape(t *testing.T) {
	s := seededStore(t)

	out, err := s.Export()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), "[\n  {"), "export should be indented")

	var raw []map[string]any
	require.NoError(t, json.Unmarshal(out, &raw))
	require.Len(t, raw, 2)
	for _, obj := range raw {
		assert.Len(t, obj, 5)
		for _, key := range []string{"id", "title", "dueDate", "completed", "createdAt"} {
			assert.Contains(t, obj, key)
		}
	}
	assert.Equal(t, "", raw[1]["dueDate"])
	assert.Equal(t, true, raw[1]["completed"])
}

func TestExport_IgnoresFilter(t *testing.T) {
	s := seededStore(t)
	_, err := s.SetFilter("completed")
	require.NoError(t, err)

	out, err := s.Export()
	require.NoError(t, err)

	var tasks []Task
	require.NoError(t, json.Unmarshal(out, &tasks))
	assert.Len(t, tasks, 2)
}

func TestExport_Empty(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())

	out, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestImport_RoundTripDoubles(t *testing.T) {
	ctx := context.Background()
	s := seededStore(t)
	originals := s.Tasks()

	out, err := s.Export()
	require.NoError(t, err)

	n, err := s.Import(ctx, out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	tasks := s.Tasks()
	require.Len(t, tasks, 4)
	assert.Equal(t, originals, tasks[:2])

	seen := map[string]bool{}
	for _, task := range tasks {
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
	for i, dup := range tasks[2:] {
		orig := originals[i]
		assert.NotEqual(t, orig.ID, dup.ID)
		dup.ID = orig.ID
		assert.Equal(t, orig, dup)
	}
}

func TestImport_Defaults(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())

	payload := `[
		{"id": "keep", "title": "Kept", "dueDate": "2024-05-01", "completed": true, "createdAt": "2020-01-01T00:00:00.000Z", "extra": 1},
		{},
		{"title": "", "dueDate": null, "completed": 0},
		{"title": "   ", "completed": "yes"},
		{"title": "Numbers", "completed": 1, "dueDate": "05/01/2024"},
		{"id": 7, "title": 42, "completed": []},
		{"id": "", "completed": ""}
	]`

	n, err := s.Import(ctx, []byte(payload))
	require.NoError(t, err)
	assert.Equal(t, 7, n)

	tasks := s.Tasks()
	require.Len(t, tasks, 7)

	assert.Equal(t, Task{
		ID: "keep", Title: "Kept", DueDate: "2024-05-01", Completed: true, CreatedAt: "2020-01-01T00:00:00.000Z",
	}, tasks[0])

	importedAt := "2024-01-01T00:01:00.000Z"
	for _, task := range tasks[1:] {
		assert.NotEmpty(t, task.ID)
		assert.Equal(t, importedAt, task.CreatedAt)
	}

	assert.Equal(t, "Untitled", tasks[1].Title)
	assert.False(t, tasks[1].Completed)
	assert.Equal(t, "", tasks[1].DueDate)

	assert.Equal(t, "Untitled", tasks[2].Title)
	assert.False(t, tasks[2].Completed)

	assert.Equal(t, "Untitled", tasks[3].Title)
	assert.True(t, tasks[3].Completed)

	assert.Equal(t, "Numbers", tasks[4].Title)
	assert.True(t, tasks[4].Completed)
	assert.Equal(t, "", tasks[4].DueDate)

	assert.Equal(t, "Untitled", tasks[5].Title)
	assert.True(t, tasks[5].Completed)

	assert.False(t, tasks[6].Completed)
}

func TestImport_CollisionsWithinPayload(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, storage.NewMemory())
	existing, err := s.Add(ctx, "existing", "")
	require.NoError(t, err)

	payload := `[
		{"id": "x", "title": "first x"},
		{"id": "x", "title": "second x"},
		{"id": "` + existing.ID + `", "title": "clash"},
		{"id": "id-3", "title": "claims a future generated id"}
	]`

	_, err = s.Import(ctx, []byte(payload))
	require.NoError(t, err)

	tasks := s.Tasks()
	require.Len(t, tasks, 5)
	assert.Equal(t, "x", tasks[1].ID)
	assert.NotEqual(t, "x", tasks[2].ID)
	assert.NotEqual(t, existing.ID, tasks[3].ID)
	assert.Equal(t, existing.ID, tasks[0].ID)

	seen := map[string]bool{}
	for _, task := range tasks {
		assert.False(t, seen[task.ID], "duplicate id %s", task.ID)
		seen[task.ID] = true
	}
}

func TestImport_FormatErrors(t *testing.T) {
	ctx := context.Background()

	for _, payload := range []string{
		``,
		`not json`,
		`{"id": "a"}`,
		`"text"`,
		`null`,
		`[1, 2]`,
		`[{"title": "ok"}, null]`,
		`[{"title": "a"}] [{"title": "b"}]`,
	} {
		kv := storage.NewMemory()
		s := newTestStore(t, kv)
		_, err := s.Add(ctx, "existing", "")
		require.NoError(t, err)
		before := s.Tasks()
		saved, _, _ := kv.Get(ctx, DefaultStorageKey)

		n, err := s.Import(ctx, []byte(payload))
		assert.ErrorIs(t, err, ErrInvalidFormat, "payload %q", payload)
		assert.NotEmpty(t, err.Error())
		assert.Equal(t, 0, n)
		assert.Equal(t, before, s.Tasks())

		after, _, _ := kv.Get(ctx, DefaultStorageKey)
		assert.Equal(t, saved, after)
	}
}

func TestImport_EmptyArray(t *testing.T) {
	s := seededStore(t)

	n, err := s.Import(context.Background(), []byte(`[]`))
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Len(t, s.Tasks(), 2)
}

func TestImportFrom(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())

	n, err := s.ImportFrom(context.Background(), strings.NewReader(`[{"title": "from file"}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "from file", s.Tasks()[0].Title)
}

type blockingReader struct{ release chan struct{} }

func (r blockingReader) Read(p []byte) (int, error) {
	<-r.release
	return 0, io.EOF
}

func TestImportFrom_CancelledBeforeReadCompletes(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())

	r := blockingReader{release: make(chan struct{})}
	defer close(r.release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	n, err := s.ImportFrom(ctx, r)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, n)
	assert.Empty(t, s.Tasks())
}

type errReader struct{}

func (errReader) Read(p []byte) (int, error) {
	return 0, errors.New("disk gone")
}

func TestImportFrom_ReadError(t *testing.T) {
	s := newTestStore(t, storage.NewMemory())

	_, err := s.ImportFrom(context.Background(), errReader{})
	assert.Error(t, err)
	assert.Empty(t, s.Tasks())
}
