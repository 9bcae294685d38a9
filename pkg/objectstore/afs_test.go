package objectstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"curriculum-rag-be/internal/pkg/apperror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfsStore(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.pdf"), []byte("%PDF-b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty.txt"), nil, 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive"), 0o755))

	store := NewAfsStore("file://" + dir)
	ctx := context.Background()

	list, err := store.List(ctx)
	require.NoError(t, err)
	var names []string
	for _, o := range list {
		names = append(names, o.Name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.txt", "b.pdf", "empty.txt"}, names)

	data, err := store.Download(ctx, "b.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-b"), data)

	_, err = store.Download(ctx, "missing.pdf")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))

	_, err = store.Download(ctx, "empty.txt")
	assert.True(t, errors.Is(err, apperror.ErrEmptyPayload))
}
