package framesource

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, dir, name string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte{0xFF, 0xD8, 0xFF}, 0o644))
}

func TestImageDirSourceSuppliesFramesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "b.jpg")
	writeImage(t, dir, "a.jpg")
	writeImage(t, dir, "notes.txt")

	src, err := NewImageDirSource(dir)
	require.NoError(t, err)
	defer src.Close()
	assert.Equal(t, 2, src.Len())

	ctx := context.Background()

	f0, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, f0.Index)
	assert.Equal(t, filepath.Join(dir, "a.jpg"), f0.Path)
	assert.NotEmpty(t, f0.Data)

	f1, err := src.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, f1.Index)
	assert.Equal(t, filepath.Join(dir, "b.jpg"), f1.Path)

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestImageDirSourceEmptyDirErrors(t *testing.T) {
	_, err := NewImageDirSource(t.TempDir())
	assert.Error(t, err)
}

func TestImageDirSourceHonorsCancellation(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.jpg")

	src, err := NewImageDirSource(dir)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = src.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestImageDirSourceCloseExhausts(t *testing.T) {
	dir := t.TempDir()
	writeImage(t, dir, "a.jpg")

	src, err := NewImageDirSource(dir)
	require.NoError(t, err)
	require.NoError(t, src.Close())

	_, err = src.Next(context.Background())
	assert.ErrorIs(t, err, ErrExhausted)
}
