package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/srseducares/educares-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStore(t *testing.T) *LocalStore {
	store, err := NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestLocalStoreSaveAndOpen(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	content := "%PDF-1.4 fake pdf body"
	stored, err := store.Save(ctx, strings.NewReader(content), "Physics Notes (Unit 1).pdf", int64(len(content)), "application/pdf")
	require.NoError(t, err)

	assert.Equal(t, "Physics Notes (Unit 1).pdf", stored.OriginalName)
	assert.Equal(t, int64(len(content)), stored.Size)
	// 清洗后的主名 + 时间戳 + 随机后缀
	assert.Regexp(t, `^Physics_Notes__Unit_1__\d+-\d+\.pdf$`, stored.Path)
	assert.True(t, store.Exists(ctx, stored.Path))

	r, size, err := store.Open(ctx, stored.Path)
	require.NoError(t, err)
	defer r.Close()
	assert.Equal(t, int64(len(content)), size)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, string(data))
}

func TestLocalStoreRejectsNonPDF(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, strings.NewReader("x"), "notes.docx", 1, "application/msword")
	assert.ErrorIs(t, err, ErrRejectedType)

	_, err = store.Save(ctx, strings.NewReader("x"), "notes.pdf", 1, "image/png")
	assert.ErrorIs(t, err, ErrRejectedType)
}

func TestLocalStoreRejectsOversize(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	_, err := store.Save(ctx, strings.NewReader("x"), "big.pdf", models.MaxFileSize+1, "application/pdf")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStoreRejectsOversizeStream(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	// 声明大小合法，但实际内容超限
	oversized := io.LimitReader(infiniteReader{}, models.MaxFileSize+100)
	_, err := store.Save(ctx, oversized, "big.pdf", 1024, "application/pdf")
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestLocalStoreRemove(t *testing.T) {
	store := newLocalStore(t)
	ctx := context.Background()

	stored, err := store.Save(ctx, strings.NewReader("body"), "a.pdf", 4, "application/pdf")
	require.NoError(t, err)

	require.NoError(t, store.Remove(ctx, stored.Path))
	assert.False(t, store.Exists(ctx, stored.Path))

	// 已删除再删不报错
	assert.NoError(t, store.Remove(ctx, stored.Path))

	_, _, err = store.Open(ctx, stored.Path)
	assert.ErrorIs(t, err, ErrNotFound)
}

type infiniteReader struct{}

func (infiniteReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = 'a'
	}
	return len(p), nil
}
