package transcript

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "maxwell", "maxwell"},
		{"uppercase", "Maxwell Deposition", "maxwell-deposition"},
		{"underscores", "jan6_klukowski", "jan6-klukowski"},
		{"special chars stripped", "Deposition (Vol. 2)!", "deposition-vol-2"},
		{"empty string", "", ""},
		{"only special chars", "!@#$%", ""},
		{"leading trailing trimmed", " padded ", "padded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.in); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// fakeExtractor writes fixed text instead of shelling out to pdftotext.
type fakeExtractor struct {
	text string
	err  error
}

func (f fakeExtractor) Extract(_ context.Context, _, txtPath string) error {
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(txtPath, []byte(f.text), 0644)
}

func newTestStore(t *testing.T, extractor Extractor) *Store {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	store, err := NewStore(t.TempDir(), extractor, logger)
	require.NoError(t, err)
	return store
}

func TestStoreListAndLoad(t *testing.T) {
	store := newTestStore(t, nil)

	require.NoError(t, os.WriteFile(filepath.Join(store.DataDir(), "maxwell.txt"), []byte("deposition text"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(store.DataDir(), "klukowski.txt"), []byte("second text"), 0644))
	// Non-txt files are not collections.
	require.NoError(t, os.WriteFile(filepath.Join(store.DataDir(), "maxwell.pdf"), []byte("%PDF"), 0644))

	collections, err := store.List()
	require.NoError(t, err)
	require.Len(t, collections, 2)
	assert.Equal(t, "klukowski", collections[0].Name)
	assert.Equal(t, "maxwell", collections[1].Name)

	text, err := store.Load("maxwell")
	require.NoError(t, err)
	assert.Equal(t, "deposition text", text)
}

func TestStoreLoadMissing(t *testing.T) {
	store := newTestStore(t, nil)
	_, err := store.Load("nope")
	assert.Error(t, err)
}

func TestStoreCreateFromPDF(t *testing.T) {
	store := newTestStore(t, fakeExtractor{text: "extracted deposition"})

	col, err := store.CreateFromPDF(context.Background(), "Maxwell Deposition", []byte("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, "maxwell-deposition", col.Name)

	text, err := store.Load("maxwell-deposition")
	require.NoError(t, err)
	assert.Equal(t, "extracted deposition", text)

	// The uploaded PDF is kept next to the text file.
	_, err = os.Stat(filepath.Join(store.DataDir(), "maxwell-deposition.pdf"))
	assert.NoError(t, err)
}

func TestStoreCreateFromPDFExtractFails(t *testing.T) {
	store := newTestStore(t, fakeExtractor{err: errors.New("garbled pdf")})

	_, err := store.CreateFromPDF(context.Background(), "broken", []byte("%PDF"))
	require.Error(t, err)

	// No half-created collection appears in listings.
	collections, err := store.List()
	require.NoError(t, err)
	assert.Empty(t, collections)
}

func TestStoreCreateFromPDFInvalidName(t *testing.T) {
	store := newTestStore(t, fakeExtractor{text: "x"})
	_, err := store.CreateFromPDF(context.Background(), "!!!", []byte("%PDF"))
	assert.Error(t, err)
}
