package reports

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingExtractor struct{}

func (failingExtractor) ExtractText(data []byte, hint string) (string, error) {
	return "", errors.New("unreadable stream")
}

func newTestStore(t *testing.T, onChange func()) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), PlainTextExtractor{}, zerolog.Nop(), onChange)
	require.NoError(t, err)
	return s
}

func TestIngestRoundTrip(t *testing.T) {
	rebuilds := 0
	s := newTestStore(t, func() { rebuilds++ })

	res, err := s.Ingest("notes.txt", []byte("patient reports mild chest discomfort"))
	require.NoError(t, err)
	assert.Equal(t, "processed", res.Status)
	assert.True(t, strings.HasPrefix(res.ID, "report_"), "id %q", res.ID)
	assert.Len(t, strings.TrimPrefix(res.ID, "report_"), 8)
	assert.Equal(t, 5, res.WordCount)
	assert.Equal(t, 1, rebuilds)

	text, ok := s.GetText(res.ID)
	require.True(t, ok)
	assert.Equal(t, "patient reports mild chest discomfort", text)
}

func TestListOmitsBodies(t *testing.T) {
	s := newTestStore(t, nil)
	_, err := s.Ingest("a.txt", []byte("alpha beta"))
	require.NoError(t, err)

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "a.txt", list[0].Filename)
	assert.Equal(t, ".txt", list[0].Extension)
	assert.Equal(t, 2, list[0].WordCount)
}

func TestDeleteRemovesMetadataAndRawFile(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, PlainTextExtractor{}, zerolog.Nop(), nil)
	require.NoError(t, err)

	res, err := s.Ingest("b.txt", []byte("some text"))
	require.NoError(t, err)

	rawPath := filepath.Join(dir, res.ID+".txt")
	_, statErr := os.Stat(rawPath)
	require.NoError(t, statErr)

	existed, err := s.Delete(res.ID)
	require.NoError(t, err)
	assert.True(t, existed)

	_, ok := s.GetText(res.ID)
	assert.False(t, ok)
	_, statErr = os.Stat(rawPath)
	assert.True(t, os.IsNotExist(statErr))

	// second delete is a no-op
	existed, err = s.Delete(res.ID)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestExtractionFailureStillIndexed(t *testing.T) {
	s, err := NewStore(t.TempDir(), failingExtractor{}, zerolog.Nop(), nil)
	require.NoError(t, err)

	res, err := s.Ingest("scan.pdf", []byte{0x25, 0x50, 0x44, 0x46})
	require.NoError(t, err)
	assert.Equal(t, "processed", res.Status)

	text, ok := s.GetText(res.ID)
	require.True(t, ok)
	assert.Contains(t, text, "[extraction error:")
	assert.Contains(t, text, "unreadable stream")
}

func TestIndexPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir, PlainTextExtractor{}, zerolog.Nop(), nil)
	require.NoError(t, err)
	res, err := s.Ingest("c.txt", []byte("persisted content"))
	require.NoError(t, err)

	reopened, err := NewStore(dir, PlainTextExtractor{}, zerolog.Nop(), nil)
	require.NoError(t, err)
	text, ok := reopened.GetText(res.ID)
	require.True(t, ok)
	assert.Equal(t, "persisted content", text)
}

func TestPlainTextExtractorFallsBackToLatin1(t *testing.T) {
	text, err := PlainTextExtractor{}.ExtractText([]byte{0xe9, 0x74, 0xe9}, ".txt")
	require.NoError(t, err)
	assert.Equal(t, "été", text)
}

func TestPlainTextExtractorRejectsBinaryFormats(t *testing.T) {
	_, err := PlainTextExtractor{}.ExtractText([]byte("x"), ".pdf")
	assert.Error(t, err)
}
