// Package reports handles ingestion of user medical reports: text
// extraction dispatch, raw-file persistence, and the metadata index that
// feeds the retrieval corpus.
package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const indexFile = "reports_index.json"

// Record is the persisted metadata for one ingested report.
type Record struct {
	ID            string    `json:"id"`
	Filename      string    `json:"filename"`
	Extension     string    `json:"file_type"`
	UploadedAt    time.Time `json:"uploaded_at"`
	ExtractedText string    `json:"extracted_text"`
	CharCount     int       `json:"char_count"`
	WordCount     int       `json:"word_count"`
}

// Summary is the body-free view returned by List.
type Summary struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	Extension  string    `json:"file_type"`
	UploadedAt time.Time `json:"uploaded_at"`
	WordCount  int       `json:"word_count"`
}

// IngestResult is returned to the uploader.
type IngestResult struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	CharCount int    `json:"char_count"`
	WordCount int    `json:"word_count"`
	Status    string `json:"status"`
}

// Store persists report raw bytes and metadata under one directory. Writers
// serialize among themselves; the onChange hook fires after every mutation
// so the retrieval index can rebuild.
type Store struct {
	dir       string
	extractor Extractor
	log       zerolog.Logger
	onChange  func()

	mu      sync.Mutex
	records []Record
}

// NewStore opens (or creates) the report directory and loads the existing
// index. onChange may be nil.
func NewStore(dir string, extractor Extractor, log zerolog.Logger, onChange func()) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	s := &Store{dir: dir, extractor: extractor, log: log, onChange: onChange}

	raw, err := os.ReadFile(filepath.Join(dir, indexFile))
	if err == nil {
		if err := json.Unmarshal(raw, &s.records); err != nil {
			return nil, fmt.Errorf("parse %s: %w", indexFile, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("read %s: %w", indexFile, err)
	}
	return s, nil
}

// Ingest extracts text from an upload, persists the raw bytes and metadata,
// and triggers an index rebuild. Extraction failures do not fail the ingest:
// the record carries a machine-readable placeholder so retrieval can surface
// the failure later.
func (s *Store) Ingest(filename string, data []byte) (IngestResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))

	text, err := s.extractor.ExtractText(data, ext)
	if err != nil {
		text = fmt.Sprintf("[extraction error: %v]", err)
		s.log.Warn().Err(err).Str("filename", filename).Msg("text extraction failed, indexing placeholder")
	}

	rec := Record{
		ID:            "report_" + uuid.New().String()[:8],
		Filename:      filename,
		Extension:     ext,
		UploadedAt:    time.Now().UTC(),
		ExtractedText: text,
		CharCount:     len(text),
		WordCount:     len(strings.Fields(text)),
	}

	s.mu.Lock()
	rawPath := filepath.Join(s.dir, rec.ID+ext)
	if err := os.WriteFile(rawPath, data, 0o644); err != nil {
		s.mu.Unlock()
		return IngestResult{}, fmt.Errorf("write raw report: %w", err)
	}

	s.records = append(s.records, rec)
	if err := s.saveIndexLocked(); err != nil {
		s.mu.Unlock()
		return IngestResult{}, err
	}
	s.mu.Unlock()

	s.log.Info().
		Str("id", rec.ID).
		Str("filename", filename).
		Int("chars", rec.CharCount).
		Msg("report ingested")

	s.notify()
	return IngestResult{
		ID:        rec.ID,
		Filename:  rec.Filename,
		CharCount: rec.CharCount,
		WordCount: rec.WordCount,
		Status:    "processed",
	}, nil
}

// List returns metadata for all reports, without bodies.
func (s *Store) List() []Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Summary, len(s.records))
	for i, r := range s.records {
		out[i] = Summary{
			ID:         r.ID,
			Filename:   r.Filename,
			Extension:  r.Extension,
			UploadedAt: r.UploadedAt,
			WordCount:  r.WordCount,
		}
	}
	return out
}

// All returns full records, extracted text included, for corpus assembly.
func (s *Store) All() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Record, len(s.records))
	copy(out, s.records)
	return out
}

// GetText returns the extracted text of one report.
func (s *Store) GetText(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.records {
		if r.ID == id {
			return r.ExtractedText, true
		}
	}
	return "", false
}

// Delete removes the metadata entry and the raw file, then triggers a
// rebuild. It reports whether the record existed.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	idx := -1
	for i, r := range s.records {
		if r.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return false, nil
	}

	rec := s.records[idx]
	s.records = append(s.records[:idx], s.records[idx+1:]...)
	if err := s.saveIndexLocked(); err != nil {
		s.mu.Unlock()
		return false, err
	}

	rawPath := filepath.Join(s.dir, rec.ID+rec.Extension)
	if err := os.Remove(rawPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Str("id", id).Msg("failed to remove raw report file")
	}
	s.mu.Unlock()

	s.log.Info().Str("id", id).Msg("report deleted")
	s.notify()
	return true, nil
}

func (s *Store) saveIndexLocked() error {
	raw, err := json.MarshalIndent(s.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode reports index: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, indexFile), raw, 0o644); err != nil {
		return fmt.Errorf("write reports index: %w", err)
	}
	return nil
}

func (s *Store) notify() {
	if s.onChange != nil {
		s.onChange()
	}
}
