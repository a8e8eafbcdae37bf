// Package hospital is the local anonymized consultation store. It holds no
// raw symptoms or identifiers: consultations store a hash prefix of the
// symptoms in place of the text, plus category, severity, and the council
// summary.
package hospital

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS medical_records (
    id TEXT PRIMARY KEY,
    record_type TEXT NOT NULL,
    category TEXT,
    severity TEXT,
    symptoms_hash TEXT,
    council_summary TEXT,
    confidence REAL,
    timestamp TEXT NOT NULL,
    metadata TEXT
);

CREATE TABLE IF NOT EXISTS report_embeddings (
    id TEXT PRIMARY KEY,
    report_id TEXT NOT NULL,
    chunk_index INTEGER NOT NULL,
    chunk_text TEXT NOT NULL,
    embedding_vector BLOB,
    timestamp TEXT NOT NULL,
    FOREIGN KEY (report_id) REFERENCES medical_records(id)
);

CREATE TABLE IF NOT EXISTS federated_contributions (
    id TEXT PRIMARY KEY,
    record_id TEXT,
    gradient_hash TEXT,
    dp_noise_level REAL,
    contributed_at TEXT NOT NULL,
    aggregation_round INTEGER,
    status TEXT DEFAULT 'pending',
    FOREIGN KEY (record_id) REFERENCES medical_records(id)
);

CREATE INDEX IF NOT EXISTS idx_records_category ON medical_records(category);
CREATE INDEX IF NOT EXISTS idx_records_timestamp ON medical_records(timestamp);
CREATE INDEX IF NOT EXISTS idx_contributions_status ON federated_contributions(status);
`

// Record is one row of medical_records.
type Record struct {
	ID             string          `json:"id"`
	RecordType     string          `json:"record_type"`
	Category       string          `json:"category"`
	Severity       string          `json:"severity"`
	SymptomsHash   string          `json:"symptoms_hash"`
	CouncilSummary string          `json:"council_summary"`
	Confidence     float64         `json:"confidence"`
	Timestamp      string          `json:"timestamp"`
	Metadata       json.RawMessage `json:"metadata"`
}

// Stats summarizes store contents.
type Stats struct {
	TotalRecords        int `json:"total_records"`
	Consultations       int `json:"consultations"`
	Reports             int `json:"reports"`
	Contributions       int `json:"federated_contributions"`
	PendingAggregations int `json:"pending_aggregations"`
}

// Store wraps the SQLite database.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open creates the database file (and parent directory) if needed and
// applies the schema.
func Open(path string, log zerolog.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open hospital db: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY under concurrent handlers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init hospital schema: %w", err)
	}

	log.Info().Str("path", path).Msg("hospital store ready")
	return &Store{db: db, log: log}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// StoreConsultation persists one completed council consultation.
func (s *Store) StoreConsultation(category, severity, symptomsHash, councilSummary string, confidence float64, metadata map[string]any) (string, error) {
	id := "cons_" + uuid.New().String()[:8]
	meta, err := json.Marshal(orEmpty(metadata))
	if err != nil {
		return "", fmt.Errorf("encode consultation metadata: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO medical_records
		 (id, record_type, category, severity, symptoms_hash, council_summary, confidence, timestamp, metadata)
		 VALUES (?, 'consultation', ?, ?, ?, ?, ?, ?, ?)`,
		id, category, severity, symptomsHash, councilSummary, confidence,
		time.Now().UTC().Format(time.RFC3339), string(meta),
	)
	if err != nil {
		return "", fmt.Errorf("store consultation: %w", err)
	}
	return id, nil
}

// StoreReportRecord persists a record for an uploaded report.
func (s *Store) StoreReportRecord(reportID, category, summary string, metadata map[string]any) error {
	meta, err := json.Marshal(orEmpty(metadata))
	if err != nil {
		return fmt.Errorf("encode report metadata: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT OR REPLACE INTO medical_records
		 (id, record_type, category, severity, symptoms_hash, council_summary, confidence, timestamp, metadata)
		 VALUES (?, 'report', ?, 'n/a', '', ?, 0.0, ?, ?)`,
		reportID, category, summary,
		time.Now().UTC().Format(time.RFC3339), string(meta),
	)
	if err != nil {
		return fmt.Errorf("store report record: %w", err)
	}
	return nil
}

// LogContribution records one federated update for audit purposes. Only a
// gradient hash is stored, never the update itself.
func (s *Store) LogContribution(recordID, gradientHash string, noiseLevel float64, round int) (string, error) {
	id := "fed_" + uuid.New().String()[:8]
	_, err := s.db.Exec(
		`INSERT INTO federated_contributions
		 (id, record_id, gradient_hash, dp_noise_level, contributed_at, aggregation_round, status)
		 VALUES (?, ?, ?, ?, ?, ?, 'pending')`,
		id, recordID, gradientHash, noiseLevel,
		time.Now().UTC().Format(time.RFC3339), round,
	)
	if err != nil {
		return "", fmt.Errorf("log contribution: %w", err)
	}
	return id, nil
}

// Records returns medical records newest-first, optionally filtered by type.
func (s *Store) Records(recordType string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows *sql.Rows
	var err error
	if recordType != "" {
		rows, err = s.db.Query(
			`SELECT id, record_type, category, severity, symptoms_hash, council_summary, confidence, timestamp, metadata
			 FROM medical_records WHERE record_type = ? ORDER BY timestamp DESC LIMIT ?`,
			recordType, limit,
		)
	} else {
		rows, err = s.db.Query(
			`SELECT id, record_type, category, severity, symptoms_hash, council_summary, confidence, timestamp, metadata
			 FROM medical_records ORDER BY timestamp DESC LIMIT ?`,
			limit,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var meta string
		if err := rows.Scan(&r.ID, &r.RecordType, &r.Category, &r.Severity,
			&r.SymptomsHash, &r.CouncilSummary, &r.Confidence, &r.Timestamp, &meta); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		r.Metadata = json.RawMessage(meta)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Stats counts store contents.
func (s *Store) Stats() (Stats, error) {
	var st Stats
	queries := []struct {
		dst   *int
		query string
	}{
		{&st.TotalRecords, `SELECT COUNT(*) FROM medical_records`},
		{&st.Consultations, `SELECT COUNT(*) FROM medical_records WHERE record_type='consultation'`},
		{&st.Reports, `SELECT COUNT(*) FROM medical_records WHERE record_type='report'`},
		{&st.Contributions, `SELECT COUNT(*) FROM federated_contributions`},
		{&st.PendingAggregations, `SELECT COUNT(*) FROM federated_contributions WHERE status='pending'`},
	}
	for _, q := range queries {
		if err := s.db.QueryRow(q.query).Scan(q.dst); err != nil {
			return Stats{}, fmt.Errorf("count query: %w", err)
		}
	}
	return st, nil
}

func orEmpty(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
