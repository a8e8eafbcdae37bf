// Package federated buffers differentially-private client updates and
// periodically folds them into a versioned global adapter via FedAvg.
// All state transitions happen under one mutex; adapter publication is
// crash-safe through a tmp-write, fsync, rename sequence.
package federated

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"medcouncil/internal/config"
	"medcouncil/internal/dp"
)

// PendingUpdate is one buffered, DP-processed client update.
type PendingUpdate struct {
	ClientID  string
	Vector    []float64
	ArrivedAt time.Time
}

// Receipt acknowledges an accepted update.
type Receipt struct {
	Status       string `json:"status"`
	PendingCount int    `json:"pending_count"`
}

// Adapter is one published global model version. Immutable once written.
type Adapter struct {
	Version      int       `json:"version"`
	NumClients   int       `json:"num_clients"`
	CreatedAt    time.Time `json:"timestamp"`
	Vector       []float64 `json:"adapter"`
}

// AggregationResult describes a completed FedAvg round.
type AggregationResult struct {
	Version     int    `json:"version"`
	NumClients  int    `json:"num_clients"`
	AdapterPath string `json:"adapter_path"`
}

// Status is the aggregator's externally visible state.
type Status struct {
	CurrentVersion int    `json:"current_version"`
	PendingCount   int    `json:"pending_updates"`
	StorePath      string `json:"adapter_store"`
}

// DimensionError reports a wrong-size update.
type DimensionError struct {
	Expected int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("expected %d-dim update", e.Expected)
}

// Aggregator implements DP FedAvg with versioned publication.
type Aggregator struct {
	dim  int
	dir  string
	proc *dp.Processor
	log  zerolog.Logger

	mu      sync.Mutex
	pending []PendingUpdate
	version int
}

// New opens the adapter store directory and recovers the current version
// from the files already present. Partial writes from a crashed run (.tmp
// files) are discarded.
func New(cfg config.FederatedSettings, dir string, log zerolog.Logger) (*Aggregator, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create adapter store: %w", err)
	}

	a := &Aggregator{
		dim:  cfg.AdapterDim,
		dir:  dir,
		proc: dp.NewProcessor(cfg.ClipNorm, cfg.NoiseMultiplier, rand.New(rand.NewSource(time.Now().UnixNano()))),
		log:  log,
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("scan adapter store: %w", err)
	}
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".tmp") {
			_ = os.Remove(filepath.Join(dir, name))
			continue
		}
		if v, ok := parseAdapterVersion(name); ok && v > a.version {
			a.version = v
		}
	}

	log.Info().Int("version", a.version).Str("store", dir).Msg("federated aggregator ready")
	return a, nil
}

// Receive validates, DP-processes, and buffers one client update.
func (a *Aggregator) Receive(clientID string, vector []float64) (Receipt, error) {
	if !dp.Validate(vector, a.dim) {
		return Receipt{}, &DimensionError{Expected: a.dim}
	}

	noised := a.proc.Apply(vector)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending = append(a.pending, PendingUpdate{
		ClientID:  clientID,
		Vector:    noised,
		ArrivedAt: time.Now().UTC(),
	})

	return Receipt{Status: "accepted", PendingCount: len(a.pending)}, nil
}

// MaybeAggregate runs FedAvg when at least minClients updates are buffered.
// It returns nil when below threshold. On success the buffer is drained and
// the version advances by exactly one; on persistence failure both are left
// untouched.
func (a *Aggregator) MaybeAggregate(minClients int) (*AggregationResult, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.pending) < minClients {
		return nil, nil
	}

	mean := make([]float64, a.dim)
	for _, u := range a.pending {
		for i, x := range u.Vector {
			mean[i] += x
		}
	}
	n := float64(len(a.pending))
	for i := range mean {
		mean[i] /= n
	}

	next := Adapter{
		Version:    a.version + 1,
		NumClients: len(a.pending),
		CreatedAt:  time.Now().UTC(),
		Vector:     mean,
	}
	path, err := a.persist(next)
	if err != nil {
		return nil, err
	}

	a.version = next.Version
	a.pending = a.pending[:0]

	a.log.Info().
		Int("version", next.Version).
		Int("clients", next.NumClients).
		Msg("federated aggregation complete")

	return &AggregationResult{
		Version:     next.Version,
		NumClients:  next.NumClients,
		AdapterPath: path,
	}, nil
}

// Latest returns the most recently published adapter, or nil before the
// first aggregation.
func (a *Aggregator) Latest() (*Adapter, error) {
	a.mu.Lock()
	version := a.version
	a.mu.Unlock()

	if version == 0 {
		return nil, nil
	}
	raw, err := os.ReadFile(filepath.Join(a.dir, adapterFilename(version)))
	if err != nil {
		return nil, fmt.Errorf("read adapter v%d: %w", version, err)
	}
	var ad Adapter
	if err := json.Unmarshal(raw, &ad); err != nil {
		return nil, fmt.Errorf("parse adapter v%d: %w", version, err)
	}
	return &ad, nil
}

// Status reports version, pending count, and store path.
func (a *Aggregator) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return Status{
		CurrentVersion: a.version,
		PendingCount:   len(a.pending),
		StorePath:      a.dir,
	}
}

// Versions lists published adapter versions in ascending order.
func (a *Aggregator) Versions() ([]int, error) {
	entries, err := os.ReadDir(a.dir)
	if err != nil {
		return nil, fmt.Errorf("scan adapter store: %w", err)
	}
	var versions []int
	for _, e := range entries {
		if v, ok := parseAdapterVersion(e.Name()); ok {
			versions = append(versions, v)
		}
	}
	sort.Ints(versions)
	return versions, nil
}

func (a *Aggregator) persist(ad Adapter) (string, error) {
	raw, err := json.Marshal(ad)
	if err != nil {
		return "", fmt.Errorf("encode adapter: %w", err)
	}

	final := filepath.Join(a.dir, adapterFilename(ad.Version))
	tmp := final + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create adapter tmp: %w", err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("write adapter tmp: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("sync adapter tmp: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close adapter tmp: %w", err)
	}
	if err := os.Rename(tmp, final); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("publish adapter: %w", err)
	}
	return final, nil
}

func adapterFilename(version int) string {
	return fmt.Sprintf("adapter_v%d.json", version)
}

func parseAdapterVersion(name string) (int, bool) {
	if !strings.HasPrefix(name, "adapter_v") || !strings.HasSuffix(name, ".json") {
		return 0, false
	}
	v, err := strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "adapter_v"), ".json"))
	if err != nil || v < 1 {
		return 0, false
	}
	return v, true
}
