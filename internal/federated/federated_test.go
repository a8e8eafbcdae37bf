package federated

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcouncil/internal/config"
)

func testSettings(dim int) config.FederatedSettings {
	return config.FederatedSettings{
		AdapterDim:      dim,
		MinClients:      2,
		ClipNorm:        1.0,
		NoiseMultiplier: 0.8,
	}
}

func newTestAggregator(t *testing.T, dim int) (*Aggregator, string) {
	t.Helper()
	dir := t.TempDir()
	a, err := New(testSettings(dim), dir, zerolog.Nop())
	require.NoError(t, err)
	return a, dir
}

func TestReceiveAcceptsValidUpdate(t *testing.T) {
	a, _ := newTestAggregator(t, 4)
	r, err := a.Receive("client-1", []float64{1, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, "accepted", r.Status)
	assert.Equal(t, 1, r.PendingCount)
}

func TestReceiveRejectsWrongDimension(t *testing.T) {
	a, _ := newTestAggregator(t, 4)
	_, err := a.Receive("client-1", []float64{1, 2, 3})
	require.Error(t, err)
	var dimErr *DimensionError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, 4, dimErr.Expected)
	assert.Contains(t, err.Error(), "expected 4-dim update")
	// the buffer must be untouched
	assert.Equal(t, 0, a.Status().PendingCount)
}

func TestAggregateBelowThresholdReturnsNone(t *testing.T) {
	a, _ := newTestAggregator(t, 4)
	_, err := a.Receive("client-1", []float64{1, 0, 0, 0})
	require.NoError(t, err)

	res, err := a.MaybeAggregate(2)
	require.NoError(t, err)
	assert.Nil(t, res)
	assert.Equal(t, 1, a.Status().PendingCount)
}

func TestAggregateMeansUpdatesWithinNoiseScale(t *testing.T) {
	dir := t.TempDir()
	// zero noise keeps the mean exact for the arithmetic check
	a, err := New(config.FederatedSettings{
		AdapterDim: 4, MinClients: 2, ClipNorm: 1.0, NoiseMultiplier: 0,
	}, dir, zerolog.Nop())
	require.NoError(t, err)

	_, err = a.Receive("c1", []float64{1, 0, 0, 0})
	require.NoError(t, err)
	_, err = a.Receive("c2", []float64{0, 1, 0, 0})
	require.NoError(t, err)

	res, err := a.MaybeAggregate(2)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 2, res.NumClients)

	ad, err := a.Latest()
	require.NoError(t, err)
	require.NotNil(t, ad)
	want := []float64{0.5, 0.5, 0, 0}
	for i := range want {
		assert.InDelta(t, want[i], ad.Vector[i], 1e-9)
	}
}

func TestAggregateDrainsBufferAndIncrementsVersion(t *testing.T) {
	a, _ := newTestAggregator(t, 2)
	_, _ = a.Receive("c1", []float64{1, 0})
	_, _ = a.Receive("c2", []float64{0, 1})

	before := a.Status()
	res, err := a.MaybeAggregate(2)
	require.NoError(t, err)
	require.NotNil(t, res)

	after := a.Status()
	assert.Equal(t, before.CurrentVersion+1, after.CurrentVersion)
	assert.Equal(t, 0, after.PendingCount)
}

func TestVersionsFormDenseSequence(t *testing.T) {
	a, _ := newTestAggregator(t, 2)
	for round := 1; round <= 3; round++ {
		_, _ = a.Receive("c1", []float64{1, 0})
		_, _ = a.Receive("c2", []float64{0, 1})
		res, err := a.MaybeAggregate(2)
		require.NoError(t, err)
		require.NotNil(t, res)
		assert.Equal(t, round, res.Version)
	}
	versions, err := a.Versions()
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, versions)
}

func TestRecoveryFromExistingStore(t *testing.T) {
	a, dir := newTestAggregator(t, 2)
	_, _ = a.Receive("c1", []float64{1, 0})
	_, _ = a.Receive("c2", []float64{0, 1})
	_, err := a.MaybeAggregate(2)
	require.NoError(t, err)

	// a stray tmp file from a crashed publish must be discarded
	require.NoError(t, os.WriteFile(filepath.Join(dir, "adapter_v2.json.tmp"), []byte("partial"), 0o644))

	reopened, err := New(testSettings(2), dir, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Status().CurrentVersion)
	_, statErr := os.Stat(filepath.Join(dir, "adapter_v2.json.tmp"))
	assert.True(t, os.IsNotExist(statErr))

	ad, err := reopened.Latest()
	require.NoError(t, err)
	require.NotNil(t, ad)
	assert.Equal(t, 1, ad.Version)
}

func TestLatestBeforeFirstAggregation(t *testing.T) {
	a, _ := newTestAggregator(t, 2)
	ad, err := a.Latest()
	require.NoError(t, err)
	assert.Nil(t, ad)
}

func TestDPNoiseBoundedByClipAndMultiplier(t *testing.T) {
	a, _ := newTestAggregator(t, 4)
	_, _ = a.Receive("c1", []float64{1, 0, 0, 0})
	_, _ = a.Receive("c2", []float64{0, 1, 0, 0})
	res, err := a.MaybeAggregate(2)
	require.NoError(t, err)
	require.NotNil(t, res)

	ad, err := a.Latest()
	require.NoError(t, err)
	// mean of two clipped unit vectors plus N(0, 0.8) noise averaged over
	// two clients: allow a generous multiple of the noise std
	for i, x := range ad.Vector {
		assert.Less(t, math.Abs(x), 5.0, "coordinate %d", i)
	}
}
