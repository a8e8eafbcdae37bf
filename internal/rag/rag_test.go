package rag

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medcouncil/internal/reports"
)

func newTestEngine(t *testing.T) (*Engine, *reports.Store) {
	t.Helper()
	var engine *Engine
	store, err := reports.NewStore(t.TempDir(), reports.PlainTextExtractor{}, zerolog.Nop(), func() {
		if engine != nil {
			engine.Rebuild()
		}
	})
	require.NoError(t, err)
	engine = NewEngine(4096, store, zerolog.Nop())
	return engine, store
}

func TestRetrieveFindsRelevantKnowledge(t *testing.T) {
	engine, _ := newTestEngine(t)
	hits := engine.Retrieve("crushing chest pain radiating to left arm", 3)
	require.NotEmpty(t, hits)
	assert.Equal(t, "kb_mi_presentation", hits[0].DocID)
	assert.Equal(t, TypeKnowledge, hits[0].Type)
	for i := 1; i < len(hits); i++ {
		assert.LessOrEqual(t, hits[i].Score, hits[i-1].Score)
	}
}

func TestIngestedReportBecomesRetrievable(t *testing.T) {
	engine, store := newTestEngine(t)
	res, err := store.Ingest("echo_results.txt",
		[]byte("echocardiogram shows zanubrutinib trial enrollment and reduced ejection fraction"))
	require.NoError(t, err)

	hits := engine.Retrieve("zanubrutinib trial enrollment", 3)
	require.NotEmpty(t, hits)
	assert.Equal(t, res.ID, hits[0].DocID)
	assert.Equal(t, TypeUserReport, hits[0].Type)
	assert.Equal(t, "user_upload", hits[0].Source)
}

func TestDeleteRemovesFromIndex(t *testing.T) {
	engine, store := newTestEngine(t)
	res, err := store.Ingest("note.txt", []byte("unique marker phrase qqxxyyzz appears here"))
	require.NoError(t, err)

	hits := engine.Retrieve("qqxxyyzz", 3)
	require.NotEmpty(t, hits)
	require.Equal(t, res.ID, hits[0].DocID)

	existed, err := store.Delete(res.ID)
	require.NoError(t, err)
	require.True(t, existed)

	hits = engine.Retrieve("qqxxyyzz", 3)
	for _, h := range hits {
		assert.NotEqual(t, res.ID, h.DocID)
	}
}

func TestContextBlockFormat(t *testing.T) {
	engine, _ := newTestEngine(t)
	block := engine.ContextBlock("atrial fibrillation irregular pulse", 3)
	require.NotEmpty(t, block)
	assert.True(t, strings.HasPrefix(block, "\n\n--- RETRIEVED MEDICAL CONTEXT (RAG) ---\n"))
	assert.True(t, strings.HasSuffix(block, "\n--- END CONTEXT ---\n"))
	assert.Contains(t, block, "[Medical Knowledge 1]")
	assert.Contains(t, block, "Relevance:")
}

func TestContextBlockEmptyWhenNoHits(t *testing.T) {
	engine, _ := newTestEngine(t)
	assert.Empty(t, engine.ContextBlock("zzqqx nonexistent tokens", 3))
}

func TestSnippetCapped(t *testing.T) {
	engine, store := newTestEngine(t)
	long := strings.Repeat("longreport content with assorted words here ", 40)
	res, err := store.Ingest("long.txt", []byte(long))
	require.NoError(t, err)

	hits := engine.Retrieve("longreport content assorted", 1)
	require.NotEmpty(t, hits)
	require.Equal(t, res.ID, hits[0].DocID)
	assert.LessOrEqual(t, len(hits[0].Snippet), 500)
}

func TestStats(t *testing.T) {
	engine, store := newTestEngine(t)
	st := engine.Stats()
	assert.True(t, st.IndexBuilt)
	assert.Equal(t, len(knowledgeBase), st.KnowledgeCount)
	assert.Equal(t, 0, st.ReportCount)

	_, err := store.Ingest("r.txt", []byte("report body"))
	require.NoError(t, err)

	st = engine.Stats()
	assert.Equal(t, 1, st.ReportCount)
	assert.Equal(t, len(knowledgeBase)+1, st.TotalDocuments)
}

func TestRebuildIsAtomicForReaders(t *testing.T) {
	engine, store := newTestEngine(t)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 50; i++ {
			_ = engine.Retrieve("chest pain", 3)
		}
	}()
	for i := 0; i < 10; i++ {
		_, err := store.Ingest("r.txt", []byte("rebuild churn document"))
		require.NoError(t, err)
	}
	<-done
}
