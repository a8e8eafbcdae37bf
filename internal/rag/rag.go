// Package rag owns the retrieval corpus (curated knowledge plus user
// reports), the TF-IDF index built over it, and the context block injected
// into council prompts. Rebuilds are atomic: a fresh index is built next to
// the live one and swapped in with a single pointer store, so concurrent
// readers always see a consistent snapshot.
package rag

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"

	"medcouncil/internal/index"
	"medcouncil/internal/reports"
)

// Document types in the corpus.
const (
	TypeKnowledge  = "knowledge"
	TypeUserReport = "user_report"
)

const snippetLimit = 500

// Document is the retrieval unit.
type Document struct {
	ID      string `json:"id"`
	Topic   string `json:"topic"`
	Source  string `json:"source"`
	Content string `json:"content"`
	Type    string `json:"type"`
}

// Hit is one retrieval result.
type Hit struct {
	DocID   string  `json:"doc_id"`
	Topic   string  `json:"topic"`
	Source  string  `json:"source"`
	Snippet string  `json:"content_snippet"`
	Score   float64 `json:"score"`
	Type    string  `json:"type"`
}

// Stats describes the current snapshot.
type Stats struct {
	TotalDocuments int  `json:"total_documents"`
	KnowledgeCount int  `json:"knowledge_base_count"`
	ReportCount    int  `json:"user_report_count"`
	IndexBuilt     bool `json:"index_built"`
	VectorDim      int  `json:"vector_dim"`
}

type snapshot struct {
	docs []Document
	idx  *index.Index
}

// Engine serves retrieval queries against an atomically swapped snapshot.
type Engine struct {
	maxFeatures int
	store       *reports.Store
	log         zerolog.Logger
	snap        atomic.Pointer[snapshot]
}

// NewEngine builds the engine and its first snapshot. store may be nil when
// no user-report source exists.
func NewEngine(maxFeatures int, store *reports.Store, log zerolog.Logger) *Engine {
	e := &Engine{maxFeatures: maxFeatures, store: store, log: log}
	e.Rebuild()
	return e
}

// Rebuild assembles the current document set, builds a fresh index, and
// swaps it in. Readers mid-query keep the old snapshot.
func (e *Engine) Rebuild() {
	docs := make([]Document, 0, len(knowledgeBase))
	docs = append(docs, knowledgeBase...)
	if e.store != nil {
		for _, r := range e.store.All() {
			docs = append(docs, Document{
				ID:      r.ID,
				Topic:   r.Filename,
				Source:  "user_upload",
				Content: r.ExtractedText,
				Type:    TypeUserReport,
			})
		}
	}
	for i := range docs {
		if docs[i].Type == "" {
			docs[i].Type = TypeKnowledge
		}
	}

	texts := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Topic + ". " + d.Content
	}

	next := &snapshot{docs: docs, idx: index.Build(texts, e.maxFeatures)}
	e.snap.Store(next)

	e.log.Info().
		Int("documents", len(docs)).
		Int("vocab", next.idx.VocabSize()).
		Msg("retrieval index rebuilt")
}

// Retrieve returns the top-k documents for the query, score-descending.
func (e *Engine) Retrieve(query string, k int) []Hit {
	snap := e.snap.Load()
	if snap == nil {
		return nil
	}
	raw := snap.idx.Query(query, k)
	hits := make([]Hit, 0, len(raw))
	for _, h := range raw {
		doc := snap.docs[h.Row]
		hits = append(hits, Hit{
			DocID:   doc.ID,
			Topic:   doc.Topic,
			Source:  doc.Source,
			Snippet: truncate(doc.Content, snippetLimit),
			Score:   h.Score,
			Type:    doc.Type,
		})
	}
	return hits
}

// ContextBlock retrieves top-k context and formats it for prompt injection.
// An empty string means nothing relevant was found and no block should be
// appended.
func (e *Engine) ContextBlock(query string, k int) string {
	hits := e.Retrieve(query, k)
	if len(hits) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("\n\n--- RETRIEVED MEDICAL CONTEXT (RAG) ---\n")
	for i, h := range hits {
		label := "Medical Knowledge"
		if h.Type == TypeUserReport {
			label = "Patient Report"
		}
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%s %d] %s (Source: %s, Relevance: %.2f)\n%s",
			label, i+1, h.Topic, h.Source, h.Score, h.Snippet)
	}
	b.WriteString("\n--- END CONTEXT ---\n")
	return b.String()
}

// Stats reports on the live snapshot.
func (e *Engine) Stats() Stats {
	snap := e.snap.Load()
	if snap == nil {
		return Stats{}
	}
	st := Stats{
		TotalDocuments: len(snap.docs),
		IndexBuilt:     true,
		VectorDim:      snap.idx.VocabSize(),
	}
	for _, d := range snap.docs {
		if d.Type == TypeUserReport {
			st.ReportCount++
		} else {
			st.KnowledgeCount++
		}
	}
	return st
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
