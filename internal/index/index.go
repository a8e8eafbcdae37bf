package index

import "sort"

// Hit is one retrieval result: the row position in the built corpus and its
// cosine similarity to the query.
type Hit struct {
	Row   int
	Score float64
}

// Index is an immutable built artifact: the fitted vectorizer plus one
// normalized row per corpus text. Rebuilds construct a fresh Index and swap
// it in; readers holding an old Index keep a consistent snapshot.
type Index struct {
	vectorizer *Vectorizer
	rows       []Vector
}

// Build fits a vectorizer over the texts and materializes the normalized
// document matrix. An empty corpus yields a valid index that returns no hits.
func Build(texts []string, maxFeatures int) *Index {
	vz := NewVectorizer(maxFeatures)
	ix := &Index{vectorizer: vz}
	if len(texts) == 0 {
		return ix
	}
	vz.Fit(texts)
	ix.rows = make([]Vector, len(texts))
	for i, t := range texts {
		ix.rows[i] = vz.Transform(t)
	}
	return ix
}

// Len returns the number of indexed rows.
func (ix *Index) Len() int { return len(ix.rows) }

// VocabSize returns the vocabulary size of the fitted vectorizer.
func (ix *Index) VocabSize() int { return ix.vectorizer.VocabSize() }

// Row returns the normalized vector at position i, for norm inspection.
func (ix *Index) Row(i int) Vector { return ix.rows[i] }

// Query returns the top-k rows by cosine similarity, score-descending with
// ties broken by lower row index. A query that maps to the zero vector
// matches nothing.
func (ix *Index) Query(text string, k int) []Hit {
	if k <= 0 || len(ix.rows) == 0 {
		return nil
	}
	q := ix.vectorizer.Transform(text)
	if len(q) == 0 {
		return nil
	}

	hits := make([]Hit, len(ix.rows))
	for i, row := range ix.rows {
		hits[i] = Hit{Row: i, Score: q.Dot(row)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k]
}
