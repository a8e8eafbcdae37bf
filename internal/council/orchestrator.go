// Package council drives the three-stage deliberation protocol: parallel
// divergence across member models, anonymized peer review, and chairman
// synthesis, with retrieval-augmented prompts and an ordered event stream
// back to the caller.
package council

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"medcouncil/internal/classifier"
	"medcouncil/internal/llm"
	"medcouncil/internal/metrics"
	"medcouncil/internal/rag"
)

const memberSystemPrompt = "You are a clinical reasoning assistant. The patient case has been de-identified. " +
	"Reply ONLY with a valid JSON object - no markdown fences, no text outside JSON. " +
	`Keys: "differentials" (list of strings), "next_steps" (list of strings), ` +
	`"confidence" (float 0-1), "red_flag" (boolean).`

const reviewerSystemPrompt = "You are a clinical peer reviewer. Output only valid JSON."

const chairmanSystemPrompt = "You are the Chairman of a medical AI council. Be concise and accurate."

// Member is one configured council participant.
type Member struct {
	ID    string `json:"id"`
	Model string `json:"model"`
}

// ConsultationStore receives the anonymized record written after synthesis.
type ConsultationStore interface {
	StoreConsultation(category, severity, symptomsHash, councilSummary string, confidence float64, metadata map[string]any) (string, error)
}

// Result is the complete outcome of a deliberation, for non-streaming
// callers.
type Result struct {
	Divergence map[string]MemberRecord `json:"divergence"`
	Review     PeerReview              `json:"convergence"`
	Synthesis  SynthesisRecord         `json:"synthesis"`
}

// Orchestrator owns the per-request protocol. Shared dependencies are
// injected once; per-request state lives on the stack of Run.
type Orchestrator struct {
	divergers []Member
	reviewer  Member
	chairman  Member
	caller    llm.Caller
	model     *classifier.Classifier
	retriever *rag.Engine
	store     ConsultationStore
	topK      int
	log       zerolog.Logger
}

// New wires an orchestrator. store may be nil; the post-stage write is then
// skipped.
func New(divergerModels []string, reviewerModel, chairmanModel string, caller llm.Caller,
	model *classifier.Classifier, retriever *rag.Engine, store ConsultationStore,
	topK int, log zerolog.Logger) *Orchestrator {

	divergers := make([]Member, len(divergerModels))
	for i, m := range divergerModels {
		divergers[i] = Member{ID: fmt.Sprintf("member_%c", 'a'+i), Model: m}
	}
	if topK <= 0 {
		topK = 3
	}
	return &Orchestrator{
		divergers: divergers,
		reviewer:  Member{ID: "reviewer", Model: reviewerModel},
		chairman:  Member{ID: "chairman", Model: chairmanModel},
		caller:    caller,
		model:     model,
		retriever: retriever,
		store:     store,
		topK:      topK,
		log:       log,
	}
}

// Members returns the configured diverger roster.
func (o *Orchestrator) Members() []Member {
	out := make([]Member, len(o.divergers))
	copy(out, o.divergers)
	return out
}

// Run executes the full protocol and streams events in protocol order. The
// channel is closed after done or error. If ctx is cancelled (consumer
// disconnect), emission stops at the next yield point; in-flight model
// calls finish in the background and their results are discarded.
func (o *Orchestrator) Run(ctx context.Context, sanitizedPrompt string) <-chan Event {
	events := make(chan Event)
	go func() {
		defer close(events)
		defer func() {
			if r := recover(); r != nil {
				o.log.Error().Interface("panic", r).Msg("council pipeline fault")
				o.emit(ctx, events, Event{Stage: StageError, Message: "internal error during council deliberation"})
			}
		}()
		metrics.CouncilRequests.Inc()
		o.run(ctx, events, sanitizedPrompt)
	}()
	return events
}

func (o *Orchestrator) run(ctx context.Context, events chan<- Event, prompt string) {
	// Pre-stage: local classification.
	start := time.Now()
	cls := o.model.Predict(prompt)
	metrics.StageDuration.WithLabelValues(string(StageClassification)).Observe(time.Since(start).Seconds())
	if !o.emit(ctx, events, Event{Stage: StageClassification, Status: StatusComplete, Data: cls}) {
		return
	}

	// Pre-stage: retrieval and prompt augmentation.
	start = time.Now()
	hits := o.retriever.Retrieve(prompt, o.topK)
	block := o.retriever.ContextBlock(prompt, o.topK)
	metrics.StageDuration.WithLabelValues(string(StageRAGRetrieval)).Observe(time.Since(start).Seconds())

	topics := make([]string, len(hits))
	for i, h := range hits {
		topics[i] = h.Topic
	}
	if !o.emit(ctx, events, Event{Stage: StageRAGRetrieval, Status: StatusComplete,
		Data: RetrievalInfo{DocumentsFound: len(hits), Topics: topics}}) {
		return
	}

	augmented := prompt
	if block != "" {
		augmented = prompt + "\n" + block
	}

	// Stage 1: divergence.
	if !o.emit(ctx, events, Event{Stage: StageDivergence, Status: StatusRunning}) {
		return
	}
	start = time.Now()
	divergence := o.runDivergence(ctx, augmented)
	metrics.StageDuration.WithLabelValues(string(StageDivergence)).Observe(time.Since(start).Seconds())
	if !o.emit(ctx, events, Event{Stage: StageDivergence, Status: StatusComplete, Data: divergence}) {
		return
	}

	// Stage 2: convergence.
	if !o.emit(ctx, events, Event{Stage: StageConvergence, Status: StatusRunning}) {
		return
	}
	start = time.Now()
	review := o.runConvergence(ctx, prompt, divergence)
	metrics.StageDuration.WithLabelValues(string(StageConvergence)).Observe(time.Since(start).Seconds())
	if !o.emit(ctx, events, Event{Stage: StageConvergence, Status: StatusComplete, Data: review}) {
		return
	}

	// Stage 3: synthesis.
	if !o.emit(ctx, events, Event{Stage: StageSynthesis, Status: StatusRunning}) {
		return
	}
	start = time.Now()
	synthesis := o.runSynthesis(ctx, prompt, divergence, review)
	metrics.StageDuration.WithLabelValues(string(StageSynthesis)).Observe(time.Since(start).Seconds())
	if !o.emit(ctx, events, Event{Stage: StageSynthesis, Status: StatusComplete, Data: synthesis}) {
		return
	}

	// Post-stage: anonymized consultation record. Failures never surface.
	o.storeConsultation(prompt, cls, len(hits), synthesis)

	o.emit(ctx, events, Event{Stage: StageDone})
}

// Deliberate runs the three council stages without streaming, for callers
// like report analysis that only need the final result.
func (o *Orchestrator) Deliberate(ctx context.Context, prompt string) Result {
	divergence := o.runDivergence(ctx, prompt)
	review := o.runConvergence(ctx, prompt, divergence)
	synthesis := o.runSynthesis(ctx, prompt, divergence, review)
	return Result{Divergence: divergence, Review: review, Synthesis: synthesis}
}

// runDivergence fans out to every diverger concurrently. The result map is
// keyed by member id and independent of completion order. A failed call
// contributes the transport sentinel, which parses as an empty record.
func (o *Orchestrator) runDivergence(ctx context.Context, augmentedPrompt string) map[string]MemberRecord {
	messages := []llm.Message{
		{Role: "system", Content: memberSystemPrompt},
		{Role: "user", Content: augmentedPrompt},
	}

	responses := make([]string, len(o.divergers))
	g, gctx := errgroup.WithContext(ctx)
	for i, member := range o.divergers {
		i, member := i, member
		g.Go(func() error {
			responses[i] = o.caller.Call(gctx, member.Model, messages, 0.7, 512)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]MemberRecord, len(o.divergers))
	for i, member := range o.divergers {
		out[member.ID] = parseMember(responses[i])
	}
	return out
}

// runConvergence anonymizes members as letters, sends compact summaries to
// the reviewer, and parses the ranking with a deterministic fallback.
func (o *Orchestrator) runConvergence(ctx context.Context, prompt string, divergence map[string]MemberRecord) PeerReview {
	letters := o.anonymize()

	var summaries strings.Builder
	defaultRanking := make([]string, len(o.divergers))
	for i, member := range o.divergers {
		letter := letters[member.ID]
		defaultRanking[i] = letter
		fmt.Fprintf(&summaries, "  %s: %s\n", letter, summarize(divergence[member.ID]))
	}

	reviewPrompt := fmt.Sprintf(
		"Case: %s\n\nCouncil member summaries:\n%s\n"+
			"Task: Rank the responses %s by clinical accuracy and reasoning quality.\n"+
			"Output ONLY this JSON (no other text):\n"+
			`{"ranking": [%s], "reasoning": "brief reason"}`,
		head(prompt, 300),
		summaries.String(),
		strings.Join(defaultRanking, ", "),
		`"`+strings.Join(defaultRanking, `", "`)+`"`,
	)

	text := o.caller.Call(ctx, o.reviewer.Model, []llm.Message{
		{Role: "system", Content: reviewerSystemPrompt},
		{Role: "user", Content: reviewPrompt},
	}, 0.1, 80)

	return parseReview(text, defaultRanking)
}

// runSynthesis resolves the top-ranked member and asks the chairman for the
// final merged answer.
func (o *Orchestrator) runSynthesis(ctx context.Context, prompt string, divergence map[string]MemberRecord, review PeerReview) SynthesisRecord {
	letters := o.anonymize()
	byLetter := make(map[string]string, len(letters))
	for id, letter := range letters {
		byLetter[letter] = id
	}

	topID := o.divergers[0].ID
	if len(review.Ranking) > 0 {
		if id, ok := byLetter[review.Ranking[0]]; ok {
			topID = id
		}
	}
	topRecord, _ := json.MarshalIndent(divergence[topID], "", "  ")

	synthesisPrompt := fmt.Sprintf(
		"Case: %s\n\nBest council response:\n%s\n\n"+
			"Peer ranking: %v - Reasoning: %s\n\n"+
			"Synthesise a final clinical answer. Reply ONLY with JSON keys: "+
			`"final_differentials" (list), "recommended_next_steps" (list), `+
			`"confidence" (float 0-1), "red_flag" (boolean), "summary" (string, 3 sentences or fewer).`,
		head(prompt, 400),
		topRecord,
		review.Ranking,
		review.Reasoning,
	)

	text := o.caller.Call(ctx, o.chairman.Model, []llm.Message{
		{Role: "system", Content: chairmanSystemPrompt},
		{Role: "user", Content: synthesisPrompt},
	}, 0.2, 600)

	return parseSynthesis(text)
}

// anonymize maps diverger ids to letters in deterministic roster order.
func (o *Orchestrator) anonymize() map[string]string {
	letters := make(map[string]string, len(o.divergers))
	for i, member := range o.divergers {
		letters[member.ID] = string(rune('A' + i))
	}
	return letters
}

func (o *Orchestrator) storeConsultation(prompt string, cls classifier.Classification, ragDocs int, synthesis SynthesisRecord) {
	if o.store == nil {
		return
	}

	sum := sha256.Sum256([]byte(prompt))
	symptomsHash := hex.EncodeToString(sum[:])[:16]

	summary := ""
	confidence := 0.0
	if synthesis.Parsed != nil {
		summary = head(synthesis.Parsed.Summary, 500)
		confidence = synthesis.Parsed.Confidence
	}

	if _, err := o.store.StoreConsultation(cls.Category, cls.Severity, symptomsHash, summary, confidence,
		map[string]any{
			"rag_docs_used":             ragDocs,
			"classification_confidence": cls.Confidence,
		}); err != nil {
		o.log.Warn().Err(err).Msg("failed to store consultation record")
	}
}

// emit delivers one event, honoring consumer disconnect. Once cancellation
// has been observed no further events are sent.
func (o *Orchestrator) emit(ctx context.Context, events chan<- Event, ev Event) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		o.log.Debug().Str("stage", string(ev.Stage)).Msg("consumer gone, dropping council events")
		return false
	}
}

// summarize produces the compact one-line view used in the review prompt.
func summarize(rec MemberRecord) string {
	if rec.Parsed == nil {
		return "Differentials: none | Confidence: ? | RedFlag: false"
	}
	diffs := rec.Parsed.Differentials
	if len(diffs) > 3 {
		diffs = diffs[:3]
	}
	joined := strings.Join(diffs, ", ")
	if joined == "" {
		joined = "none"
	}
	return fmt.Sprintf("Differentials: %s | Confidence: %g | RedFlag: %t", joined, rec.Parsed.Confidence, rec.Parsed.RedFlag)
}
