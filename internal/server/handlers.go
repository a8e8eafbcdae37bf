package server

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"medcouncil/internal/federated"
	"medcouncil/internal/metrics"
)

type symptomRequest struct {
	SanitizedPrompt string             `json:"sanitized_prompt"`
	Vitals          map[string]float64 `json:"vitals"`
}

type federatedUpdateRequest struct {
	ClientID  string    `json:"client_id"`
	Gradients []float64 `json:"gradients"`
}

// parseSymptomRequest decodes and validates a symptom body. When ok is false
// the 400 error body has already been written and the handler returns err.
func (s *Server) parseSymptomRequest(c *fiber.Ctx) (req symptomRequest, ok bool, err error) {
	if err := c.BodyParser(&req); err != nil {
		return req, false, errorResponse(c, fiber.StatusBadRequest, "invalid_body", "Request body must be valid JSON.")
	}
	if strings.TrimSpace(req.SanitizedPrompt) == "" {
		return req, false, errorResponse(c, fiber.StatusBadRequest, "empty_prompt", "sanitized_prompt cannot be empty.")
	}
	return req, true, nil
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	features := fiber.Map{
		"rag_indexed":      s.retriever.Stats().TotalDocuments,
		"classifier_ready": true,
	}
	if s.hospital != nil {
		if st, err := s.hospital.Stats(); err == nil {
			features["hospital_db"] = st
		}
	}
	return c.JSON(fiber.Map{
		"status":   "ok",
		"service":  "medcouncil",
		"members":  s.orch.Members(),
		"features": features,
	})
}

// handleTriage runs the deterministic red-flag gate. No model calls happen
// here; emergencies must short-circuit without leaving the process.
func (s *Server) handleTriage(c *fiber.Ctx) error {
	req, ok, err := s.parseSymptomRequest(c)
	if !ok {
		return err
	}
	verdict := s.gate.Evaluate(req.SanitizedPrompt, req.Vitals)
	metrics.TriageVerdicts.WithLabelValues(string(verdict.Tier)).Inc()

	s.log.Info().
		Str("tier", string(verdict.Tier)).
		Int("triggered", len(verdict.TriggeredRules)).
		Msg("triage evaluated")
	return c.JSON(verdict)
}

func (s *Server) handleClassify(c *fiber.Ctx) error {
	req, ok, err := s.parseSymptomRequest(c)
	if !ok {
		return err
	}
	return c.JSON(s.model.Predict(req.SanitizedPrompt))
}

func (s *Server) handleRetrieve(c *fiber.Ctx) error {
	req, ok, err := s.parseSymptomRequest(c)
	if !ok {
		return err
	}
	hits := s.retriever.Retrieve(req.SanitizedPrompt, 5)
	return c.JSON(fiber.Map{
		"query":   truncate(req.SanitizedPrompt, 200),
		"results": hits,
		"stats":   s.retriever.Stats(),
	})
}

func (s *Server) handleRAGStats(c *fiber.Ctx) error {
	return c.JSON(s.retriever.Stats())
}

// handleCouncil streams the deliberation as server-sent events. Each event
// is one `data: <json>` line; the stream ends after done or error.
func (s *Server) handleCouncil(c *fiber.Ctx) error {
	req, ok, err := s.parseSymptomRequest(c)
	if !ok {
		return err
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx, cancel := context.WithCancel(context.Background())
	events := s.orch.Run(ctx, req.SanitizedPrompt)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer func() {
			cancel()
			for range events {
			}
		}()
		for ev := range events {
			payload, err := json.Marshal(ev)
			if err != nil {
				s.log.Error().Err(err).Msg("failed to encode council event")
				continue
			}
			if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				// consumer disconnected; the orchestrator stops at its
				// next yield once the context is cancelled
				return
			}
		}
	}))
	return nil
}

func (s *Server) handleReportUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "missing_file", "A multipart 'file' field is required.")
	}
	if fileHeader.Filename == "" {
		return errorResponse(c, fiber.StatusBadRequest, "missing_filename", "No filename provided.")
	}
	if fileHeader.Size == 0 {
		return errorResponse(c, fiber.StatusBadRequest, "empty_file", "Empty file.")
	}
	if fileHeader.Size > maxUploadBytes {
		return errorResponse(c, fiber.StatusBadRequest, "file_too_large", "File too large. Max 10MB.")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "unreadable_file", "Could not read the uploaded file.")
	}
	defer f.Close()
	data := make([]byte, fileHeader.Size)
	if _, err := io.ReadFull(f, data); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "unreadable_file", "Could not read the uploaded file.")
	}

	result, err := s.reports.Ingest(fileHeader.Filename, data)
	if err != nil {
		s.log.Error().Err(err).Str("filename", fileHeader.Filename).Msg("report ingest failed")
		return errorResponse(c, fiber.StatusInternalServerError, "ingest_failed", "Could not store the report.")
	}
	metrics.ReportsIngested.Inc()

	if s.hospital != nil {
		summary := fmt.Sprintf("Uploaded report: %s (%d words)", result.Filename, result.WordCount)
		if err := s.hospital.StoreReportRecord(result.ID, "user_report", summary,
			map[string]any{"filename": result.Filename, "word_count": result.WordCount}); err != nil {
			s.log.Warn().Err(err).Msg("failed to record report upload")
		}
	}

	return c.JSON(result)
}

func (s *Server) handleReportList(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"reports": s.reports.List()})
}

func (s *Server) handleReportDelete(c *fiber.Ctx) error {
	id := c.Params("id")
	existed, err := s.reports.Delete(id)
	if err != nil {
		s.log.Error().Err(err).Str("id", id).Msg("report delete failed")
		return errorResponse(c, fiber.StatusInternalServerError, "delete_failed", "Could not delete the report.")
	}
	if !existed {
		return errorResponse(c, fiber.StatusNotFound, "report_not_found", "Report not found.")
	}
	return c.JSON(fiber.Map{"status": "deleted", "id": id})
}

func (s *Server) handleReportAnalyze(c *fiber.Ctx) error {
	id := c.Params("id")
	text, ok := s.reports.GetText(id)
	if !ok {
		return errorResponse(c, fiber.StatusNotFound, "report_not_found", "Report not found.")
	}

	ragContext := s.retriever.ContextBlock(truncate(text, 1000), 3)
	cls := s.model.Predict(truncate(text, 500))

	analysisPrompt := fmt.Sprintf(
		"Medical Report Analysis:\n%s\n\nClassification: %s (confidence: %.3f)\n%s\n\n"+
			"Provide a clinical summary, key findings, risk assessment, and recommended follow-up actions based on this report.",
		truncate(text, 1500), cls.Label, cls.Confidence, ragContext,
	)

	result := s.orch.Deliberate(c.Context(), analysisPrompt)

	return c.JSON(fiber.Map{
		"report_id":        id,
		"classification":   cls,
		"analysis":         result.Synthesis,
		"rag_context_used": ragContext != "",
	})
}

func (s *Server) handleFederatedUpdate(c *fiber.Ctx) error {
	var req federatedUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return errorResponse(c, fiber.StatusBadRequest, "invalid_body", "Request body must be valid JSON.")
	}

	receipt, err := s.agg.Receive(req.ClientID, req.Gradients)
	if err != nil {
		var dimErr *federated.DimensionError
		if errors.As(err, &dimErr) {
			return errorResponse(c, fiber.StatusBadRequest, "invalid_update", dimErr.Error())
		}
		s.log.Error().Err(err).Msg("federated receive failed")
		return errorResponse(c, fiber.StatusInternalServerError, "update_failed", "Could not accept the update.")
	}
	metrics.FederatedUpdates.Inc()

	// Audit log is best-effort; only a hash of the update head is kept.
	if s.hospital != nil {
		gradHead := req.Gradients
		if len(gradHead) > 10 {
			gradHead = gradHead[:10]
		}
		encoded, _ := json.Marshal(gradHead)
		sum := sha256.Sum256(encoded)
		hash := hex.EncodeToString(sum[:])[:16]
		if _, err := s.hospital.LogContribution("", hash, s.cfg.Federated.NoiseMultiplier, 0); err != nil {
			s.log.Warn().Err(err).Msg("failed to log federated contribution")
		}
	}

	resp := fiber.Map{
		"status":        receipt.Status,
		"pending_count": receipt.PendingCount,
	}
	agg, err := s.agg.MaybeAggregate(s.cfg.Federated.MinClients)
	if err != nil {
		s.log.Error().Err(err).Msg("federated aggregation failed")
		return errorResponse(c, fiber.StatusInternalServerError, "aggregation_failed", "Aggregation could not be completed.")
	}
	if agg != nil {
		metrics.AggregationRounds.Inc()
		resp["aggregation"] = agg
	}
	return c.JSON(resp)
}

func (s *Server) handleFederatedAdapter(c *fiber.Ctx) error {
	adapter, err := s.agg.Latest()
	if err != nil {
		s.log.Error().Err(err).Msg("failed to load latest adapter")
		return errorResponse(c, fiber.StatusInternalServerError, "adapter_unavailable", "Could not load the global adapter.")
	}
	if adapter == nil {
		return c.JSON(fiber.Map{"status": "no_adapter", "message": "No global adapter available yet."})
	}
	return c.JSON(adapter)
}

func (s *Server) handleFederatedStatus(c *fiber.Ctx) error {
	return c.JSON(s.agg.Status())
}

func (s *Server) handleHospitalStats(c *fiber.Ctx) error {
	if s.hospital == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "store_unavailable", "Hospital store is not configured.")
	}
	st, err := s.hospital.Stats()
	if err != nil {
		s.log.Error().Err(err).Msg("hospital stats failed")
		return errorResponse(c, fiber.StatusInternalServerError, "stats_failed", "Could not read store statistics.")
	}
	return c.JSON(st)
}

func (s *Server) handleHospitalRecords(c *fiber.Ctx) error {
	if s.hospital == nil {
		return errorResponse(c, fiber.StatusServiceUnavailable, "store_unavailable", "Hospital store is not configured.")
	}
	recordType := c.Query("record_type")
	limit := c.QueryInt("limit", 20)
	records, err := s.hospital.Records(recordType, limit)
	if err != nil {
		s.log.Error().Err(err).Msg("hospital records query failed")
		return errorResponse(c, fiber.StatusInternalServerError, "records_failed", "Could not read records.")
	}
	return c.JSON(fiber.Map{"records": records, "count": len(records)})
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
