// Package server wires the HTTP surface: triage, classification, retrieval,
// the SSE council stream, report management, and the federated endpoints.
package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"medcouncil/internal/classifier"
	"medcouncil/internal/config"
	"medcouncil/internal/council"
	"medcouncil/internal/federated"
	"medcouncil/internal/hospital"
	"medcouncil/internal/rag"
	"medcouncil/internal/reports"
	"medcouncil/internal/triage"
)

const maxUploadBytes = 10 * 1024 * 1024

// Server holds the wired components behind the HTTP surface.
type Server struct {
	cfg       config.Settings
	log       zerolog.Logger
	gate      *triage.Gate
	model     *classifier.Classifier
	retriever *rag.Engine
	reports   *reports.Store
	orch      *council.Orchestrator
	agg       *federated.Aggregator
	hospital  *hospital.Store
}

// New assembles a Server from its components. hospital may be nil in tests.
func New(cfg config.Settings, log zerolog.Logger, gate *triage.Gate, model *classifier.Classifier,
	retriever *rag.Engine, reportStore *reports.Store, orch *council.Orchestrator,
	agg *federated.Aggregator, hospitalStore *hospital.Store) *Server {
	return &Server{
		cfg:       cfg,
		log:       log,
		gate:      gate,
		model:     model,
		retriever: retriever,
		reports:   reportStore,
		orch:      orch,
		agg:       agg,
		hospital:  hospitalStore,
	}
}

// App builds the fiber application with all routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:   "medcouncil",
		BodyLimit: maxUploadBytes + 1024,
	})

	app.Use(func(c *fiber.Ctx) error {
		s.log.Debug().Str("method", c.Method()).Str("path", c.Path()).Msg("request")
		return c.Next()
	})

	app.Get("/health", s.handleHealth)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")
	api.Post("/triage", s.handleTriage)
	api.Post("/classify", s.handleClassify)
	api.Post("/rag/retrieve", s.handleRetrieve)
	api.Get("/rag/stats", s.handleRAGStats)
	api.Post("/council", s.handleCouncil)

	api.Post("/reports/upload", s.handleReportUpload)
	api.Get("/reports", s.handleReportList)
	api.Delete("/reports/:id", s.handleReportDelete)
	api.Post("/reports/analyze/:id", s.handleReportAnalyze)

	api.Post("/federated/update", s.handleFederatedUpdate)
	api.Get("/federated/adapter", s.handleFederatedAdapter)
	api.Get("/federated/status", s.handleFederatedStatus)

	api.Get("/hospital/stats", s.handleHospitalStats)
	api.Get("/hospital/records", s.handleHospitalRecords)

	return app
}

// apiError is the machine-readable error body for 4xx/5xx responses.
type apiError struct {
	ErrorCode   string `json:"error_code"`
	UserMessage string `json:"user_message"`
}

func errorResponse(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(apiError{ErrorCode: code, UserMessage: message})
}
