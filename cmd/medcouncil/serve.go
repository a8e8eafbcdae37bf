package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"medcouncil/internal/classifier"
	"medcouncil/internal/config"
	"medcouncil/internal/council"
	"medcouncil/internal/federated"
	"medcouncil/internal/hospital"
	"medcouncil/internal/llm"
	"medcouncil/internal/logging"
	"medcouncil/internal/rag"
	"medcouncil/internal/reports"
	"medcouncil/internal/server"
	"medcouncil/internal/triage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Args:  cobra.NoArgs,
	Short: "Run the medcouncil API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("listen", "", "listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if listen, _ := cmd.Flags().GetString("listen"); listen != "" {
		cfg.ListenAddr = listen
	}

	log := logging.New(cfg.LogLevel)

	if cfg.LLM.APIKey == "" {
		log.Warn().Msg("LLM_API_KEY is empty; council calls will degrade to sentinel responses")
	}

	hospitalStore, err := hospital.Open(cfg.Storage.HospitalDB, log)
	if err != nil {
		return fmt.Errorf("failed to open hospital store: %w", err)
	}
	defer hospitalStore.Close()

	// The classifier trains deterministically at startup on the bundled
	// corpus and is immutable afterwards.
	model := classifier.New()
	log.Info().Strs("classes", model.Classes()).Msg("symptom classifier ready")

	var retriever *rag.Engine
	reportStore, err := reports.NewStore(cfg.Storage.ReportsDir, reports.PlainTextExtractor{}, log, func() {
		if retriever != nil {
			retriever.Rebuild()
		}
	})
	if err != nil {
		return fmt.Errorf("failed to open report store: %w", err)
	}
	retriever = rag.NewEngine(cfg.Retrieval.MaxFeatures, reportStore, log)

	adapterDir := cfg.Storage.AdapterDir
	if adapterDir == "" {
		adapterDir = filepath.Join(cfg.Storage.DataDir, "adapters")
	}
	agg, err := federated.New(cfg.Federated, adapterDir, log)
	if err != nil {
		return fmt.Errorf("failed to open adapter store: %w", err)
	}

	caller := llm.NewClient(cfg.LLM, log)
	orch := council.New(cfg.Council.Divergers, cfg.Council.Reviewer, cfg.Council.Chairman,
		caller, model, retriever, hospitalStore, cfg.Retrieval.TopK, log)

	srv := server.New(cfg, log, triage.DefaultGate(), model, retriever, reportStore, orch, agg, hospitalStore)
	app := srv.App()

	log.Info().
		Str("addr", cfg.ListenAddr).
		Strs("divergers", cfg.Council.Divergers).
		Str("reviewer", cfg.Council.Reviewer).
		Str("chairman", cfg.Council.Chairman).
		Int("adapter_dim", cfg.Federated.AdapterDim).
		Msg("starting medcouncil")

	if err := app.Listen(cfg.ListenAddr); err != nil {
		return fmt.Errorf("server exited: %w", err)
	}
	return nil
}
