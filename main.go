package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/giygas/hireshawk-api/analysis"
	"github.com/giygas/hireshawk-api/config"
	"github.com/giygas/hireshawk-api/data"
	"github.com/giygas/hireshawk-api/handlers"
	"github.com/giygas/hireshawk-api/health"
	"github.com/giygas/hireshawk-api/icd10"
	"github.com/giygas/hireshawk-api/interfaces"
	"github.com/giygas/hireshawk-api/llm"
	"github.com/giygas/hireshawk-api/logging"
	"github.com/giygas/hireshawk-api/scheduler"
	"github.com/giygas/hireshawk-api/server"
	"github.com/giygas/hireshawk-api/validation"
	"github.com/joho/godotenv"
)

// loadEnv reads .env from the working directory, then from the executable's
// directory. A missing file is fine: the environment may be set by the host.
func loadEnv() {
	if err := godotenv.Load(); err == nil {
		return
	}

	ex, err := os.Executable()
	if err != nil {
		return
	}
	exPath := filepath.Dir(ex)
	if err := os.Chdir(exPath); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to change directory to %s: %v\n", exPath, err)
		return
	}
	_ = godotenv.Load()
}

func main() {
	loadEnv()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	loggingService := logging.InitLoggerFromConfig("logs", cfg)
	defer loggingService.Close()

	logging.Info("Configuration loaded",
		"env", cfg.Env,
		"address", cfg.Address,
		"port", cfg.Port,
		"llm_provider", cfg.LLMProvider,
		"local_llm_configured", cfg.LocalLLMURL != "",
		"openai_configured", cfg.OpenAIAPIKey != "")
	if unset := config.UnsetEnvVars(); len(unset) > 0 {
		logging.Info("Using defaults for unset environment variables", "variables", unset)
	}

	store := data.NewDataContainer()
	store.SetServerStartTime(time.Now())

	icd10Client := icd10.NewClient(cfg.ICD10APIURL, cfg.ICD10MaxList, cfg.ICD10Timeout)
	resolver := icd10.NewResolver(icd10Client)

	router, err := llm.NewRouterFromConfig(cfg)
	if err != nil {
		logging.Error("Failed to configure language model providers", "error", err)
		os.Exit(1)
	}

	analyzer := analysis.NewAnalyzer(router, resolver, store)
	validator := validation.NewInputValidator(cfg.MaxReportLength)
	healthChecker := health.NewHealthChecker(store, cfg.ProbeInterval)

	probers := append([]interfaces.Prober{icd10Client}, router.Probers()...)
	probes := scheduler.NewScheduler(store, cfg.ProbeInterval, probers...)
	if err := probes.Start(); err != nil {
		logging.Error("Failed to start dependency probes", "error", err)
		os.Exit(1)
	}
	defer probes.Stop()

	httpHandler := handlers.NewHTTPHandler(analyzer, router, store, validator, healthChecker)
	srv := server.NewServer(cfg, httpHandler)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logging.Info("Received shutdown signal", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			logging.Error("Server failed", "error", err)
			probes.Stop()
			_ = loggingService.Close()
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Server shutdown failed", "error", err)
	}
}
