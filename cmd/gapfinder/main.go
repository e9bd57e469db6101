// Command gapfinder finds research gaps in academic PDF papers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/backend"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/config/file"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/export"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/metrics/prometheus"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/pdf"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/gapfinder-cli/internal/adapters/driving/cli"
	"github.com/custodia-labs/gapfinder-cli/internal/core/ports/driven"
	"github.com/custodia-labs/gapfinder-cli/internal/core/services"
	"github.com/custodia-labs/gapfinder-cli/internal/logger"
	"github.com/custodia-labs/gapfinder-cli/internal/postprocessors/chunker"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// envEmbeddingAPIKey supplies the key for a hosted embedding provider.
const envEmbeddingAPIKey = "GAPFINDER_EMBEDDING_API_KEY"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)
	cli.SetBootstrap(bootstrap)

	if err := cli.Execute(ctx); err != nil {
		os.Exit(1)
	}
}

// bootstrap is the composition root: it wires driven adapters into the
// core services for one run.
func bootstrap(configDir string) (*cli.Services, error) {
	if configDir == "" {
		dir, err := file.DefaultConfigDir()
		if err != nil {
			return nil, err
		}
		configDir = dir
	}

	configStore, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	prompts, err := file.NewPromptStore(filepath.Join(configDir, "prompts"))
	if err != nil {
		return nil, fmt.Errorf("loading prompts: %w", err)
	}

	settingsService := services.NewSettingsService(configStore)
	settings, err := settingsService.Get()
	if err != nil {
		return nil, fmt.Errorf("reading settings: %w", err)
	}
	if key := os.Getenv(envEmbeddingAPIKey); key != "" {
		settings.Embedding.APIKey = key
	}

	var embedder driven.EmbeddingService
	if svc, err := ai.CreateEmbeddingService(&settings.Embedding); err != nil {
		logger.Warn("embeddings disabled: %v", err)
	} else if svc != nil {
		embedder = svc
	}

	readers := []driven.PDFReader{pdf.NewNativeReader()}
	if pdf.CheckAvailable() == nil {
		readers = append(readers, pdf.NewPopplerReader())
	}

	recorder := prometheus.NewRecorder()
	backends := backend.NewFactory(prompts, nil)

	analysis := services.NewAnalysisService(services.AnalysisConfig{
		Extractor:          services.NewExtractor(pdf.NewFallbackReader(readers...)),
		Chunker:            chunker.FromSettings(settings.Chunking),
		Embedder:           embedder,
		VectorIndexFactory: memory.VectorIndexFactory{},
		Backends:           backends,
		Metrics:            recorder,
		Settings:           *settings,
	})

	return &cli.Services{
		Analysis: analysis,
		Backends: services.NewBackendStatusService(backends, *settings),
		Settings: settingsService,
		Export:   services.NewExportService(export.All()...),
		Prompts:  prompts,
		Metrics:  recorder.Handler(),
	}, nil
}
