package main

import (
	"fmt"
	"log"
	"os"

	"medintake/internal/config"
	"medintake/internal/handler"
	"medintake/internal/pipeline"
	"medintake/internal/router"
	"medintake/internal/schema"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	registry, err := pipeline.NewRegistry(cfg)
	if err != nil {
		return fmt.Errorf("failed to build providers: %w", err)
	}

	// Optional default form template. Without one, runs complete with
	// pdf_filled=false unless the request carries its own template.
	var template []byte
	if cfg.Filler.TemplatePath != "" {
		template, err = os.ReadFile(cfg.Filler.TemplatePath)
		if err != nil {
			return fmt.Errorf("failed to read form template: %w", err)
		}
		log.Printf("Loaded form template %s (%d bytes)", cfg.Filler.TemplatePath, len(template))
	} else {
		log.Printf("No form template configured; filling requires a per-request template")
	}

	limiter := pipeline.NewLimiterFromConfig(cfg)
	processor := pipeline.NewProcessor(cfg, registry, limiter, template)

	// Initialize handlers
	processH := handler.NewProcessHandler(processor, cfg.Server.MaxUploadMB)
	providersH := handler.NewProvidersHandler(registry)
	exportH := handler.NewExportHandler(schema.V1())
	healthH := handler.NewHealthHandler(registry)

	// Setup router
	r := router.Setup(cfg, processH, providersH, exportH, healthH)

	log.Printf("Server starting on %s", cfg.Server.Port)
	if err := r.Run(cfg.Server.Port); err != nil {
		return fmt.Errorf("server failed: %w", err)
	}

	return nil
}
