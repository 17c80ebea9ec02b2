package core

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"time"

	"github.com/jo-hoe/termreport/internal/attachments"
	"github.com/jo-hoe/termreport/internal/backend/commandstructure"
	"github.com/jo-hoe/termreport/internal/backend/database"
	"github.com/jo-hoe/termreport/internal/report"
	"github.com/jo-hoe/termreport/internal/rows"

	// registers the preview pipeline commands
	_ "github.com/jo-hoe/termreport/internal/backend/commands"
)

// PreviewURLPrefix is the path under which preview references are served
const PreviewURLPrefix = "/previews/"

type CoreService struct {
	config          *ServiceConfig
	databaseService database.DatabaseService
	pipeline        *commandstructure.CommandInvoker
	renderer        *report.Renderer
	location        *time.Location
	sessions        *SessionStore
}

func NewCoreService(config *ServiceConfig) (*CoreService, error) {
	location, err := config.Location()
	if err != nil {
		return nil, err
	}
	pipeline, err := commandstructure.NewCommandInvokerFromConfigs(commandstructure.DefaultRegistry, config.PipelineConfigs())
	if err != nil {
		return nil, fmt.Errorf("failed to build preview pipeline: %w", err)
	}
	renderer, err := report.NewRenderer()
	if err != nil {
		return nil, err
	}
	databaseService, err := database.NewDatabase(config.Database.Type, config.Database.ConnectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	slog.Info("preview store initialized", "type", config.Database.Type, "pipeline", pipeline.Names())

	service := &CoreService{
		config:          config,
		databaseService: databaseService,
		pipeline:        pipeline,
		renderer:        renderer,
		location:        location,
	}
	service.sessions = NewSessionStore(config.SessionTTL, service.newFormController)
	return service, nil
}

// Session returns the form controller for a browser session.
func (service *CoreService) Session(id string) (*FormController, string) {
	return service.sessions.Get(id)
}

// GetPreview returns the bytes behind a live preview reference.
func (service *CoreService) GetPreview(ref string) (*database.Preview, error) {
	return service.databaseService.GetPreview(ref)
}

// ReportStylesheet returns the CSS used by rendered reports.
func (service *CoreService) ReportStylesheet() (template.HTML, error) {
	return service.renderer.Stylesheet()
}

func (service *CoreService) Config() *ServiceConfig {
	return service.config
}

// StartSweeper evicts idle sessions until ctx is done.
func (service *CoreService) StartSweeper(ctx context.Context) {
	interval := service.config.SessionTTL / 4
	if interval < time.Second {
		interval = time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				service.sessions.Sweep(now)
			}
		}
	}()
}

// Close releases every session's previews and closes the preview store.
func (service *CoreService) Close() error {
	service.sessions.Close()
	return service.databaseService.Close()
}

func (service *CoreService) newFormController() *FormController {
	manager := attachments.NewManager(service.databaseService, service.pipeline, PreviewURLPrefix)
	return NewFormController(rows.NewRegistry(service.config.DefaultRows), manager, service.renderer, service.location)
}
