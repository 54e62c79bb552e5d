package cli

import (
	"errors"

	"github.com/spf13/afero"

	"github.com/devbush/stockdesk/internal/adapters/journal"
	"github.com/devbush/stockdesk/internal/adapters/restapi"
	"github.com/devbush/stockdesk/internal/adapters/spreadsheet"
	"github.com/devbush/stockdesk/internal/application"
	"github.com/devbush/stockdesk/internal/config"
	"github.com/devbush/stockdesk/internal/ports"
)

// App holds all application dependencies
type App struct {
	Config  *config.Config
	Backend ports.Backend
	Journal ports.RunJournal
	Sheets  *spreadsheet.Files

	CatalogSvc   *application.CatalogService
	TxSvc        *application.TransactionService
	InventorySvc *application.InventoryService
	HistorySvc   *application.HistoryService
	DashboardSvc *application.DashboardService
	RunSvc       *application.RunService
}

// NewApp creates and wires up all dependencies against the configured backend
func NewApp(cfg *config.Config) (*App, error) {
	timeout, err := cfg.APITimeout()
	if err != nil {
		return nil, err
	}

	client, err := restapi.NewClient(cfg.API.BaseURL,
		restapi.WithToken(cfg.API.Token),
		restapi.WithTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}

	return newApp(cfg, client, afero.NewOsFs(), config.JournalDir())
}

func newApp(cfg *config.Config, backend ports.Backend, fs afero.Fs, journalDir string) (*App, error) {
	delay, err := cfg.BatchDelay()
	if err != nil {
		return nil, err
	}
	ttl, err := cfg.JournalTTL()
	if err != nil {
		return nil, err
	}

	settings := application.BatchSettings{
		ChunkSize:       cfg.Batch.ChunkSize,
		InterChunkDelay: delay,
	}

	// Create adapters
	runJournal := journal.NewFileJournal(fs, journalDir)
	sheets := spreadsheet.NewFiles(fs, spreadsheet.NewCSVCodec())
	resolver, err := application.NewProductResolver(backend, application.DefaultResolverSize)
	if err != nil {
		return nil, err
	}

	// Create services
	history := application.NewRecorder(backend, cfg.API.Operator)
	journaler := application.NewJournaler(runJournal, ttl)

	catalog := application.NewCatalogService(backend, history, journaler, settings, resolver)
	txs := application.NewTransactionService(backend, resolver, history, journaler, settings)
	inventory := application.NewInventoryService(backend, backend, history, journaler, settings)

	return &App{
		Config:       cfg,
		Backend:      backend,
		Journal:      runJournal,
		Sheets:       sheets,
		CatalogSvc:   catalog,
		TxSvc:        txs,
		InventorySvc: inventory,
		HistorySvc:   application.NewHistoryService(backend),
		DashboardSvc: application.NewDashboardService(backend),
		RunSvc:       application.NewRunService(runJournal, catalog, inventory, txs),
	}, nil
}

var globalApp *App

// GetApp returns the global app instance, creating it if needed
func GetApp() (*App, error) {
	if globalApp == nil {
		if globalConfig == nil {
			return nil, errors.New("configuration not loaded")
		}
		app, err := NewApp(globalConfig)
		if err != nil {
			return nil, err
		}
		globalApp = app
	}
	return globalApp, nil
}
