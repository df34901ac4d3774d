package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"quickedit/internal/analysis"
	"quickedit/internal/cache"
	"quickedit/internal/config"
	"quickedit/internal/database"
	"quickedit/internal/llm/client"
	"quickedit/internal/logging"
	"quickedit/internal/models"
	"quickedit/internal/repositories"
	"quickedit/internal/services"
	"quickedit/internal/utils"
)

// App struct
type App struct {
	ctx context.Context
	cfg *config.Config
	log *logging.Logger
	db  *gorm.DB

	memory   services.MemoryService
	profiles services.ProfileService
	edits    *services.EditService
	projects *services.ProjectService
	git      *services.GitService

	keysOnce sync.Once
	keys     *services.KeyringService
	keysErr  error

	factoryOnce sync.Once
	factory     *client.ProviderFactory
	factoryErr  error
}

// NewApp loads configuration for cmd and wires every service.
func NewApp(cmd *cobra.Command) (*App, error) {
	if err := utils.LoadEnv(); err != nil {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(cmd, cwd)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(logging.Options{
		File:    cfg.Log.File,
		Level:   cfg.Log.Level,
		JSON:    cfg.Log.JSON,
		Console: strings.EqualFold(cfg.Log.Level, "debug"),
	})
	if err != nil {
		return nil, err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	app := &App{cfg: cfg, log: log}
	if err := app.startup(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

// startup opens the database and builds the pipeline.
func (a *App) startup(ctx context.Context) error {
	a.ctx = ctx

	gormLevel := logger.Warn
	if a.log.IsLevelEnabled(logrus.DebugLevel) {
		gormLevel = logger.Info
	}
	db, err := database.Init(database.Config{
		Path:     a.cfg.Database.Path,
		LogLevel: gormLevel,
		Log:      a.log,
	})
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	a.db = db

	a.memory = services.NewMemoryService(repositories.NewSessionMemoryRepository(db), a.cfg.Memory.MaxRecentChanges)
	a.profiles = services.NewProfileService(a.cfg.Provider, a.cfg.Model)
	if err := a.profiles.Startup(ctx); err != nil {
		return err
	}
	a.projects = services.NewProjectService(a.log)
	a.git = services.NewGitService()
	a.git.Startup(ctx)

	heuristics := analysis.DefaultHeuristics()
	if a.cfg.HeuristicsFile != "" {
		if heuristics, err = analysis.LoadHeuristics(a.cfg.HeuristicsFile); err != nil {
			return err
		}
	}
	analyzer, err := analysis.NewAnalyzer(heuristics)
	if err != nil {
		return err
	}

	var results *cache.ResultCache
	if a.cfg.Cache.Enabled {
		results = cache.New(a.cfg.Cache.Capacity, a.cfg.Cache.TTL)
	}

	a.edits = services.NewEditService(services.EditServiceOptions{
		Analyzer:  analyzer,
		Generator: client.NewGenerator(client.ModelFactoryFunc(a.chatModel), a.profiles, a.log),
		Memory:    a.memory,
		Cache:     results,
		Log:       a.log,
	})

	a.log.WithFields(logrus.Fields{
		"provider": a.cfg.Provider,
		"db":       a.cfg.Database.Path,
		"cache":    a.cfg.Cache.Enabled,
	}).Debug("app started")
	return nil
}

// chatModel resolves the API key on the first model call, so commands that
// never generate do not need one.
func (a *App) chatModel(ctx context.Context, profile models.GenerationProfile) (model.BaseChatModel, error) {
	a.factoryOnce.Do(func() {
		var ring *services.KeyringService
		if a.cfg.Provider != client.ProviderOllama && a.cfg.APIKey == "" {
			if r, err := a.Keys(); err == nil {
				ring = r
			} else {
				a.log.WithError(err).Debug("keyring unavailable")
			}
		}
		key, err := services.ResolveAPIKey(a.cfg.APIKey, a.cfg.Provider, ring)
		if err != nil {
			a.factoryErr = err
			return
		}
		a.factory = client.NewProviderFactory(client.ProviderConfig{
			Provider: a.cfg.Provider,
			APIKey:   key,
			BaseURL:  a.cfg.BaseURL,
			Model:    a.cfg.Model,
		})
	})
	if a.factoryErr != nil {
		return nil, a.factoryErr
	}
	return a.factory.ChatModel(ctx, profile)
}

func (a *App) Config() *config.Config             { return a.cfg }
func (a *App) Log() logrus.FieldLogger            { return a.log }
func (a *App) Edits() *services.EditService       { return a.edits }
func (a *App) Memory() services.MemoryService     { return a.memory }
func (a *App) Projects() *services.ProjectService { return a.projects }
func (a *App) Git() *services.GitService          { return a.git }

func (a *App) Keys() (*services.KeyringService, error) {
	a.keysOnce.Do(func() {
		a.keys, a.keysErr = services.OpenKeyring(a.cfg.Keyring.Backend)
	})
	return a.keys, a.keysErr
}

// Close releases the database and flushes the log file.
func (a *App) Close() error {
	var errs []error
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
		a.db = nil
	}
	if a.log != nil {
		if err := a.log.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
