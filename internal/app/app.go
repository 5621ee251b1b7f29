// Package app wires configuration, logging, stores and the service together
// for the CLI commands.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"gorm.io/gorm"

	"github.com/goliatone/go-scannergen/internal/config"
	"github.com/goliatone/go-scannergen/internal/logger"
	"github.com/goliatone/go-scannergen/pkg/bundle"
	"github.com/goliatone/go-scannergen/pkg/model"
	"github.com/goliatone/go-scannergen/pkg/render"
	"github.com/goliatone/go-scannergen/pkg/service"
	"github.com/goliatone/go-scannergen/pkg/store"
	"github.com/goliatone/go-scannergen/pkg/store/filestore"
	"github.com/goliatone/go-scannergen/pkg/store/memory"
	"github.com/goliatone/go-scannergen/pkg/store/redisstore"
	"github.com/goliatone/go-scannergen/pkg/store/sqlstore"
)

type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Store   store.Store
	Service *service.Service

	closers []func() error
}

// New opens the configured stores and builds the service. A nil log
// discards output.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	a := &App{Config: cfg, Log: log}

	seed, err := a.loadSeed(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.openStore(ctx, seed); err != nil {
		_ = a.Close()
		return nil, err
	}

	selector, err := render.NewManifestSelector(render.DefaultManifest())
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	opts := []service.Option{
		service.WithLogger(log.SugaredLogger.Desugar()),
		service.WithMemoSize(cfg.CacheSize()),
		service.WithThemeSelector(selector, cfg.Theme.Name, cfg.Theme.Variant),
	}
	if _, ok := a.Store.(store.BrandingSource); !ok && seed != nil {
		opts = append(opts, service.WithBranding(seed.Branding))
	}
	a.Service = service.New(a.Store, opts...)
	return a, nil
}

func (a *App) loadSeed(ctx context.Context) (*model.Bundle, error) {
	if a.Config.Store.Seed == "" {
		return nil, nil
	}
	src, err := bundle.SourceFor(a.Config.Store.Seed)
	if err != nil {
		return nil, err
	}
	loader := bundle.NewLoader()
	if src.Kind() == bundle.SourceKindURL {
		loader = bundle.NewLoader(bundle.WithHTTP(http.DefaultClient))
	}
	b, err := loader.LoadBundle(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("app: seed: %w", err)
	}
	return &b, nil
}

func (a *App) openStore(ctx context.Context, seed *model.Bundle) error {
	cfg := a.Config
	log := a.Log.With("store_driver", cfg.Store.Driver)

	switch cfg.Store.Driver {
	case config.DriverMemory:
		var b model.Bundle
		if seed != nil {
			b = *seed
		}
		a.Store = memory.New(b)
	case config.DriverFile:
		fs, err := filestore.New(cfg.Store.Path)
		if err != nil {
			return err
		}
		a.Store = fs
	case config.DriverSQLite, config.DriverPostgres:
		db, err := openSQL(cfg)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			a.closers = append(a.closers, sqlDB.Close)
		}
		st, err := sqlstore.New(db)
		if err != nil {
			return err
		}
		if seed != nil {
			if err := seedIfEmpty(ctx, st, *seed); err != nil {
				return err
			}
		}
		a.Store = st
	default:
		return fmt.Errorf("app: unknown store driver %q", cfg.Store.Driver)
	}
	log.Info("store opened", "store_path", cfg.Store.Path, "store_dsn", cfg.Store.DSN)

	if cfg.Answers.Driver != config.DriverRedis {
		return nil
	}
	client, err := redisstore.Dial(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, client.Close)
	var opts []redisstore.Option
	if cfg.Redis.Prefix != "" {
		opts = append(opts, redisstore.WithPrefix(cfg.Redis.Prefix))
	}
	if cfg.Answers.TTL > 0 {
		opts = append(opts, redisstore.WithTTL(cfg.Answers.TTL))
	}
	answers, err := redisstore.New(client, opts...)
	if err != nil {
		return err
	}
	a.Store = withAnswers(a.Store, answers)
	log.Info("answers stored in redis", "redis_addr", cfg.Redis.Addr, "redis_db", cfg.Redis.DB)
	return nil
}

// brandedComposite keeps the template store's branding when answers move to
// another backend.
type brandedComposite struct {
	store.Composite
	store.BrandingSource
}

func withAnswers(template store.Store, answers store.AnswerStore) store.Store {
	composite := store.Composite{SectionStore: template, QuestionStore: template, AnswerStore: answers}
	if branding, ok := template.(store.BrandingSource); ok {
		return brandedComposite{Composite: composite, BrandingSource: branding}
	}
	return composite
}

func seedIfEmpty(ctx context.Context, st *sqlstore.Store, b model.Bundle) error {
	sections, err := st.ListSections(ctx)
	if err != nil {
		return err
	}
	questions, err := st.ListQuestions(ctx)
	if err != nil {
		return err
	}
	if len(sections) > 0 || len(questions) > 0 {
		return nil
	}
	return st.Seed(ctx, b)
}

// Close releases database and redis connections.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	a.Log.Sync()
	return errors.Join(errs...)
}

func openSQL(cfg *config.Config) (*gorm.DB, error) {
	if cfg.Store.Driver == config.DriverPostgres {
		return sqlstore.OpenPostgres(cfg.Store.DSN)
	}
	return sqlstore.OpenSQLite(cfg.Store.Path)
}
