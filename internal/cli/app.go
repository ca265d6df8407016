package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/tabledesk/internal/assistant"
	"github.com/mesh-intelligence/tabledesk/internal/config"
	"github.com/mesh-intelligence/tabledesk/internal/paths"
	"github.com/mesh-intelligence/tabledesk/internal/sequence"
	"github.com/mesh-intelligence/tabledesk/internal/tasks"
	"github.com/mesh-intelligence/tabledesk/pkg/backend"
	"github.com/mesh-intelligence/tabledesk/pkg/tabular"
	"github.com/mesh-intelligence/tabledesk/pkg/types"
)

// skipSetup marks commands that run without configuration.
const skipSetup = "skip-setup"

// modelFactory builds the assistant model; tests replace it.
var modelFactory = func(ctx context.Context, apiKey, model string) (assistant.Model, error) {
	return assistant.NewGemini(ctx, apiKey, model)
}

// app carries per-invocation state shared by subcommands.
type app struct {
	flags     rootFlags
	configDir string
	viper     *viper.Viper
	settings  config.Settings
	logger    *zap.Logger

	store types.Store
	seq   *sequence.RedisSequence
	model assistant.Model
}

func (a *app) scope() paths.Scope {
	if a.flags.user {
		return paths.ScopeUser
	}
	return paths.ScopeProject
}

// setup resolves directories, loads config.yaml and builds the logger.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipSetup] != "" {
		return nil
	}
	configDir, err := paths.ResolveConfigDir(a.flags.configDir, a.scope())
	if err != nil {
		return fmt.Errorf("resolve config dir: %w", err)
	}
	v, err := config.Load(configDir)
	if err != nil {
		return err
	}
	if a.flags.verbose {
		v.Set(config.KeyLogLevel, "debug")
	}
	if a.flags.backend != "" {
		v.Set(config.KeyBackend, a.flags.backend)
	}
	s, err := config.Decode(v)
	if err != nil {
		return err
	}
	dataDir, err := paths.ResolveDataDir(a.flags.dataDir, s.DataDir, a.scope())
	if err != nil {
		return fmt.Errorf("resolve data dir: %w", err)
	}
	s.DataDir = dataDir

	logger, err := newLogger(s.Log.Level)
	if err != nil {
		return usage(err)
	}
	a.configDir, a.viper, a.settings, a.logger = configDir, v, s, logger
	a.logger.Debug("configuration loaded",
		zap.String("config_dir", configDir),
		zap.String("data_dir", dataDir),
		zap.String("backend", s.Backend))
	return nil
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	cfg.Level = lvl
	if lvl.Level() <= zapcore.DebugLevel {
		cfg.Sampling = nil
	}
	return cfg.Build()
}

func (a *app) log() *zap.Logger {
	if a.logger == nil {
		return zap.NewNop()
	}
	return a.logger
}

// openStore opens the configured backend once per invocation.
func (a *app) openStore(ctx context.Context) (types.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := backend.Open(ctx, a.settings.Store(), a.log())
	if err != nil {
		a.log().Error("opening store", zap.Error(err))
		return nil, err
	}
	a.store = s
	return s, nil
}

// sequence returns the Redis identifier sequence when one is configured.
func (a *app) sequence() (tabular.Sequence, error) {
	if a.settings.Sequence.RedisURL == "" {
		return nil, nil
	}
	if a.seq == nil {
		seq, err := sequence.NewRedisSequence(a.settings.Sequence.RedisURL)
		if err != nil {
			return nil, err
		}
		a.seq = seq
	}
	return a.seq, nil
}

func (a *app) resolver() tabular.Resolver {
	r := a.settings.Resolver()
	r.Logger = a.log()
	return r
}

func (a *app) prepareOptions() tabular.PrepareOptions {
	return tabular.PrepareOptions{Columns: a.settings.ColumnOptions(), Logger: a.log()}
}

func (a *app) tasks(ctx context.Context) (*tasks.Service, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	seq, err := a.sequence()
	if err != nil {
		return nil, err
	}
	return tasks.New(store, tasks.Options{
		Resolver: a.resolver(),
		Sequence: seq,
		Columns:  a.settings.ColumnOptions(),
		Logger:   a.log(),
	}), nil
}

// assistant builds the model from the configured key, falling back to the
// settings sheet.
func (a *app) assistant(ctx context.Context) (*assistant.Assistant, error) {
	store, err := a.openStore(ctx)
	if err != nil {
		return nil, err
	}
	settings, err := store.Read(ctx, types.SheetSettings)
	if err != nil && !errors.Is(err, types.ErrSheetNotFound) {
		return nil, err
	}
	if settings != nil {
		settings = tabular.NormalizeColumns(settings, a.settings.ColumnOptions())
	}
	key, err := assistant.ResolveAPIKey(a.settings.Assistant.APIKey, settings)
	if err != nil {
		return nil, err
	}
	model, err := modelFactory(ctx, key, a.settings.Assistant.Model)
	if err != nil {
		return nil, err
	}
	a.model = model
	seq, err := a.sequence()
	if err != nil {
		return nil, err
	}
	return assistant.New(model, store, assistant.Options{Sequence: seq, Logger: a.log()}), nil
}

func (a *app) teardown() error {
	var errs []error
	if c, ok := a.model.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	a.model = nil
	if a.seq != nil {
		errs = append(errs, a.seq.Close())
		a.seq = nil
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
		a.store = nil
	}
	if a.logger != nil {
		_ = a.logger.Sync()
	}
	return errors.Join(errs...)
}
