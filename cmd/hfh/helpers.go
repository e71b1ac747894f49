package main

import (
	"context"
	"fmt"
	"os"
	"os/user"
	"runtime"

	"github.com/spf13/viper"

	"github.com/fontanka/edc-check/internal/classification"
	"github.com/fontanka/edc-check/internal/cli"
	"github.com/fontanka/edc-check/internal/common"
	"github.com/fontanka/edc-check/internal/config"
	"github.com/fontanka/edc-check/internal/dedup"
	"github.com/fontanka/edc-check/internal/engine"
	"github.com/fontanka/edc-check/internal/model"
	"github.com/fontanka/edc-check/internal/override"
	"github.com/fontanka/edc-check/internal/service"
	"github.com/fontanka/edc-check/internal/source"
	"github.com/fontanka/edc-check/internal/storage"
	"github.com/fontanka/edc-check/internal/window"
)

func setDefaults() {
	horizons := window.DefaultHorizons()
	classifier := classification.DefaultConfig()

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
	viper.SetDefault("database.path", config.DefaultDatabasePath)
	viper.SetDefault("tuning.path", config.DefaultTuningPath)
	viper.SetDefault("classifier.fuzzy_threshold", classifier.FuzzyThreshold)
	viper.SetDefault("classifier.cache_size", classifier.CacheSize)
	viper.SetDefault("window.short_days", horizons.ShortDays)
	viper.SetDefault("window.long_days", horizons.LongDays)
	viper.SetDefault("window.post_list_days", horizons.PostListDays)
	viper.SetDefault("dedup.strategy", string(dedup.StrategyTerm))
	viper.SetDefault("engine.workers", runtime.NumCPU())
}

// initStorage opens the review log database and brings its schema up to date.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

func loadLayout() (source.Layout, error) {
	layout := source.DefaultLayout()
	if !viper.IsSet("layout") {
		return layout, nil
	}
	if err := viper.UnmarshalKey("layout", &layout); err != nil {
		return layout, fmt.Errorf("%w: layout: %v", common.ErrInvalidConfig, err)
	}
	return layout, nil
}

// loadDataset reads the main and adverse event tables named in the config.
// The adverse event table is optional.
func loadDataset() (*source.Dataset, error) {
	mainPath := viper.GetString("data.main")
	if mainPath == "" {
		return nil, common.NewUserError(
			"No main table configured. Set data.main in the config or pass --main.", common.ErrInvalidConfig)
	}

	mainTable, err := source.ReadCSVFile(config.ExpandPath(mainPath))
	if err != nil {
		return nil, common.NewUserError("Could not read the main table", err)
	}

	var ae source.Table
	if aePath := viper.GetString("data.ae"); aePath != "" {
		ae, err = source.ReadCSVFile(config.ExpandPath(aePath))
		if err != nil {
			return nil, common.NewUserError("Could not read the adverse event table", err)
		}
	}

	layout, err := loadLayout()
	if err != nil {
		return nil, err
	}

	return source.NewDataset(mainTable, ae, layout)
}

func openTuning() (*config.TuningStore, error) {
	return config.OpenTuningStore(config.ExpandPath(viper.GetString("tuning.path")))
}

func buildClassifier(tuning *config.TuningStore) (*classification.TermClassifier, error) {
	cfg := classification.Config{
		FuzzyThreshold: viper.GetFloat64("classifier.fuzzy_threshold"),
		CacheSize:      viper.GetInt("classifier.cache_size"),
	}
	return classification.NewTermClassifier(classification.DefaultVocabulary(), tuning.Tuning(), cfg)
}

func engineConfig() (engine.Config, error) {
	strategy, err := dedup.ParseStrategy(viper.GetString("dedup.strategy"))
	if err != nil {
		return engine.Config{}, fmt.Errorf("%w: %v", common.ErrInvalidConfig, err)
	}
	return engine.Config{
		DedupStrategy: strategy,
		Horizons: window.Horizons{
			ShortDays:    viper.GetInt("window.short_days"),
			LongDays:     viper.GetInt("window.long_days"),
			PostListDays: viper.GetInt("window.post_list_days"),
		},
		Workers: viper.GetInt("engine.workers"),
	}, nil
}

func reviewer() string {
	if name := viper.GetString("review.author"); name != "" {
		return name
	}
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return ""
}

// app is everything a command needs to summarize patients and record edits.
type app struct {
	storage    service.Storage
	overrides  *override.Store
	tuning     *config.TuningStore
	classifier *classification.TermClassifier
	engine     *engine.Engine
	config     engine.Config
}

// openApp loads the configured dataset, tuning and review log. withData false
// skips the dataset for commands that only touch the review log.
func openApp(ctx context.Context, withData bool) (*app, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, err
	}

	a := &app{storage: store}
	a.overrides = override.NewStore(store, override.WithAuthor(reviewer()))
	if err := a.overrides.Load(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	if !withData {
		return a, nil
	}

	if a.tuning, err = openTuning(); err != nil {
		_ = store.Close()
		return nil, err
	}
	if a.classifier, err = buildClassifier(a.tuning); err != nil {
		_ = store.Close()
		return nil, err
	}

	dataset, err := loadDataset()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	cfg, err := engineConfig()
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	a.config = cfg
	a.engine = engine.New(dataset, a.classifier, a.overrides, cfg)

	return a, nil
}

// summarizeAll runs every patient with a progress bar on stderr.
func (a *app) summarizeAll(ctx context.Context, showProgress bool) ([]model.PatientSummary, error) {
	total := len(a.engine.Dataset().PatientIDs())
	if !showProgress || total == 0 {
		return a.engine.GetAllPatientsSummary(ctx)
	}

	progress := cli.NewProgress(os.Stderr, total, "Summarizing patients")
	defer progress.Finish()

	cfg := a.config
	cfg.Progress = progress.Update
	return engine.New(a.engine.Dataset(), a.classifier, a.overrides, cfg).GetAllPatientsSummary(ctx)
}

func (a *app) Close() error {
	return a.storage.Close()
}
