// Package main provides the CLI entrypoint for hafalan.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/cache"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/config"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/model"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/report"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/segment"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/store"
	"github.com/akhsyaUbaidika/analisa-hafalan-al-muhajirin/internal/weights"
)

const (
	defaultDriver        = string(store.DriverSQLite)
	defaultMongoDatabase = "hafalan"
	defaultKeyMode       = string(store.KeyByPeriod)
	defaultScheme        = string(weights.SchemeCategory)
	defaultShortWeight   = 1.0
	defaultMediumWeight  = 1.5
	defaultLongWeight    = 2.0
	defaultLogLevel      = "warn"
	defaultLogFormat     = "text"
	dotEnvPath           = ".env"
)

// settings holds the effective configuration after merging defaults, the
// config file, the environment and flags.
type settings struct {
	driver        string
	dbPath        string
	mongoURI      string
	mongoDatabase string
	keyMode       string
	redisAddr     string
	cacheTTL      string
	seed          int64
	restarts      int
	maxIter       int
	scheme        string
	shortWeight   float64
	mediumWeight  float64
	longWeight    float64
	logLevel      string
	logFormat     string
}

var (
	flagSettings settings

	periodWeek  int
	periodMonth string
	periodYear  int

	dashboardGuardian bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "hafalan",
		Short:         "Memorization progress tracking and segmentation",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runDashboardCmd,
	}

	defaults := segment.DefaultOptions()
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&flagSettings.driver, "driver", defaultDriver, "record store driver (sqlite or mongo)")
	pf.StringVar(&flagSettings.dbPath, "db", config.DefaultDBPath(), "sqlite database path")
	pf.StringVar(&flagSettings.mongoURI, "mongo-uri", "", "mongo connection uri")
	pf.StringVar(&flagSettings.mongoDatabase, "mongo-database", defaultMongoDatabase, "mongo database name")
	pf.StringVar(&flagSettings.keyMode, "key-mode", defaultKeyMode, "record identity (period or name)")
	pf.StringVar(&flagSettings.redisAddr, "redis-addr", "", "redis address for the segmentation cache (empty disables)")
	pf.StringVar(&flagSettings.cacheTTL, "cache-ttl", cache.DefaultTTL.String(), "segmentation cache ttl")
	pf.Int64Var(&flagSettings.seed, "seed", defaults.Seed, "k-means random seed")
	pf.IntVar(&flagSettings.restarts, "restarts", defaults.Restarts, "k-means restarts")
	pf.IntVar(&flagSettings.maxIter, "max-iter", defaults.MaxIter, "k-means iteration limit per restart")
	pf.StringVar(&flagSettings.scheme, "scheme", defaultScheme, "verse volume scheme (category or juz)")
	pf.Float64Var(&flagSettings.shortWeight, "weight-short", defaultShortWeight, "difficulty weight for Short")
	pf.Float64Var(&flagSettings.mediumWeight, "weight-medium", defaultMediumWeight, "difficulty weight for Medium")
	pf.Float64Var(&flagSettings.longWeight, "weight-long", defaultLongWeight, "difficulty weight for Long")
	pf.StringVar(&flagSettings.logLevel, "log-level", defaultLogLevel, "log level")
	pf.StringVar(&flagSettings.logFormat, "log-format", defaultLogFormat, "log format (text or json)")
	pf.IntVar(&periodWeek, "week", 0, "period week 1-5 (default: current)")
	pf.StringVar(&periodMonth, "month", "", "period month (default: current)")
	pf.IntVar(&periodYear, "year", 0, "period year (default: current)")

	rootCmd.Flags().BoolVar(&dashboardGuardian, "guardian", false, "show the guardian view")

	rootCmd.AddCommand(newInputCmd())
	rootCmd.AddCommand(newAddCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newSegmentCmd())
	rootCmd.AddCommand(newGuardianCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newPeriodsCmd())
	rootCmd.AddCommand(newConfigCmd())

	return rootCmd
}

// loadSettings merges the config file and environment under the flags.
func loadSettings(cmd *cobra.Command) (settings, error) {
	if err := config.LoadDotEnv(dotEnvPath); err != nil {
		return settings{}, err
	}
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return settings{}, fmt.Errorf("failed to load config: %w", err)
	}
	config.ApplyEnv(&fileCfg, os.LookupEnv)
	return mergeSettings(cmd, flagSettings, fileCfg), nil
}

func mergeSettings(cmd *cobra.Command, s settings, fileCfg config.FileConfig) settings {
	applyStringConfig(cmd, "driver", &s.driver, fileCfg.Store.Driver)
	applyStringConfig(cmd, "db", &s.dbPath, fileCfg.Store.Path)
	applyStringConfig(cmd, "mongo-uri", &s.mongoURI, fileCfg.Store.MongoURI)
	applyStringConfig(cmd, "mongo-database", &s.mongoDatabase, fileCfg.Store.MongoDatabase)
	applyStringConfig(cmd, "key-mode", &s.keyMode, fileCfg.Store.KeyMode)
	applyStringConfig(cmd, "redis-addr", &s.redisAddr, fileCfg.Cache.RedisAddr)
	applyStringConfig(cmd, "cache-ttl", &s.cacheTTL, fileCfg.Cache.TTL)
	applyInt64Config(cmd, "seed", &s.seed, fileCfg.Segment.Seed)
	applyIntConfig(cmd, "restarts", &s.restarts, fileCfg.Segment.Restarts)
	applyIntConfig(cmd, "max-iter", &s.maxIter, fileCfg.Segment.MaxIter)
	applyStringConfig(cmd, "scheme", &s.scheme, fileCfg.Weights.Scheme)
	applyFloatConfig(cmd, "weight-short", &s.shortWeight, fileCfg.Weights.Short)
	applyFloatConfig(cmd, "weight-medium", &s.mediumWeight, fileCfg.Weights.Medium)
	applyFloatConfig(cmd, "weight-long", &s.longWeight, fileCfg.Weights.Long)
	applyStringConfig(cmd, "log-level", &s.logLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "log-format", &s.logFormat, fileCfg.Log.Format)
	return s
}

// weightTable builds the difficulty table from s.
func weightTable(s settings) (*weights.Table, error) {
	scheme, err := weights.ParseScheme(s.scheme)
	if err != nil {
		return nil, err
	}
	table := weights.Default()
	table.Scheme = scheme
	for c, w := range map[model.Category]float64{
		model.CategoryShort:  s.shortWeight,
		model.CategoryMedium: s.mediumWeight,
		model.CategoryLong:   s.longWeight,
	} {
		if err := table.SetWeight(c, w); err != nil {
			return nil, err
		}
	}
	return table, nil
}

func validateSettings(s settings) error {
	if s.restarts <= 0 {
		return fmt.Errorf("--restarts must be > 0")
	}
	if s.maxIter <= 0 {
		return fmt.Errorf("--max-iter must be > 0")
	}
	if store.Driver(s.driver) == store.DriverSQLite && s.dbPath == "" {
		return fmt.Errorf("--db must not be empty")
	}
	return nil
}

// resolvePeriod applies the period flags over the current period.
func resolvePeriod(cmd *cobra.Command, now time.Time) (model.Period, error) {
	p := model.CurrentPeriod(now)
	if cmd.Flags().Changed("week") {
		if periodWeek < 1 || periodWeek > 5 {
			return model.Period{}, fmt.Errorf("--week must be between 1 and 5")
		}
		p.Week = periodWeek
	}
	if cmd.Flags().Changed("month") {
		month, err := model.ParseMonth(periodMonth)
		if err != nil {
			return model.Period{}, fmt.Errorf("invalid --month value: %w", err)
		}
		p.Month = month
	}
	if cmd.Flags().Changed("year") {
		if periodYear < 2000 || periodYear > 2100 {
			return model.Period{}, fmt.Errorf("--year must be between 2000 and 2100")
		}
		p.Year = periodYear
	}
	return p, nil
}

// app bundles the opened backends of one command invocation.
type app struct {
	log    *logrus.Logger
	store  store.RecordStore
	cache  cache.SegmentCache
	table  *weights.Table
	svc    *report.Service
	period model.Period
}

func openApp(cmd *cobra.Command) (*app, error) {
	s, err := loadSettings(cmd)
	if err != nil {
		return nil, err
	}
	if err := validateSettings(s); err != nil {
		return nil, err
	}
	log, err := config.NewLogger(s.logLevel, s.logFormat, os.Stderr)
	if err != nil {
		return nil, err
	}
	period, err := resolvePeriod(cmd, time.Now())
	if err != nil {
		return nil, err
	}
	keyMode, err := store.ParseKeyMode(s.keyMode)
	if err != nil {
		return nil, err
	}
	table, err := weightTable(s)
	if err != nil {
		return nil, err
	}
	ttl, err := time.ParseDuration(s.cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("invalid cache ttl %q: %w", s.cacheTTL, err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, store.Config{
		Driver:        store.Driver(s.driver),
		Path:          s.dbPath,
		MongoURI:      s.mongoURI,
		MongoDatabase: s.mongoDatabase,
		KeyMode:       keyMode,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	segCache, err := cache.Open(ctx, s.redisAddr, ttl)
	if err != nil {
		log.WithError(err).Warn("segmentation cache disabled")
		segCache = cache.Noop{}
	}
	log.WithFields(logrus.Fields{"driver": s.driver, "key_mode": keyMode, "period": period.String()}).Debug("store opened")

	return &app{
		log:   log,
		store: st,
		cache: segCache,
		table: table,
		svc: &report.Service{
			Store: st,
			Cache: segCache,
			Segmenter: segment.Segmenter{
				Weights: table,
				Options: segment.Options{Seed: s.seed, Restarts: s.restarts, MaxIter: s.maxIter},
			},
			KeyMode: keyMode,
			Logger:  log,
		},
		period: period,
	}, nil
}

func (a *app) Close() {
	if cerr := a.cache.Close(); cerr != nil {
		logErrf("failed to close cache: %v\n", cerr)
	}
	if cerr := a.store.Close(); cerr != nil {
		logErrf("failed to close store: %v\n", cerr)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyInt64Config(cmd *cobra.Command, name string, target, value *int64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	defaults := segment.DefaultOptions()
	return fmt.Sprintf(`# hafalan configuration
# Uncomment a value to enable it. HAFALAN_* environment variables override
# this file and CLI flags override both.

[store]
# driver = %q             # sqlite or mongo
# path = %q
# mongo-uri = "mongodb://localhost:27017"
# mongo-database = %q
# key-mode = %q           # period (one record per student per week) or name (legacy)

[cache]
# redis-addr = "localhost:6379"   # empty disables the segmentation cache
# ttl = %q

[segment]
# seed = %d
# restarts = %d
# max-iter = %d

[weights]
# scheme = %q           # category or juz
# short = %.1f
# medium = %.1f
# long = %.1f

[log]
# level = %q
# format = %q             # text or json
`,
		defaultDriver,
		config.DefaultDBPath(),
		defaultMongoDatabase,
		defaultKeyMode,
		cache.DefaultTTL.String(),
		defaults.Seed,
		defaults.Restarts,
		defaults.MaxIter,
		defaultScheme,
		defaultShortWeight,
		defaultMediumWeight,
		defaultLongWeight,
		defaultLogLevel,
		defaultLogFormat,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
