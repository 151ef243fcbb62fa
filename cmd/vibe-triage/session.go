package main

import (
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/inodb/vibe-triage/internal/cache"
	"github.com/inodb/vibe-triage/internal/clinvar"
	"github.com/inodb/vibe-triage/internal/duckdb"
	"github.com/inodb/vibe-triage/internal/ratelimit"
)

// newLogger builds the console logger on stderr.
func newLogger() (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	if viper.GetBool("log.verbose") {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.DisableStacktrace = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

func limiterConfig() (ratelimit.Config, error) {
	cfg := ratelimit.Config{
		Strategy:       ratelimit.Strategy(viper.GetString("ratelimit.strategy")),
		MinInterval:    viper.GetDuration("ratelimit.min_interval"),
		RequestsPerSec: viper.GetFloat64("ratelimit.requests_per_second"),
		Burst:          viper.GetInt("ratelimit.burst"),
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("ratelimit config: %w", err)
	}
	return cfg, nil
}

// openStore opens the significance store named by cache.path. The DuckDB
// store is returned separately so a run can export into the same database.
// A cache database that is not a DuckDB file is moved aside and replaced
// by an empty one, matching how an unreadable JSON cache starts empty.
func openStore(path string, logger *zap.Logger) (cache.Store, *duckdb.Store, error) {
	if !cache.IsDuckDB(path) {
		return cache.NewFileStore(path), nil, nil
	}
	db, aside, err := duckdb.OpenOrRecover(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open cache database: %w", err)
	}
	if aside != "" {
		logger.Warn("cache database was unreadable, starting with empty significance cache",
			zap.String("path", path),
			zap.String("moved_to", aside))
	}
	return db, db, nil
}

// session holds the cache and client shared by the commands that resolve
// identifiers.
type session struct {
	cache  *cache.Cache
	db     *duckdb.Store // non-nil when the cache lives in DuckDB
	client *clinvar.Client
	logger *zap.Logger
}

func openSession(logger *zap.Logger) (*session, error) {
	rl, err := limiterConfig()
	if err != nil {
		return nil, err
	}

	path := viper.GetString("cache.path")
	store, db, err := openStore(path, logger)
	if err != nil {
		return nil, err
	}

	c := cache.Open(store, logger.Named("cache"))
	logger.Info("opened significance cache", zap.String("path", path), zap.Int("entries", c.Len()))

	client := clinvar.NewClient(c, ratelimit.NewLimiter(rl))
	client.SetBaseURL(viper.GetString("clinvar.base_url"))
	client.SetHTTPClient(&http.Client{Timeout: viper.GetDuration("clinvar.timeout")})
	client.SetLogger(logger.Named("clinvar"))

	return &session{cache: c, db: db, client: client, logger: logger}, nil
}

// exportStore returns a DuckDB store for path, reusing the cache database
// when both point at the same file. The returned func releases it.
func (s *session) exportStore(path string) (*duckdb.Store, func() error, error) {
	if s.db != nil && filepath.Clean(s.db.Path()) == filepath.Clean(path) {
		return s.db, func() error { return nil }, nil
	}
	db, err := duckdb.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open export database: %w", err)
	}
	return db, db.Close, nil
}

func (s *session) logStats() {
	st := s.client.Stats()
	s.logger.Info("clinvar lookups",
		zap.Int("cache_hits", st.CacheHits),
		zap.Int("remote_calls", st.RemoteCalls),
		zap.Int("found", st.Found),
		zap.Int("not_found", st.NotFound),
		zap.Int("api_errors", st.APIErrors),
		zap.Int("errors", st.Errors))
}

// Close flushes the cache and releases its store.
func (s *session) Close() error {
	return s.cache.Close()
}
