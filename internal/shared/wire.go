package shared

import (
	"context"
	"database/sql"

	"github.com/cockroachdb/errors"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	redisad "triposo/internal/adapters/redis"
	"triposo/internal/adapters/triposo"
	"triposo/internal/app"
	"triposo/internal/domain"
	"triposo/internal/query"
	mysqlrepo "triposo/internal/storage/mysql"
)

// Stack is the wired client side: transport, optional cache and miss log, and
// the API facade on top.
type Stack struct {
	API    *app.API
	Client *triposo.Client
	Misses domain.MissLog // nil without a DSN

	closers []func() error
}

// Close releases the cache and database connections. Later calls do nothing.
func (s *Stack) Close() {
	for _, c := range s.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
	s.closers = nil
}

// Policy maps the configured pager policy name.
func (c Config) Policy() app.TerminationPolicy {
	if c.PagerPolicy == "short" {
		return app.StopOnShortPage
	}
	return app.StopOnEmptyPage
}

// Build connects everything cfg names. An unreachable redis only disables
// caching; an unreachable database is an error.
func Build(ctx context.Context, cfg Config) (*Stack, error) {
	s := &Stack{}

	var opts []triposo.Option
	if cfg.EscapeQuery {
		opts = append(opts, triposo.WithBuilder(query.Escaped{}))
	}
	if cfg.RedisAddr != "" {
		cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		if err := cache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis unreachable, caching disabled")
			_ = cache.Close()
		} else {
			opts = append(opts, triposo.WithCache(cache, cfg.CacheTTL))
			s.closers = append(s.closers, cache.Close)
			log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("response cache ok")
		}
	}

	cl, err := triposo.New(cfg.Triposo(), opts...)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Client = cl

	apiOpts := []app.APIOption{app.WithTermination(cfg.Policy())}
	if cfg.MySQLDSN != "" {
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			s.Close()
			return nil, errors.Wrap(err, "sql.Open")
		}
		s.closers = append(s.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			s.Close()
			return nil, errors.Wrap(err, "db ping")
		}
		repo := mysqlrepo.New(db)
		if err := repo.Migrate(ctx); err != nil {
			s.Close()
			return nil, err
		}
		s.Misses = repo
		apiOpts = append(apiOpts, app.WithMissLog(repo))
		log.Info().Msg("miss log database ok")
	}

	s.API = app.NewAPI(cl, apiOpts...)
	return s, nil
}
