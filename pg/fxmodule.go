package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

// Module provides the pg configuration and connection pool for fx
// applications. The pool is verified with a ping on start and closed on
// stop.
var Module = fx.Module("pg",
	fx.Provide(
		NewConfig,
		newFxPool,
	),
)

func newFxPool(lc fx.Lifecycle, cfg *Config) (*pgxpool.Pool, error) {
	// pgxpool connects lazily, so creating the pool here is cheap; the
	// start hook is where connectivity is actually verified.
	pool, err := NewPool(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return pool.Ping(ctx)
		},
		OnStop: func(context.Context) error {
			pool.Close()
			return nil
		},
	})
	return pool, nil
}
