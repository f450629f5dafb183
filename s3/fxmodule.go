package s3

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Tracktor/tracktolib/logs"
)

// Module wires the S3 client into an fx application. It expects a
// *viper.Viper and a *zap.Logger in the graph.
var Module = fx.Module("s3",
	fx.Provide(
		NewConfig,
		newFxClient,
	),
)

func newFxClient(lc fx.Lifecycle, cfg *Config, log *zap.Logger) (*Client, error) {
	client, err := New(context.Background(), cfg, WithLogger(logs.NewZapLogger(log)))
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return client.Ping(ctx)
		},
	})
	return client, nil
}
