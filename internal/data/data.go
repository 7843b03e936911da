package data

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/lk2023060901/offer-sourcing/internal/conf"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/logger"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/milvus"
	"github.com/lk2023060901/offer-sourcing/internal/pkg/redis"
)

// Data holds the shared backing stores. Each client is nil when its
// section is disabled.
type Data struct {
	RedisClient  *redis.Client
	MilvusClient *milvus.Client
	Logger       *logger.Logger
}

func NewData(config *conf.Config, log *logger.Logger) (*Data, func(), error) {
	if log == nil {
		log = logger.L()
	}
	d := &Data{Logger: log}

	if config.Redis.Enabled {
		rc := config.Redis.Config
		client, err := redis.New(&rc, log.Named("redis"))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
		d.RedisClient = client
	}

	if config.Milvus.Enabled {
		mc := config.Milvus.Config
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		client, err := milvus.New(ctx, &mc, log.Named("milvus"))
		cancel()
		if err != nil {
			d.closeRedis()
			return nil, nil, fmt.Errorf("failed to connect to milvus: %w", err)
		}
		d.MilvusClient = client
	}

	cleanup := func() {
		log.Info("closing data resources")
		d.closeRedis()
		if d.MilvusClient != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := d.MilvusClient.Close(ctx); err != nil {
				log.Error("failed to close milvus", zap.Error(err))
			}
		}
	}

	return d, cleanup, nil
}

func (d *Data) closeRedis() {
	if d.RedisClient == nil {
		return
	}
	if err := d.RedisClient.Close(); err != nil {
		d.Logger.Error("failed to close redis", zap.Error(err))
	}
}
