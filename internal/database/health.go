package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// Pinger reports the reachability of both stores.
type Pinger struct {
	Pool  *pgxpool.Pool
	Redis *redis.Client
}

// Health pings every configured store and returns "ok" or the error text per store.
func (p Pinger) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := make(map[string]string, 2)
	if p.Pool != nil {
		status["postgres"] = errText(p.Pool.Ping(ctx))
	}
	if p.Redis != nil {
		status["redis"] = errText(p.Redis.Ping(ctx).Err())
	}
	return status
}

func errText(err error) string {
	if err != nil {
		return err.Error()
	}
	return "ok"
}
