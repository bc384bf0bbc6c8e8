package storage

import (
	"context"
	"fmt"

	"gator-social/internal/logging"

	"go.uber.org/zap"
)

// Open builds the backend named by kind. dsn is interpreted per backend:
// a file path or URL for SQL, a connection URI for mongo, an address for redis.
func Open(ctx context.Context, kind, dsn, namespace string, logger *zap.Logger) (Backend, error) {
	logger = logging.OrNop(logger).Named("storage")
	switch kind {
	case "", "memory":
		return NewMemoryBackend(), nil
	case "sqlite", "sqlite3":
		return NewSQLBackend(ctx, "sqlite3", dsn, logger)
	case "postgres":
		return NewSQLBackend(ctx, "postgres", dsn, logger)
	case "mongo", "mongodb":
		return NewMongoBackend(ctx, dsn, namespace, logger)
	case "redis":
		return DialRedis(dsn, namespace, logger)
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}
