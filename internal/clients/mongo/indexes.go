package mongo

import (
	"context"
	"fmt"

	"scribes/internal/logger"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// ensureIndexes creates models on coll. Existing identical indexes are kept.
func ensureIndexes(parent context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	ctx, cancel := repoCtx(parent)
	defer cancel()

	for _, m := range models {
		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				logger.L().Debug("index already exists, continuing", "collection", coll.Name())
				continue
			}
			logger.L().Error("failed to create index", "collection", coll.Name(), "error", err)
			return fmt.Errorf("failed to create %s collection index: %w", coll.Name(), err)
		}
	}
	return nil
}

// closeCursor closes cur and logs a failure.
func closeCursor(ctx context.Context, cur *mongo.Cursor) {
	if err := cur.Close(ctx); err != nil {
		logger.L().Error("failed to close cursor", "error", err)
	}
}
