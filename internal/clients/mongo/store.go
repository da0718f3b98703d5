package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"scribes/internal/config"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const connectTimeout = 10 * time.Second

// ErrClosed is returned by Ping after Close.
var ErrClosed = errors.New("mongo store closed")

// Store owns the client and database handle for the process. It is built
// once by the entry point and handed to every repository.
type Store struct {
	client     *mongo.Client
	db         *mongo.Database
	replicaSet bool
	log        *slog.Logger

	mu     sync.RWMutex
	closed bool
}

// Connect dials MongoDB, pings the primary and detects whether transactions
// are available.
func Connect(ctx context.Context, cfg config.Config, log *slog.Logger) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURI).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetConnectTimeout(connectTimeout).
		SetAppName("scribes")

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	cli, err := drv.Connect(ctx, opts)
	if err != nil {
		log.Error("failed to connect to mongo", "error", err)
		return nil, err
	}

	if err := drv.Ping(ctx, cli); err != nil {
		log.Error("failed to ping mongo", "error", err)
		_ = drv.Disconnect(context.Background(), cli)
		return nil, err
	}

	rs, err := drv.ReplicaSet(ctx, cli)
	if err != nil {
		log.Warn("could not detect replica set, transactions disabled", "error", err)
		rs = false
	}

	log.Info("successfully connected to mongo", "db", cfg.MongoDBName, "transactions", rs)
	return &Store{
		client:     cli,
		db:         cli.Database(cfg.MongoDBName),
		replicaSet: rs,
		log:        log,
	}, nil
}

// DB returns the application database.
func (s *Store) DB() *mongo.Database { return s.db }

// SupportsTransactions reports whether RunAtomic uses a real transaction.
func (s *Store) SupportsTransactions() bool { return s.replicaSet }

// Ping checks the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	ctx, cancel := repoCtx(ctx)
	defer cancel()
	return drv.Ping(ctx, s.client)
}

// Close disconnects the client. Calling it again is a no-op.
func (s *Store) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	ctx, cancel := context.WithTimeout(ctx, OpTimeout)
	defer cancel()
	return drv.Disconnect(ctx, s.client)
}

// RunAtomic runs fn inside a transaction on replica sets. On stand-alone
// servers fn runs directly and must compensate for partial writes itself.
func (s *Store) RunAtomic(ctx context.Context, fn func(ctx context.Context) error) error {
	if !s.replicaSet {
		return fn(ctx)
	}

	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer sess.EndSession(context.Background())

	_, err = sess.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})
	return err
}
