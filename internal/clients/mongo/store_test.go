package mongo

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"scribes/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type stubDriver struct {
	pingErr     error
	rs          bool
	rsErr       error
	disconnects int
}

func (s *stubDriver) Connect(_ context.Context, opts *options.ClientOptions) (*mongo.Client, error) {
	// The client connects lazily, so nothing touches the network here.
	return mongo.Connect(opts)
}

func (s *stubDriver) Ping(context.Context, *mongo.Client) error { return s.pingErr }

func (s *stubDriver) ReplicaSet(context.Context, *mongo.Client) (bool, error) {
	return s.rs, s.rsErr
}

func (s *stubDriver) Disconnect(context.Context, *mongo.Client) error {
	s.disconnects++
	return nil
}

func withDriver(t *testing.T, d driver) {
	t.Helper()
	prev := drv
	drv = d
	t.Cleanup(func() { drv = prev })
}

func testConfig() config.Config {
	return config.Config{MongoURI: "mongodb://127.0.0.1:1", MongoDBName: "scribes_test"}
}

func quietLog() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestConnect(t *testing.T) {
	tests := []struct {
		name        string
		stub        *stubDriver
		wantErr     bool
		wantTxn     bool
		disconnects int
	}{
		{name: "standalone", stub: &stubDriver{}},
		{name: "replica set", stub: &stubDriver{rs: true}, wantTxn: true},
		{name: "detection failure disables transactions", stub: &stubDriver{rs: true, rsErr: errors.New("boom")}},
		{name: "ping failure disconnects", stub: &stubDriver{pingErr: errors.New("down")}, wantErr: true, disconnects: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withDriver(t, tt.stub)

			store, err := Connect(context.Background(), testConfig(), quietLog())
			if tt.wantErr {
				require.Error(t, err)
				assert.Nil(t, store)
				assert.Equal(t, tt.disconnects, tt.stub.disconnects)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTxn, store.SupportsTransactions())
			assert.Equal(t, "scribes_test", store.DB().Name())
		})
	}
}

func TestStoreClose(t *testing.T) {
	stub := &stubDriver{}
	withDriver(t, stub)

	store, err := Connect(context.Background(), testConfig(), quietLog())
	require.NoError(t, err)
	require.NoError(t, store.Ping(context.Background()))

	require.NoError(t, store.Close(context.Background()))
	require.NoError(t, store.Close(context.Background()))
	assert.Equal(t, 1, stub.disconnects, "second close is a no-op")

	assert.ErrorIs(t, store.Ping(context.Background()), ErrClosed)
}

func TestRunAtomicStandaloneRunsDirectly(t *testing.T) {
	withDriver(t, &stubDriver{})

	store, err := Connect(context.Background(), testConfig(), quietLog())
	require.NoError(t, err)

	calls := 0
	boom := errors.New("boom")
	err = store.RunAtomic(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, calls)
}

func TestWithRepoTimeout(t *testing.T) {
	t.Run("adds deadline", func(t *testing.T) {
		ctx, cancel := WithRepoTimeout(context.Background(), OpTimeout)
		defer cancel()
		_, ok := ctx.Deadline()
		assert.True(t, ok)
	})

	t.Run("keeps cancelled context", func(t *testing.T) {
		parent, cancelParent := context.WithCancel(context.Background())
		cancelParent()
		ctx, cancel := WithRepoTimeout(parent, OpTimeout)
		defer cancel()
		assert.Equal(t, parent, ctx)
	})
}
