package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/config"
)

func TestClientOptionsRejectsMissingOrInvalidURI(t *testing.T) {
	_, err := ClientOptions(nil)
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = ClientOptions(&ConnectionOptions{URI: "   "})
	assert.ErrorIs(t, err, ErrInvalidOptions)

	_, err = ClientOptions(&ConnectionOptions{URI: "postgres://localhost:5432"})
	assert.ErrorIs(t, err, ErrInvalidOptions)
}

func TestClientOptionsAppliesCredentialsAndPool(t *testing.T) {
	opts, err := ClientOptions(&ConnectionOptions{
		URI:                    "mongodb://localhost:27017/?authSource=admin",
		Username:               "trader",
		Password:               "s3cret",
		MinPoolSize:            2,
		MaxPoolSize:            20,
		ConnectTimeout:         3 * time.Second,
		ServerSelectionTimeout: time.Second,
	})
	require.NoError(t, err)

	require.NotNil(t, opts.Auth)
	assert.Equal(t, "trader", opts.Auth.Username)
	assert.Equal(t, "s3cret", opts.Auth.Password)
	assert.Equal(t, "admin", opts.Auth.AuthSource)
	assert.Equal(t, uint64(2), *opts.MinPoolSize)
	assert.Equal(t, uint64(20), *opts.MaxPoolSize)
	assert.Equal(t, 3*time.Second, *opts.ConnectTimeout)
}

func TestClientOptionsAuthSourceFromURI(t *testing.T) {
	tests := []struct {
		name      string
		uri       string
		source    string
		want      string
		mechanism string
	}{
		{name: "query parameter", uri: "mongodb://localhost:27017/?authSource=admin", want: "admin"},
		{name: "path database", uri: "mongodb://localhost:27017/finfabrik", want: "finfabrik"},
		{name: "explicit option wins", uri: "mongodb://localhost:27017/?authSource=admin", source: "ops", want: "ops"},
		{name: "mechanism kept", uri: "mongodb://localhost:27017/?authSource=admin&authMechanism=SCRAM-SHA-256", want: "admin", mechanism: "SCRAM-SHA-256"},
		{name: "driver default", uri: "mongodb://localhost:27017", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := ClientOptions(&ConnectionOptions{URI: tt.uri, Username: "trader", Password: "s3cret", AuthSource: tt.source})
			require.NoError(t, err)
			require.NotNil(t, opts.Auth)
			assert.Equal(t, tt.want, opts.Auth.AuthSource)
			assert.Equal(t, tt.mechanism, opts.Auth.AuthMechanism)
			assert.Equal(t, "trader", opts.Auth.Username)
		})
	}
}

func TestOpenBuildsPoolWithoutDialing(t *testing.T) {
	m, err := Open(context.Background(), &ConnectionOptions{URI: "mongodb://127.0.0.1:1"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	coll := m.Collection()
	assert.Equal(t, "workOrder", coll.Name())
	assert.Equal(t, "finfabrik", coll.Database().Name())
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.Mongo{URI: "mongodb://db", Database: "desk", Collection: "orders", MaxPoolSize: 7})
	assert.Equal(t, "mongodb://db", opts.URI)
	assert.Equal(t, "desk", opts.Database)
	assert.Equal(t, "orders", opts.Collection)
	assert.Equal(t, uint64(7), opts.MaxPoolSize)
}

func TestOpenSQLRejectsUnknownDriver(t *testing.T) {
	_, err := OpenSQL(config.Database{Driver: "oracle", WriterDSN: "x"})
	assert.Error(t, err)

	_, err = OpenSQL(config.Database{Driver: "sqlite", WriterDSN: ""})
	assert.Error(t, err)
}

func TestOpenSQLSharesWriterWhenReaderMatches(t *testing.T) {
	conns, err := OpenSQL(config.Database{Driver: "sqlite", WriterDSN: "file:conns?mode=memory&cache=shared"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = conns.Close() })

	assert.Same(t, conns.Writer, conns.Reader)
	require.NoError(t, pingContext(context.Background(), conns.Writer))
}
