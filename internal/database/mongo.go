package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/Additional-Code/orderdesk/internal/config"
)

const (
	defaultDatabase   = "finfabrik"
	defaultCollection = "workOrder"
)

// ErrInvalidOptions marks configuration that can never produce a working pool.
var ErrInvalidOptions = errors.New("invalid connection options")

// ConnectionOptions describes how to reach the document store.
type ConnectionOptions struct {
	URI        string
	Username   string
	Password   string
	AuthSource string

	Database   string
	Collection string

	MinPoolSize            uint64
	MaxPoolSize            uint64
	ConnectTimeout         time.Duration
	ServerSelectionTimeout time.Duration
}

// OptionsFromConfig maps the Mongo config section onto ConnectionOptions.
func OptionsFromConfig(cfg config.Mongo) *ConnectionOptions {
	return &ConnectionOptions{
		URI:                    cfg.URI,
		Username:               cfg.Username,
		Password:               cfg.Password,
		AuthSource:             cfg.AuthSource,
		Database:               cfg.Database,
		Collection:             cfg.Collection,
		MinPoolSize:            cfg.MinPoolSize,
		MaxPoolSize:            cfg.MaxPoolSize,
		ConnectTimeout:         cfg.ConnectTimeout,
		ServerSelectionTimeout: cfg.ServerSelectionTimeout,
	}
}

// ClientOptions validates opts and converts them into driver options.
func ClientOptions(opts *ConnectionOptions) (*options.ClientOptions, error) {
	if opts == nil {
		return nil, fmt.Errorf("%w: missing database connection options", ErrInvalidOptions)
	}
	uri := strings.TrimSpace(opts.URI)
	if uri == "" {
		return nil, fmt.Errorf("%w: empty uri", ErrInvalidOptions)
	}

	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}

	clientOpts := options.Client().ApplyURI(uri)
	if opts.Username != "" {
		clientOpts.SetAuth(credential(cs, opts))
	}
	if opts.MinPoolSize > 0 {
		clientOpts.SetMinPoolSize(opts.MinPoolSize)
	}
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(opts.ConnectTimeout)
	}
	if opts.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}

	if err := clientOpts.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidOptions, err)
	}
	return clientOpts, nil
}

// credential combines separately supplied user credentials with the auth
// settings named in the connection string, which ApplyURI drops when the URI
// carries no user info.
func credential(cs *connstring.ConnString, opts *ConnectionOptions) options.Credential {
	cred := options.Credential{
		Username:      opts.Username,
		Password:      opts.Password,
		PasswordSet:   opts.Password != "",
		AuthSource:    opts.AuthSource,
		AuthMechanism: cs.AuthMechanism,
	}
	if cs.AuthMechanismPropertiesSet {
		cred.AuthMechanismProperties = cs.AuthMechanismProperties
	}
	if cred.AuthSource == "" {
		switch {
		case cs.AuthSourceSet:
			cred.AuthSource = cs.AuthSource
		case cs.Database != "":
			cred.AuthSource = cs.Database
		}
	}
	return cred
}

// Mongo owns the pooled document store client shared by every store operation.
// Each operation checks a connection out of the driver pool and returns it when done.
type Mongo struct {
	client     *mongo.Client
	database   string
	collection string
	logger     *zap.Logger
}

// Open builds the connection pool. It does not dial; use Ping to verify reachability.
func Open(ctx context.Context, opts *ConnectionOptions, logger *zap.Logger) (*Mongo, error) {
	clientOpts, err := ClientOptions(opts)
	if err != nil {
		return nil, err
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	m := &Mongo{
		client:     client,
		database:   opts.Database,
		collection: opts.Collection,
		logger:     logger,
	}
	if m.database == "" {
		m.database = defaultDatabase
	}
	if m.collection == "" {
		m.collection = defaultCollection
	}
	return m, nil
}

// NewMongo opens the pool from config and ties ping/disconnect to the Fx lifecycle.
func NewMongo(lc fx.Lifecycle, cfg config.Config, logger *zap.Logger) (*Mongo, error) {
	m, err := Open(context.Background(), OptionsFromConfig(cfg.Mongo), logger)
	if err != nil {
		return nil, err
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := m.Ping(ctx); err != nil {
				return fmt.Errorf("ping mongo: %w", err)
			}
			logger.Info("mongo connected",
				zap.String("database", m.database),
				zap.String("collection", m.collection),
			)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("closing mongo pool")
			return m.Close(ctx)
		},
	})

	return m, nil
}

// Client exposes the underlying driver client.
func (m *Mongo) Client() *mongo.Client {
	return m.client
}

// Collection returns the work-order collection handle.
func (m *Mongo) Collection() *mongo.Collection {
	return m.client.Database(m.database).Collection(m.collection)
}

// Ping checks the primary is reachable.
func (m *Mongo) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return m.client.Ping(pingCtx, readpref.Primary())
}

// Close drains the pool.
func (m *Mongo) Close(ctx context.Context) error {
	if err := m.client.Disconnect(ctx); err != nil && !errors.Is(err, mongo.ErrClientDisconnected) {
		return err
	}
	return nil
}
