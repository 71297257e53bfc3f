package dataaccess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Jacobbrewer1/husky/pkg/dataaccess/connection"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

const (
	// BackendFile stores everything in JSON documents on disk.
	BackendFile = "file"

	// BackendMongo stores everything in MongoDB.
	BackendMongo = "mongo"

	// BackendSQLite stores everything in an embedded SQLite database.
	BackendSQLite = "sqlite"
)

const (
	ticketDalName = "ticket_dal"
	panelDalName  = "panel_dal"
)

// Store is a persistent store for tickets and support panels.
type Store interface {
	TicketDal
	PanelDal

	// Backend is the name of the backend.
	Backend() string

	// Ping checks that the store is reachable.
	Ping(ctx context.Context) error

	// Close releases the resources held by the store.
	Close(ctx context.Context) error
}

// Options selects and configures a store backend.
type Options struct {
	// Backend is one of BackendFile, BackendMongo or BackendSQLite. Empty selects BackendFile.
	Backend string

	// DataDir is the directory the file backend keeps its documents in.
	DataDir string

	// SQLitePath is the database file of the sqlite backend. Defaults to husky.db inside DataDir.
	SQLitePath string

	// Mongo is the connection of the mongo backend.
	Mongo connection.MongoDB

	// MongoDatabase is the database name of the mongo backend.
	MongoDatabase string
}

// Open opens the store selected by opts.
func Open(ctx context.Context, l *slog.Logger, opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendFile:
		return NewFileStore(l, opts.DataDir)
	case BackendSQLite:
		path := opts.SQLitePath
		if path == "" {
			path = filepath.Join(opts.DataDir, "husky.db")
		}
		return NewSQLiteStore(ctx, l, path)
	case BackendMongo:
		client, err := opts.Mongo.Connect(ctx)
		if err != nil {
			return nil, fmt.Errorf("error connecting to mongo: %w", err)
		}
		return NewMongoStore(ctx, l, client, opts.MongoDatabase)
	default:
		return nil, fmt.Errorf("unsupported store backend %q (use %q, %q or %q)", opts.Backend, BackendFile, BackendSQLite, BackendMongo)
	}
}
