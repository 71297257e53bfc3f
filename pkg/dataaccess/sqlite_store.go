package dataaccess

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/Jacobbrewer1/husky/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	_ "modernc.org/sqlite"
)

const sqliteBusyTimeout = 5000 // milliseconds

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS counters (
	name  TEXT PRIMARY KEY,
	value INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tickets (
	id         INTEGER PRIMARY KEY,
	guild_id   TEXT NOT NULL,
	channel_id TEXT NOT NULL,
	creator_id TEXT NOT NULL,
	closer_id  TEXT NOT NULL DEFAULT '',
	created_at TEXT,
	data       TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tickets_channel ON tickets(channel_id);
CREATE INDEX IF NOT EXISTS idx_tickets_creator ON tickets(creator_id, closer_id);

CREATE TABLE IF NOT EXISTS panels (
	guild_id TEXT PRIMARY KEY,
	data     TEXT NOT NULL
);
`

type sqliteStore struct {
	l  *slog.Logger
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the SQLite database at path.
func NewSQLiteStore(ctx context.Context, l *slog.Logger, path string) (Store, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("error creating sqlite directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("error opening sqlite: %w", err)
	}

	// A single connection serialises writers and keeps the pragmas below in effect.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error pinging sqlite: %w", err)
	}

	pragmas := fmt.Sprintf(`
		PRAGMA busy_timeout = %d;
		PRAGMA journal_mode = WAL;
		PRAGMA synchronous = FULL;
	`, sqliteBusyTimeout)
	if _, err := db.ExecContext(ctx, pragmas); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error applying sqlite pragmas: %w", err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("error applying sqlite schema: %w", err)
	}

	s := &sqliteStore{
		l:  l.With(slog.String(logging.KeyBackend, BackendSQLite)),
		db: db,
	}
	s.l.Debug("SQLite store opened", slog.String("path", path))
	return s, nil
}

func (s *sqliteStore) Backend() string {
	return BackendSQLite
}

func (s *sqliteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("error pinging sqlite: %w", err)
	}
	return nil
}

func (s *sqliteStore) Close(_ context.Context) error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("error closing sqlite: %w", err)
	}
	return nil
}

func (s *sqliteStore) NextTicketID(ctx context.Context) (id int, err error) {
	done := monitoring.Track(BackendSQLite, ticketDalName, "next_ticket_id")
	defer func() { done(err) }()

	// The counter never goes below the highest stored id so ids survive a lost counter row.
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO counters (name, value)
		VALUES ('tickets', (SELECT COALESCE(MAX(id), 0) + 1 FROM tickets))
		ON CONFLICT (name) DO UPDATE SET value = value + 1
		RETURNING value`,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("error allocating ticket id: %w", err)
	}
	return id, nil
}

func (s *sqliteStore) GetTicket(ctx context.Context, id int) (t *entities.Ticket, err error) {
	done := monitoring.Track(BackendSQLite, ticketDalName, "get_ticket")
	defer func() { done(ignoreNotFound(err)) }()

	return s.scanTicket(s.db.QueryRowContext(ctx, `SELECT id, data FROM tickets WHERE id = ?`, id))
}

func (s *sqliteStore) GetTicketByChannel(ctx context.Context, channelID string) (t *entities.Ticket, err error) {
	done := monitoring.Track(BackendSQLite, ticketDalName, "get_ticket_by_channel")
	defer func() { done(ignoreNotFound(err)) }()

	return s.scanTicket(s.db.QueryRowContext(ctx,
		`SELECT id, data FROM tickets WHERE channel_id = ? ORDER BY id LIMIT 1`, channelID))
}

func (s *sqliteStore) GetOpenTicketByCreator(ctx context.Context, creatorID string) (t *entities.Ticket, err error) {
	done := monitoring.Track(BackendSQLite, ticketDalName, "get_open_ticket_by_creator")
	defer func() { done(ignoreNotFound(err)) }()

	return s.scanTicket(s.db.QueryRowContext(ctx,
		`SELECT id, data FROM tickets WHERE creator_id = ? AND closer_id = '' ORDER BY id LIMIT 1`, creatorID))
}

func (s *sqliteStore) ListTickets(ctx context.Context) (list []*entities.Ticket, err error) {
	done := monitoring.Track(BackendSQLite, ticketDalName, "list_tickets")
	defer func() { done(err) }()

	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM tickets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		t, err := s.scanTicket(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tickets: %w", err)
	}
	return list, nil
}

func (s *sqliteStore) SaveTicket(ctx context.Context, ticket *entities.Ticket) (err error) {
	done := monitoring.Track(BackendSQLite, ticketDalName, "save_ticket")
	defer func() { done(err) }()

	if ticket == nil {
		return errors.New("ticket is nil")
	}

	data, err := json.Marshal(ticket)
	if err != nil {
		return fmt.Errorf("error encoding ticket: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO tickets (id, guild_id, channel_id, creator_id, closer_id, created_at, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			guild_id = excluded.guild_id,
			channel_id = excluded.channel_id,
			creator_id = excluded.creator_id,
			closer_id = excluded.closer_id,
			created_at = excluded.created_at,
			data = excluded.data`,
		ticket.ID, ticket.GuildID, ticket.ChannelID, ticket.CreatorID, ticket.CloserID, ticket.CreatedAt, string(data),
	)
	if err != nil {
		return fmt.Errorf("error saving ticket: %w", err)
	}
	return nil
}

func (s *sqliteStore) DeleteTicket(ctx context.Context, id int) (err error) {
	done := monitoring.Track(BackendSQLite, ticketDalName, "delete_ticket")
	defer func() { done(ignoreNotFound(err)) }()

	res, err := s.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting ticket: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted ticket: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *sqliteStore) GetPanel(ctx context.Context, guildID string) (p *entities.Panel, err error) {
	done := monitoring.Track(BackendSQLite, panelDalName, "get_panel")
	defer func() { done(ignoreNotFound(err)) }()

	var data string
	err = s.db.QueryRowContext(ctx, `SELECT data FROM panels WHERE guild_id = ?`, guildID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting panel: %w", err)
	}

	p = new(entities.Panel)
	if err := json.Unmarshal([]byte(data), p); err != nil {
		return nil, fmt.Errorf("error decoding panel: %w", err)
	}
	p.GuildID = guildID
	return p, nil
}

func (s *sqliteStore) SavePanel(ctx context.Context, panel *entities.Panel) (err error) {
	done := monitoring.Track(BackendSQLite, panelDalName, "save_panel")
	defer func() { done(err) }()

	if panel == nil {
		return errors.New("panel is nil")
	}

	data, err := json.Marshal(panel)
	if err != nil {
		return fmt.Errorf("error encoding panel: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO panels (guild_id, data) VALUES (?, ?)
		ON CONFLICT (guild_id) DO UPDATE SET data = excluded.data`,
		panel.GuildID, string(data),
	)
	if err != nil {
		return fmt.Errorf("error saving panel: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *sqliteStore) scanTicket(row rowScanner) (*entities.Ticket, error) {
	var (
		id   int
		data string
	)
	err := row.Scan(&id, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}

	t := new(entities.Ticket)
	if err := json.Unmarshal([]byte(data), t); err != nil {
		return nil, fmt.Errorf("error decoding ticket %d: %w", id, err)
	}
	t.ID = id
	normaliseState(t)
	return t, nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	return err
}
