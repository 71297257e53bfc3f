package dataaccess

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Jacobbrewer1/husky/pkg/dataaccess/monitoring"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/natefinch/atomic"
)

const (
	counterFile = "ticket_counter.json"
	ticketsFile = "ticket_data.json"
	panelsFile  = "support_panel.json"
)

type counterDocument struct {
	Counter int `json:"counter"`
}

// fileStore keeps every record in memory and rewrites the owning JSON document after each mutation.
type fileStore struct {
	l   *slog.Logger
	dir string

	mut     sync.RWMutex
	counter int
	tickets map[int]*entities.Ticket
	panels  map[string]*entities.Panel
}

// NewFileStore loads the JSON documents in dir. Missing documents are treated as empty.
func NewFileStore(l *slog.Logger, dir string) (Store, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("error creating data directory: %w", err)
	}

	s := &fileStore{
		l:       l.With(slog.String(logging.KeyBackend, BackendFile)),
		dir:     dir,
		tickets: make(map[int]*entities.Ticket),
		panels:  make(map[string]*entities.Panel),
	}

	counter := new(counterDocument)
	found, err := s.read(counterFile, counter)
	if err != nil {
		return nil, err
	}
	s.counter = counter.Counter
	if !found {
		if err := s.write(counterFile, counter); err != nil {
			return nil, err
		}
	}

	rawTickets := make(map[string]map[string]any)
	if _, err := s.read(ticketsFile, &rawTickets); err != nil {
		return nil, err
	}
	for key, doc := range rawTickets {
		if doc == nil {
			continue
		}
		t := new(entities.Ticket)
		if err := decodeRecord(doc, t); err != nil {
			return nil, fmt.Errorf("error decoding ticket %s: %w", key, err)
		}
		id, err := strconv.Atoi(key)
		if err != nil {
			s.l.Warn("Skipping ticket with invalid id", slog.String("key", key))
			continue
		}
		t.ID = id
		normaliseState(t)
		s.tickets[id] = t
		if id > s.counter {
			s.counter = id
		}
	}

	rawPanels := make(map[string]map[string]any)
	if _, err := s.read(panelsFile, &rawPanels); err != nil {
		return nil, err
	}
	for guildID, doc := range rawPanels {
		if doc == nil {
			continue
		}
		p := new(entities.Panel)
		if err := decodeRecord(doc, p); err != nil {
			return nil, fmt.Errorf("error decoding panel %s: %w", guildID, err)
		}
		p.GuildID = guildID
		s.panels[guildID] = p
	}

	return s, nil
}

func (s *fileStore) Backend() string {
	return BackendFile
}

func (s *fileStore) Ping(_ context.Context) error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("error checking data directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("data directory %s is not a directory", s.dir)
	}
	return nil
}

func (s *fileStore) Close(_ context.Context) error {
	return nil
}

func (s *fileStore) NextTicketID(_ context.Context) (id int, err error) {
	done := monitoring.Track(BackendFile, ticketDalName, "next_ticket_id")
	defer func() { done(err) }()

	s.mut.Lock()
	defer s.mut.Unlock()

	next := s.counter + 1
	if err := s.write(counterFile, &counterDocument{Counter: next}); err != nil {
		return 0, err
	}
	s.counter = next
	return next, nil
}

func (s *fileStore) GetTicket(_ context.Context, id int) (*entities.Ticket, error) {
	done := monitoring.Track(BackendFile, ticketDalName, "get_ticket")
	defer done(nil)

	s.mut.RLock()
	defer s.mut.RUnlock()

	t, ok := s.tickets[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t.Clone(), nil
}

func (s *fileStore) GetTicketByChannel(_ context.Context, channelID string) (*entities.Ticket, error) {
	done := monitoring.Track(BackendFile, ticketDalName, "get_ticket_by_channel")
	defer done(nil)

	s.mut.RLock()
	defer s.mut.RUnlock()

	for _, t := range s.sortedTickets() {
		if t.ChannelID == channelID {
			return t.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *fileStore) GetOpenTicketByCreator(_ context.Context, creatorID string) (*entities.Ticket, error) {
	done := monitoring.Track(BackendFile, ticketDalName, "get_open_ticket_by_creator")
	defer done(nil)

	s.mut.RLock()
	defer s.mut.RUnlock()

	for _, t := range s.sortedTickets() {
		if t.CreatorID == creatorID && t.IsOpen() {
			return t.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *fileStore) ListTickets(_ context.Context) ([]*entities.Ticket, error) {
	done := monitoring.Track(BackendFile, ticketDalName, "list_tickets")
	defer done(nil)

	s.mut.RLock()
	defer s.mut.RUnlock()

	sorted := s.sortedTickets()
	list := make([]*entities.Ticket, 0, len(sorted))
	for _, t := range sorted {
		list = append(list, t.Clone())
	}
	return list, nil
}

func (s *fileStore) SaveTicket(_ context.Context, ticket *entities.Ticket) (err error) {
	done := monitoring.Track(BackendFile, ticketDalName, "save_ticket")
	defer func() { done(err) }()

	if ticket == nil {
		return errors.New("ticket is nil")
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	prev, existed := s.tickets[ticket.ID]
	s.tickets[ticket.ID] = ticket.Clone()
	if err := s.writeTickets(); err != nil {
		if existed {
			s.tickets[ticket.ID] = prev
		} else {
			delete(s.tickets, ticket.ID)
		}
		return err
	}
	return nil
}

func (s *fileStore) DeleteTicket(_ context.Context, id int) (err error) {
	done := monitoring.Track(BackendFile, ticketDalName, "delete_ticket")
	defer func() { done(err) }()

	s.mut.Lock()
	defer s.mut.Unlock()

	prev, ok := s.tickets[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.tickets, id)
	if err := s.writeTickets(); err != nil {
		s.tickets[id] = prev
		return err
	}
	return nil
}

func (s *fileStore) GetPanel(_ context.Context, guildID string) (*entities.Panel, error) {
	done := monitoring.Track(BackendFile, panelDalName, "get_panel")
	defer done(nil)

	s.mut.RLock()
	defer s.mut.RUnlock()

	p, ok := s.panels[guildID]
	if !ok {
		return nil, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *fileStore) SavePanel(_ context.Context, panel *entities.Panel) (err error) {
	done := monitoring.Track(BackendFile, panelDalName, "save_panel")
	defer func() { done(err) }()

	if panel == nil {
		return errors.New("panel is nil")
	}

	s.mut.Lock()
	defer s.mut.Unlock()

	prev, existed := s.panels[panel.GuildID]
	s.panels[panel.GuildID] = panel.Clone()
	if err := s.write(panelsFile, s.panels); err != nil {
		if existed {
			s.panels[panel.GuildID] = prev
		} else {
			delete(s.panels, panel.GuildID)
		}
		return err
	}
	return nil
}

// sortedTickets must be called with the lock held.
func (s *fileStore) sortedTickets() []*entities.Ticket {
	list := make([]*entities.Ticket, 0, len(s.tickets))
	for _, t := range s.tickets {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool {
		return list[i].ID < list[j].ID
	})
	return list
}

func (s *fileStore) writeTickets() error {
	doc := make(map[string]*entities.Ticket, len(s.tickets))
	for id, t := range s.tickets {
		doc[strconv.Itoa(id)] = t
	}
	return s.write(ticketsFile, doc)
}

func (s *fileStore) read(name string, v any) (bool, error) {
	b, err := os.ReadFile(filepath.Join(s.dir, name))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("error reading %s: %w", name, err)
	}

	if len(bytes.TrimSpace(b)) == 0 {
		return true, nil
	}

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return true, fmt.Errorf("error decoding %s: %w", name, err)
	}
	return true, nil
}

// decodeRecord decodes a raw record into v. Older documents store snowflakes as JSON numbers and the
// panel image under "image", both are rewritten to the current layout first.
func decodeRecord(doc map[string]any, v any) error {
	for k, val := range doc {
		n, ok := val.(json.Number)
		if ok && k != "id" && strings.HasSuffix(k, "_id") {
			doc[k] = n.String()
		}
	}
	if img, ok := doc["image"]; ok {
		if _, set := doc["image_url"]; !set {
			doc["image_url"] = img
		}
		delete(doc, "image")
	}

	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (s *fileStore) write(name string, v any) error {
	b, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return fmt.Errorf("error encoding %s: %w", name, err)
	}

	if err := atomic.WriteFile(filepath.Join(s.dir, name), bytes.NewReader(b)); err != nil {
		return fmt.Errorf("error writing %s: %w", name, err)
	}
	return nil
}

// normaliseState derives the state of records written without one.
func normaliseState(t *entities.Ticket) {
	if t.State.Valid() {
		return
	}
	switch {
	case !t.IsOpen():
		t.State = entities.StateClosed
	case t.IsClaimed():
		t.State = entities.StateClaimed
	default:
		t.State = entities.StateOpen
	}
}
