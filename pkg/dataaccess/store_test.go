package dataaccess

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Jacobbrewer1/husky/pkg/custom"
	"github.com/Jacobbrewer1/husky/pkg/dataaccess/connection"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

type storeFactory func(t *testing.T) Store

func backends(t *testing.T) map[string]storeFactory {
	t.Helper()

	f := map[string]storeFactory{
		BackendFile: func(t *testing.T) Store {
			s, err := NewFileStore(testLogger(), t.TempDir())
			require.NoError(t, err)
			return s
		},
		BackendSQLite: func(t *testing.T) Store {
			s, err := NewSQLiteStore(context.Background(), testLogger(), filepath.Join(t.TempDir(), "test.db"))
			require.NoError(t, err)
			t.Cleanup(func() { _ = s.Close(context.Background()) })
			return s
		},
	}

	if uri := os.Getenv("MONGO_URI"); uri != "" {
		f[BackendMongo] = func(t *testing.T) Store {
			s, err := Open(context.Background(), testLogger(), Options{
				Backend:       BackendMongo,
				Mongo:         connection.MongoDB{ConnectionString: uri},
				MongoDatabase: fmt.Sprintf("husky_test_%d", time.Now().UnixNano()),
			})
			require.NoError(t, err)
			t.Cleanup(func() {
				ms := s.(*mongoStore)
				_ = ms.client.Database(ms.database).Drop(context.Background())
				_ = s.Close(context.Background())
			})
			return s
		}
	}
	return f
}

func newTicket(id int, creator, channel string) *entities.Ticket {
	return &entities.Ticket{
		ID:                    id,
		GuildID:               "guild",
		ChannelID:             channel,
		CreatorID:             creator,
		StaffRoleID:           "staff",
		State:                 entities.StateOpen,
		InitialMessageID:      "m" + channel,
		InitialMessageButtons: []string{"📩 Claim Ticket", "🔒 Close Ticket"},
		CreatedAt:             custom.NewDatetime(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)),
	}
}

func TestStore_TicketLifecycle(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)
			require.Equal(t, name, s.Backend())
			require.NoError(t, s.Ping(ctx))

			id, err := s.NextTicketID(ctx)
			require.NoError(t, err)
			require.Equal(t, 1, id)

			want := newTicket(id, "alice", "c1")
			require.NoError(t, s.SaveTicket(ctx, want))

			got, err := s.GetTicket(ctx, id)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got, cmp.Comparer(func(a, b custom.Datetime) bool {
				return a.Time().Equal(b.Time())
			})); diff != "" {
				t.Fatalf("ticket mismatch (-want +got):\n%s", diff)
			}

			got, err = s.GetTicketByChannel(ctx, "c1")
			require.NoError(t, err)
			require.Equal(t, id, got.ID)

			got, err = s.GetOpenTicketByCreator(ctx, "alice")
			require.NoError(t, err)
			require.Equal(t, id, got.ID)

			got.CloserID = "staff-member"
			got.ClaimerID = ""
			got.State = entities.StateClosed
			require.NoError(t, s.SaveTicket(ctx, got))

			_, err = s.GetOpenTicketByCreator(ctx, "alice")
			require.ErrorIs(t, err, ErrNotFound)

			got, err = s.GetTicket(ctx, id)
			require.NoError(t, err)
			require.Equal(t, entities.StateClosed, got.State)
			require.Equal(t, "staff-member", got.CloserID)

			require.NoError(t, s.DeleteTicket(ctx, id))
			_, err = s.GetTicket(ctx, id)
			require.ErrorIs(t, err, ErrNotFound)
			require.ErrorIs(t, s.DeleteTicket(ctx, id), ErrNotFound)
		})
	}
}

func TestStore_IDsNeverReused(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			var last int
			for i := 0; i < 3; i++ {
				id, err := s.NextTicketID(ctx)
				require.NoError(t, err)
				require.Greater(t, id, last)
				last = id

				require.NoError(t, s.SaveTicket(ctx, newTicket(id, "bob", "c")))
				require.NoError(t, s.DeleteTicket(ctx, id))
			}

			id, err := s.NextTicketID(ctx)
			require.NoError(t, err)
			require.Equal(t, last+1, id)
		})
	}
}

func TestStore_ListTickets(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			for _, id := range []int{3, 1, 2} {
				require.NoError(t, s.SaveTicket(ctx, newTicket(id, "user", "c")))
			}

			list, err := s.ListTickets(ctx)
			require.NoError(t, err)
			require.Len(t, list, 3)
			for i, tk := range list {
				require.Equal(t, i+1, tk.ID)
			}
		})
	}
}

func TestStore_Panels(t *testing.T) {
	for name, factory := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := factory(t)

			_, err := s.GetPanel(ctx, "guild")
			require.ErrorIs(t, err, ErrNotFound)

			p := &entities.Panel{
				GuildID:     "guild",
				ChannelID:   "panel-channel",
				MessageID:   "panel-message",
				StaffRoleID: "staff",
				Title:       "Support",
				Description: "Press the button",
				Color:       entities.DefaultPanelColor,
				ButtonLabel: entities.DefaultButtonLabel,
			}
			require.NoError(t, s.SavePanel(ctx, p))

			got, err := s.GetPanel(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, p, got)

			p.ImageURL = "https://example.com/banner.png"
			require.NoError(t, s.SavePanel(ctx, p))

			got, err = s.GetPanel(ctx, "guild")
			require.NoError(t, err)
			require.Equal(t, "https://example.com/banner.png", got.ImageURL)
		})
	}
}

func TestFileStore_Documents(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFileStore(testLogger(), dir)
	require.NoError(t, err)

	b, err := os.ReadFile(filepath.Join(dir, counterFile))
	require.NoError(t, err)
	require.JSONEq(t, `{"counter": 0}`, string(b))

	id, err := s.NextTicketID(ctx)
	require.NoError(t, err)
	require.NoError(t, s.SaveTicket(ctx, newTicket(id, "carol", "c9")))
	require.NoError(t, s.SavePanel(ctx, &entities.Panel{GuildID: "guild", ChannelID: "p"}))

	b, err = os.ReadFile(filepath.Join(dir, ticketsFile))
	require.NoError(t, err)

	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(b, &doc))
	require.Contains(t, doc, "1")
	require.Equal(t, "carol", doc["1"]["creator_id"])
	require.Equal(t, "open", doc["1"]["state"])

	reopened, err := NewFileStore(testLogger(), dir)
	require.NoError(t, err)

	got, err := reopened.GetTicketByChannel(ctx, "c9")
	require.NoError(t, err)
	require.Equal(t, 1, got.ID)

	panel, err := reopened.GetPanel(ctx, "guild")
	require.NoError(t, err)
	require.Equal(t, "p", panel.ChannelID)

	id, err = reopened.NextTicketID(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, id)
}

func TestFileStore_LegacyRecords(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ticketsFile), []byte(`{
		"4": {"channel_id": 1155001122334455667, "creator_id": 1155001122334455668, "closer_id": 1155001122334455669},
		"5": {"channel_id": "c5", "creator_id": "erin", "claimer_id": "staff"}
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, panelsFile), []byte(`{
		"77": {"panel_channel_id": 1155001122334455670, "staff_role_id": 1155001122334455671, "embed_color": 65535, "image": "https://example.com/a.png"}
	}`), 0o644))

	s, err := NewFileStore(testLogger(), dir)
	require.NoError(t, err)

	ctx := context.Background()
	closed, err := s.GetTicket(ctx, 4)
	require.NoError(t, err)
	require.Equal(t, entities.StateClosed, closed.State)
	require.Equal(t, "1155001122334455667", closed.ChannelID)
	require.Equal(t, "1155001122334455668", closed.CreatorID)
	require.Equal(t, "1155001122334455669", closed.CloserID)

	byChannel, err := s.GetTicketByChannel(ctx, "1155001122334455667")
	require.NoError(t, err)
	require.Equal(t, 4, byChannel.ID)

	claimed, err := s.GetTicket(ctx, 5)
	require.NoError(t, err)
	require.Equal(t, entities.StateClaimed, claimed.State)

	panel, err := s.GetPanel(ctx, "77")
	require.NoError(t, err)
	require.Equal(t, "1155001122334455670", panel.ChannelID)
	require.Equal(t, "1155001122334455671", panel.StaffRoleID)
	require.Equal(t, 65535, panel.Color)
	require.Equal(t, "https://example.com/a.png", panel.ImageURL)

	// The counter file was missing so the next id must still skip past stored tickets.
	id, err := s.NextTicketID(ctx)
	require.NoError(t, err)
	require.Equal(t, 6, id)
}

func TestFileStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(testLogger(), t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.SaveTicket(ctx, newTicket(1, "frank", "c1")))

	got, err := s.GetTicket(ctx, 1)
	require.NoError(t, err)
	got.ClaimerID = "mutated"
	got.InitialMessageButtons[0] = "mutated"

	again, err := s.GetTicket(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, again.ClaimerID)
	require.Equal(t, "📩 Claim Ticket", again.InitialMessageButtons[0])
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), testLogger(), Options{Backend: "redis"})
	require.Error(t, err)
}
