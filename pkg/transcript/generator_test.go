package transcript

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/custom"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/platform/platformtest"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newGuild(t *testing.T) *platformtest.Fake {
	t.Helper()

	f := platformtest.NewFake("900")
	f.AddGuild("1", "Support Guild")
	f.AddRole("1", &discordgo.Role{ID: "555", Name: "Staff", Color: 0x3498db, Position: 2})
	f.AddRole("1", &discordgo.Role{ID: "556", Name: "Member", Position: 3})
	f.AddMember("1", &discordgo.Member{
		Nick:  "Alex",
		User:  &discordgo.User{ID: "123", Username: "alex"},
		Roles: []string{"556", "555"},
	})
	f.AddMember("1", &discordgo.Member{
		User: &discordgo.User{ID: "200", Username: "casey"},
	})
	f.AddChannel(&discordgo.Channel{ID: "10", GuildID: "1", Name: "ticket-1"})
	return f
}

func newTestTicket() *entities.Ticket {
	return &entities.Ticket{
		ID:          1,
		GuildID:     "1",
		ChannelID:   "10",
		CreatorID:   "200",
		StaffRoleID: "555",
		State:       entities.StateOpen,
	}
}

func TestGenerate_Mentions(t *testing.T) {
	f := newGuild(t)
	f.Post("10", "200", "<@123> please wait")
	f.Post("10", "200", "<@!999> please wait")
	f.Post("10", "200", "ping <@&555> and <@&777>")

	tr, err := NewGenerator(testLogger(), f).Generate(context.Background(), newTestTicket())
	require.NoError(t, err)
	require.Len(t, tr.Messages, 3)

	require.Equal(t, "@Alex please wait", tr.Messages[0].Content)
	require.Equal(t, "UnknownUser(999) please wait", tr.Messages[1].Content)
	require.Equal(t, "ping @Staff and UnknownRole(777)", tr.Messages[2].Content)
	require.Contains(t, string(tr.Messages[0].ContentHTML), "@Alex please wait")
}

func TestGenerate_Authors(t *testing.T) {
	f := newGuild(t)
	f.Post("10", "123", "hello")
	f.Post("10", "200", "hi")
	f.Post("10", "404", "who am I")

	tr, err := NewGenerator(testLogger(), f).Generate(context.Background(), newTestTicket())
	require.NoError(t, err)
	require.Len(t, tr.Messages, 3)

	require.Equal(t, "Alex", tr.Messages[0].DisplayName)
	require.Equal(t, "#3498db", tr.Messages[0].RoleColor)
	require.Equal(t, "casey", tr.Messages[1].DisplayName)
	require.Equal(t, "#ffffff", tr.Messages[1].RoleColor)
	require.Equal(t, "404", tr.Messages[2].DisplayName)
	require.NotEmpty(t, tr.Messages[2].AvatarURL)

	// The fake clock starts at 12:00 UTC and ticks a minute per message.
	require.Equal(t, "June 01, 2024, 04:01 PM", tr.Messages[0].Timestamp)
	require.Equal(t, "06/01/2024, 16:01:00", tr.Stats.OpenedAt)
}

func TestGenerate_TimeOffset(t *testing.T) {
	f := newGuild(t)
	f.Post("10", "123", "hello")

	tr, err := NewGenerator(testLogger(), f, WithTimeOffset(0)).Generate(context.Background(), newTestTicket())
	require.NoError(t, err)
	require.Equal(t, "June 01, 2024, 12:01 PM", tr.Messages[0].Timestamp)
}

func TestGenerate_SkipsPinNotices(t *testing.T) {
	f := newGuild(t)
	f.Post("10", "123", "first")
	pin := f.Post("10", "123", "")
	pin.Type = discordgo.MessageTypeChannelPinnedMessage
	f.Post("10", "200", "last")

	tr, err := NewGenerator(testLogger(), f).Generate(context.Background(), newTestTicket())
	require.NoError(t, err)
	require.Len(t, tr.Messages, 2)
	require.Equal(t, 3, tr.Stats.MessageCount)
}

func TestGenerate_Embeds(t *testing.T) {
	f := newGuild(t)
	_, err := f.SendMessage(context.Background(), "10", &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Welcome <b>",
				Description: "Staff will be with you shortly.\n**Notice:** Be patient\n• Do not ping staff",
			},
			{
				Title: "Ticket Closure",
				Color: 0xE67E22,
			},
		},
	})
	require.NoError(t, err)

	tr, err := NewGenerator(testLogger(), f).Generate(context.Background(), newTestTicket())
	require.NoError(t, err)
	require.Len(t, tr.Messages, 1)
	require.Equal(t, 2, tr.Stats.EmbedCount)

	embeds := tr.Messages[0].Embeds
	require.Len(t, embeds, 2)
	require.Equal(t, "#43b581", embeds[0].Color)
	require.Equal(t,
		"<strong>Welcome &lt;b&gt;</strong>"+
			"<ul><li>Staff will be with you shortly.</li></ul>"+
			"<strong>Notice:</strong><ul><li>Be patient</li><li>Do not ping staff</li></ul>",
		string(embeds[0].HTML),
	)
	require.Equal(t, "#e67e22", embeds[1].Color)
	require.Equal(t, "<strong>Ticket Closure</strong>", string(embeds[1].HTML))
}

func TestGenerate_Buttons(t *testing.T) {
	f := newGuild(t)
	ctx := context.Background()

	initial, err := f.SendMessage(ctx, "10", &discordgo.MessageSend{
		Content: "welcome",
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{Label: "ignored"},
			}},
		},
	})
	require.NoError(t, err)

	_, err = f.SendMessage(ctx, "10", &discordgo.MessageSend{
		Content: "live",
		Components: []discordgo.MessageComponent{
			&discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				&discordgo.Button{Label: "Claim Ticket", Emoji: discordgo.ComponentEmoji{Name: "📩"}},
				discordgo.Button{},
			}},
		},
	})
	require.NoError(t, err)

	ticket := newTestTicket()
	ticket.InitialMessageID = initial.ID
	ticket.InitialMessageButtons = []string{"📩 Claim Ticket", "🔒 Close Ticket"}

	tr, err := NewGenerator(testLogger(), f).Generate(ctx, ticket)
	require.NoError(t, err)
	require.Len(t, tr.Messages, 2)

	require.Equal(t, []Button{
		{Label: "📩 Claim Ticket", Class: "claim-ticket"},
		{Label: "🔒 Close Ticket", Class: "close-ticket"},
	}, tr.Messages[0].Buttons)
	require.Equal(t, []Button{
		{Label: "📩 Claim Ticket", Class: "claim-ticket"},
		{Label: "Unnamed", Class: ""},
	}, tr.Messages[1].Buttons)
	require.Equal(t, 4, tr.Stats.ComponentCount)
}

func TestGenerate_Stats(t *testing.T) {
	f := newGuild(t)
	f.Post("10", "200", "help")

	ticket := newTestTicket()
	ticket.CloserID = "123"
	ticket.State = entities.StateClosed
	ticket.ClosedAt = custom.NewDatetime(time.Date(2024, 6, 1, 13, 30, 0, 0, time.UTC))

	tr, err := NewGenerator(testLogger(), f).Generate(context.Background(), ticket)
	require.NoError(t, err)
	require.Equal(t, Stats{
		OpenedAt:     "06/01/2024, 16:01:00",
		ClosedAt:     "06/01/2024, 17:30:00",
		CreatorID:    "200",
		CreatorName:  "casey",
		CloserID:     "123",
		CloserName:   "Alex",
		MessageCount: 1,
		ServerName:   "Support Guild",
	}, tr.Stats)

	// Without a recorded close time the last message is used.
	ticket.ClosedAt = custom.Datetime{}
	tr, err = NewGenerator(testLogger(), f).Generate(context.Background(), ticket)
	require.NoError(t, err)
	require.Equal(t, "06/01/2024, 16:01:00", tr.Stats.ClosedAt)
}

func TestGenerate_MissingValues(t *testing.T) {
	f := platformtest.NewFake("900")
	f.AddChannel(&discordgo.Channel{ID: "10", GuildID: "1"})

	ticket := newTestTicket()
	ticket.CreatorID = "gone"

	tr, err := NewGenerator(testLogger(), f).Generate(context.Background(), ticket)
	require.NoError(t, err)
	require.Empty(t, tr.Messages)
	require.Equal(t, NotAvailable, tr.Stats.OpenedAt)
	require.Equal(t, NotAvailable, tr.Stats.ClosedAt)
	require.Equal(t, NotAvailable, tr.Stats.ServerName)
	require.Equal(t, NotAvailable, tr.Stats.CloserName)
	require.Equal(t, "Unknown", tr.Stats.CreatorName)
}

func TestGenerate_HistoryError(t *testing.T) {
	f := newGuild(t)
	f.FailNext("History", errors.New("boom"))

	_, err := NewGenerator(testLogger(), f).Generate(context.Background(), newTestTicket())
	require.Error(t, err)
}

func TestGenerate_Markdown(t *testing.T) {
	f := newGuild(t)
	f.Post("10", "200", "**bold** and `code`")
	f.Post("10", "200", "```go\nfmt.Println(\"hi\")\n```")
	f.Post("10", "200", "<script>alert(1)</script>")

	tr, err := NewGenerator(testLogger(), f).Generate(context.Background(), newTestTicket())
	require.NoError(t, err)
	require.Len(t, tr.Messages, 3)

	require.Contains(t, string(tr.Messages[0].ContentHTML), "<strong>bold</strong>")
	require.Contains(t, string(tr.Messages[0].ContentHTML), "<code>code</code>")
	require.True(t, strings.HasPrefix(string(tr.Messages[1].ContentHTML), "<pre"))
	require.Contains(t, string(tr.Messages[1].ContentHTML), "Println")
	require.NotContains(t, string(tr.Messages[2].ContentHTML), "<script>")
	require.Contains(t, string(tr.Messages[2].ContentHTML), "&lt;script&gt;alert(1)&lt;/script&gt;")
}
