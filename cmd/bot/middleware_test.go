package main

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/audit"
	"github.com/Jacobbrewer1/husky/pkg/dataaccess"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/Jacobbrewer1/husky/pkg/platform/platformtest"
	"github.com/Jacobbrewer1/husky/pkg/request"
	"github.com/Jacobbrewer1/husky/pkg/tickets"
	"github.com/Jacobbrewer1/husky/pkg/transcript"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID      = "1"
	testBotID        = "999"
	testAdminID      = "100"
	testStaffID      = "123"
	testCreatorID    = "200"
	testStaffRoleID  = "555"
	testPanelChannel = "10"
	testLogChannel   = "20"
	testCategory     = "30"
)

// fakeApp records the responses sent to interactions.
type fakeApp struct {
	mut sync.Mutex

	manager   *tickets.Manager
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
}

func (f *fakeApp) Log() *slog.Logger {
	return discardLogger()
}

func (f *fakeApp) Tickets() *tickets.Manager {
	return f.manager
}

func (f *fakeApp) Respond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	f.mut.Lock()
	defer f.mut.Unlock()
	f.responses = append(f.responses, resp)
	return nil
}

func (f *fakeApp) Followup(_ *discordgo.Interaction, params *discordgo.WebhookParams) error {
	f.mut.Lock()
	defer f.mut.Unlock()
	f.followups = append(f.followups, params)
	return nil
}

// lastReply is the content of the latest followup.
func (f *fakeApp) lastReply(t *testing.T) string {
	t.Helper()

	f.mut.Lock()
	defer f.mut.Unlock()
	require.NotEmpty(t, f.followups)
	return f.followups[len(f.followups)-1].Content
}

func member(userID string, roles ...string) *discordgo.Member {
	return &discordgo.Member{
		User:  &discordgo.User{ID: userID, Username: "user" + userID},
		Roles: roles,
	}
}

func option(name string, typ discordgo.ApplicationCommandOptionType, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: typ, Value: value}
}

func commandInteraction(name, channelID string, m *discordgo.Member, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "interaction",
		Type:      discordgo.InteractionApplicationCommand,
		GuildID:   testGuildID,
		ChannelID: channelID,
		Member:    m,
		Data: discordgo.ApplicationCommandInteractionData{
			Name:    name,
			Options: opts,
		},
	}}
}

func buttonInteraction(customID, channelID string, m *discordgo.Member) *discordgo.InteractionCreate {
	return &discordgo.InteractionCreate{Interaction: &discordgo.Interaction{
		ID:        "interaction",
		Type:      discordgo.InteractionMessageComponent,
		GuildID:   testGuildID,
		ChannelID: channelID,
		Member:    m,
		Data: discordgo.MessageComponentInteractionData{
			CustomID:      customID,
			ComponentType: discordgo.ButtonComponent,
		},
	}}
}

func reply(s string) interactionProcessor {
	return func(context.Context, IApp, *discordgo.InteractionCreate) (string, error) {
		return s, nil
	}
}

func fail(err error) interactionProcessor {
	return func(context.Context, IApp, *discordgo.InteractionCreate) (string, error) {
		return "", err
	}
}

func TestHandleInteraction(t *testing.T) {
	tests := []struct {
		name        string
		interaction *discordgo.InteractionCreate
		processor   interactionProcessor
		want        string
	}{
		{
			name:        "command reply",
			interaction: commandInteraction("ping", "1", member(testStaffID)),
			processor:   reply("pong"),
			want:        "pong",
		},
		{
			name:        "button reply",
			interaction: buttonInteraction("press", "1", member(testStaffID)),
			processor:   reply("pressed"),
			want:        "pressed",
		},
		{
			name:        "user facing error",
			interaction: commandInteraction("ping", "1", member(testStaffID)),
			processor:   fail(&tickets.Error{Kind: tickets.KindPrecondition, Message: messages.ErrNotOpenTicket}),
			want:        messages.ErrNotOpenTicket,
		},
		{
			name:        "reply error",
			interaction: commandInteraction("ping", "1", member(testStaffID)),
			processor:   fail(newReplyError(messages.ErrCloseFailed, errors.New("rate limited"))),
			want:        messages.ErrCloseFailed,
		},
		{
			name:        "platform error",
			interaction: commandInteraction("ping", "1", member(testStaffID)),
			processor:   fail(errors.New("rate limited")),
			want:        messages.ErrUserErrorProcessing,
		},
		{
			name:        "panic",
			interaction: commandInteraction("ping", "1", member(testStaffID)),
			processor: func(context.Context, IApp, *discordgo.InteractionCreate) (string, error) {
				panic("boom")
			},
			want: messages.ErrUserErrorProcessing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := new(fakeApp)
			processors := map[string]interactionProcessor{"ping": tt.processor, "press": tt.processor}

			handleInteraction(context.Background(), a, processors, processors, tt.interaction)

			require.Len(t, a.responses, 1)
			assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, a.responses[0].Type)
			require.Len(t, a.followups, 1)
			assert.Equal(t, tt.want, a.followups[0].Content)
			assert.Equal(t, discordgo.MessageFlagsEphemeral, a.followups[0].Flags)
		})
	}
}

func TestHandleInteraction_Rejected(t *testing.T) {
	tests := []struct {
		name        string
		interaction *discordgo.InteractionCreate
		want        string
	}{
		{
			name:        "unknown command",
			interaction: commandInteraction("missing", "1", member(testStaffID)),
			want:        messages.ErrUnknownInteraction,
		},
		{
			name:        "unknown button",
			interaction: buttonInteraction("missing", "1", member(testStaffID)),
			want:        messages.ErrUnknownInteraction,
		},
		{
			name:        "direct message",
			interaction: commandInteraction("ping", "1", nil),
			want:        messages.ErrGuildOnly,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := new(fakeApp)
			called := false
			processors := map[string]interactionProcessor{
				"ping": func(context.Context, IApp, *discordgo.InteractionCreate) (string, error) {
					called = true
					return "", nil
				},
			}

			handleInteraction(context.Background(), a, processors, processors, tt.interaction)

			require.False(t, called)
			require.Len(t, a.responses, 1)
			assert.Equal(t, discordgo.InteractionResponseChannelMessageWithSource, a.responses[0].Type)
			assert.Equal(t, tt.want, a.responses[0].Data.Content)
			assert.Empty(t, a.followups)
		})
	}
}

func TestParseColor(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantNil bool
		wantErr bool
	}{
		{in: "", wantNil: true},
		{in: "0xFF0000", want: 0xFF0000},
		{in: "#00ff00", want: 0x00FF00},
		{in: "3498db", want: 0x3498DB},
		{in: " 0X0000FF ", want: 0x0000FF},
		{in: "red", wantErr: true},
		{in: "0x1000000", wantErr: true},
		{in: "#", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseColor(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, messages.ErrInvalidColor, errorReply(discardLogger(), err))
				return
			}
			require.NoError(t, err)
			if tt.wantNil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestMiddlewareHttp_RecoversPanics(t *testing.T) {
	r := mux.NewRouter()
	r.HandleFunc("/boom", middlewareHttp(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}, discardLogger()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	require.Equal(t, http.StatusInternalServerError, w.Code)

	var msg request.Message
	require.NoError(t, json.NewDecoder(w.Body).Decode(&msg))
	assert.Equal(t, request.ErrInternalServer.Error(), msg.Message)
}

func TestApp_RegisterTranscripts(t *testing.T) {
	pub := transcript.NewPublisher("http://localhost:8080")
	a := &App{
		Logger:      discardLogger(),
		r:           mux.NewRouter(),
		transcripts: transcript.NewHandler(discardLogger(), pub, NewRateLimiter()),
	}
	a.registerTranscripts()

	token, err := pub.Publish(1, &transcript.Transcript{TicketID: 1})
	require.NoError(t, err)

	ok := HttpTotalRequests.WithLabelValues(transcript.Route, http.MethodGet, "200")
	forbidden := HttpTotalRequests.WithLabelValues(transcript.Route, http.MethodGet, "403")
	okBefore, forbiddenBefore := testutil.ToFloat64(ok), testutil.ToFloat64(forbidden)

	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript/1?token="+token, nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	a.r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transcript/1?token=wrong", nil))
	require.Equal(t, http.StatusForbidden, w.Code)

	// Requests are counted under the route template by the HTTP middleware.
	require.Equal(t, okBefore+1, testutil.ToFloat64(ok))
	require.Equal(t, forbiddenBefore+1, testutil.ToFloat64(forbidden))
}

// newTicketApp wires a ticket manager to an in-memory guild.
func newTicketApp(t *testing.T) (*fakeApp, *platformtest.Fake, dataaccess.Store) {
	t.Helper()

	l := discardLogger()

	f := platformtest.NewFake(testBotID)
	f.AddGuild(testGuildID, "Support Guild")
	f.AddRole(testGuildID, &discordgo.Role{ID: testStaffRoleID, Name: "Staff", Position: 1})
	f.AddMember(testGuildID, member(testAdminID))
	f.AddMember(testGuildID, member(testStaffID, testStaffRoleID))
	f.AddMember(testGuildID, member(testCreatorID))
	f.AddChannel(&discordgo.Channel{ID: testPanelChannel, GuildID: testGuildID, Name: "support", Type: discordgo.ChannelTypeGuildText})
	f.AddChannel(&discordgo.Channel{ID: testLogChannel, GuildID: testGuildID, Name: "ticket-logs", Type: discordgo.ChannelTypeGuildText})
	f.AddChannel(&discordgo.Channel{ID: testCategory, GuildID: testGuildID, Name: "Tickets", Type: discordgo.ChannelTypeGuildCategory})

	store, err := dataaccess.NewFileStore(l, t.TempDir())
	require.NoError(t, err)

	sink := audit.NewSink(l, f)
	t.Cleanup(sink.Wait)

	pub := transcript.NewPublisher("http://localhost:8080")
	gen := transcript.NewGenerator(l, f)
	m := NewManager(l, store, f, sink, gen, pub, tickets.Admins{testAdminID})

	return &fakeApp{manager: m}, f, store
}

func TestInteractions_TicketFlow(t *testing.T) {
	a, f, store := newTicketApp(t)
	ctx := context.Background()

	commands := map[string]interactionProcessor{
		SupportCmdName: setupPanel,
		CloseCmdName:   closeTicketCmd,
		AddCmdName:     addParticipant,
		DeleteCmdName:  deleteTicket,
	}
	buttons := map[string]interactionProcessor{
		tickets.SupportButtonID:      openTicket,
		tickets.ClaimButtonID:        claimTicket,
		tickets.ConfirmCloseButtonID: confirmClose,
	}
	handle := func(i *discordgo.InteractionCreate) string {
		handleInteraction(ctx, a, commands, buttons, i)
		return a.lastReply(t)
	}

	got := handle(commandInteraction(SupportCmdName, testPanelChannel, member(testAdminID),
		option(optPanel, discordgo.ApplicationCommandOptionChannel, testPanelChannel),
		option(optStaff, discordgo.ApplicationCommandOptionRole, testStaffRoleID),
		option(optTicketCategory, discordgo.ApplicationCommandOptionChannel, testCategory),
		option(optLogs, discordgo.ApplicationCommandOptionChannel, testLogChannel),
		option(optColor, discordgo.ApplicationCommandOptionString, "#FF0000"),
	))
	require.Equal(t, "Support panel set up successfully!\n\n"+messages.PanelGuide, got)

	panel, err := store.GetPanel(ctx, testGuildID)
	require.NoError(t, err)
	require.Equal(t, 0xFF0000, panel.Color)

	handle(buttonInteraction(tickets.SupportButtonID, testPanelChannel, member(testCreatorID)))
	ticket, err := store.GetTicket(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "Your ticket has been created: <#"+ticket.ChannelID+">", a.lastReply(t))

	got = handle(buttonInteraction(tickets.SupportButtonID, testPanelChannel, member(testCreatorID)))
	require.Equal(t, messages.ErrAlreadyOpen, got)

	got = handle(buttonInteraction(tickets.ClaimButtonID, ticket.ChannelID, member(testCreatorID)))
	require.Equal(t, messages.ErrClaimStaffOnly, got)

	got = handle(buttonInteraction(tickets.ClaimButtonID, ticket.ChannelID, member(testStaffID, testStaffRoleID)))
	require.Equal(t, messages.ClaimedTicket, got)

	got = handle(commandInteraction(AddCmdName, ticket.ChannelID, member(testStaffID, testStaffRoleID),
		option(optUser, discordgo.ApplicationCommandOptionUser, testAdminID),
	))
	require.Equal(t, "User added to the ticket!", got)

	got = handle(commandInteraction(CloseCmdName, ticket.ChannelID, member(testCreatorID),
		option(optTicket, discordgo.ApplicationCommandOptionChannel, ticket.ChannelID),
	))
	require.Equal(t, messages.ConfirmationPosted, got)

	got = handle(buttonInteraction(tickets.ConfirmCloseButtonID, ticket.ChannelID, member(testCreatorID)))
	require.Equal(t, messages.TicketClosed, got)

	got = handle(commandInteraction(DeleteCmdName, testPanelChannel, member(testStaffID, testStaffRoleID),
		option(optTicket, discordgo.ApplicationCommandOptionChannel, ticket.ChannelID),
	))
	require.Equal(t, "Ticket closed-ticket-1 has been deleted.", got)
	require.False(t, f.ChannelExists(ticket.ChannelID))

	_, err = store.GetTicket(ctx, 1)
	require.ErrorIs(t, err, dataaccess.ErrNotFound)
}

func TestInteractions_SetupPanelRejectsBadColor(t *testing.T) {
	a, f, _ := newTicketApp(t)

	handleInteraction(context.Background(), a,
		map[string]interactionProcessor{SupportCmdName: setupPanel}, nil,
		commandInteraction(SupportCmdName, testPanelChannel, member(testAdminID),
			option(optPanel, discordgo.ApplicationCommandOptionChannel, testPanelChannel),
			option(optStaff, discordgo.ApplicationCommandOptionRole, testStaffRoleID),
			option(optColor, discordgo.ApplicationCommandOptionString, "crimson"),
		))

	require.Equal(t, messages.ErrInvalidColor, a.lastReply(t))
	require.Empty(t, f.Messages(testPanelChannel))
}
