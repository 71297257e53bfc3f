// Package tickets implements the ticket lifecycle: opening, claiming, closing, reopening and deleting
// tickets, managing their participants and setting up the support panel.
package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/audit"
	"github.com/Jacobbrewer1/husky/pkg/dataaccess"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/Jacobbrewer1/husky/pkg/platform"
	"github.com/Jacobbrewer1/husky/pkg/transcript"
)

// Store is the persistence the manager needs.
type Store interface {
	dataaccess.TicketDal
	dataaccess.PanelDal
}

// Admins are the user IDs allowed to set up and edit the support panel.
type Admins []string

// Actor is the user performing an operation.
type Actor struct {
	GuildID     string
	UserID      string
	DisplayName string
	RoleIDs     []string
	Permissions int64
}

// NewActor builds the actor from the member that triggered an interaction.
func NewActor(guildID string, m *discordgo.Member) Actor {
	a := Actor{GuildID: guildID}
	if m == nil {
		return a
	}
	if m.User != nil {
		a.UserID = m.User.ID
	}
	a.DisplayName = platform.DisplayName(m)
	a.RoleIDs = append([]string(nil), m.Roles...)
	a.Permissions = m.Permissions
	return a
}

// HasRole reports whether the actor holds the role.
func (a Actor) HasRole(roleID string) bool {
	if roleID == "" {
		return false
	}
	for _, r := range a.RoleIDs {
		if r == roleID {
			return true
		}
	}
	return false
}

// Mention is the mention of the actor.
func (a Actor) Mention() string {
	return userMention(a.UserID)
}

// Closure is the outcome of closing a ticket.
type Closure struct {
	Ticket *entities.Ticket

	// URL is the transcript link. It is empty when no token could be minted.
	URL string

	// TranscriptAvailable is false when the transcript could not be generated.
	TranscriptAvailable bool
}

// Option configures a Manager.
type Option func(m *Manager)

// WithClock sets the clock used for ticket timestamps.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager runs ticket operations. Operations on the same ticket, panel or creator run one at a time.
type Manager struct {
	locks keyedMutex

	l         *slog.Logger
	store     Store
	platform  platform.Platform
	audit     *audit.Sink
	generator *transcript.Generator
	publisher *transcript.Publisher
	admins    map[string]bool
	now       func() time.Time
}

// NewManager creates a new Manager.
func NewManager(
	l *slog.Logger,
	store Store,
	p platform.Platform,
	sink *audit.Sink,
	gen *transcript.Generator,
	pub *transcript.Publisher,
	admins Admins,
	opts ...Option,
) *Manager {
	m := &Manager{
		l:         l.With(slog.String("component", "tickets")),
		store:     store,
		platform:  p,
		audit:     sink,
		generator: gen,
		publisher: pub,
		admins:    make(map[string]bool, len(admins)),
		now:       time.Now,
	}
	for _, id := range admins {
		m.admins[id] = true
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// IsAdmin reports whether the actor may manage the support panel. Without configured admins anyone with
// the administrator permission may.
func (m *Manager) IsAdmin(a Actor) bool {
	if len(m.admins) == 0 {
		return a.Permissions&discordgo.PermissionAdministrator != 0
	}
	return m.admins[a.UserID]
}

// ticketByChannel must be called with the ticket lock held.
func (m *Manager) ticketByChannel(ctx context.Context, channelID string) (*entities.Ticket, error) {
	t, err := m.store.GetTicketByChannel(ctx, channelID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, newError(KindNotFound, messages.ErrNotTicketChannel)
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket: %w", err)
	}
	return t, nil
}

// displayName resolves a member's display name. Members that cannot be resolved have no name.
func (m *Manager) displayName(ctx context.Context, guildID, userID string) string {
	if userID == "" {
		return ""
	}
	member, err := m.platform.Member(ctx, guildID, userID)
	if err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			m.l.Warn("Error resolving member",
				slog.String(logging.KeyUser, userID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
		return ""
	}
	return platform.DisplayName(member)
}

func (m *Manager) roleName(ctx context.Context, guildID, roleID string) string {
	roles, err := m.platform.Roles(ctx, guildID)
	if err != nil {
		m.l.Warn("Error listing roles", slog.String(logging.KeyGuild, guildID), slog.String(logging.KeyError, err.Error()))
		return ""
	}
	for _, r := range roles {
		if r.ID == roleID {
			return r.Name
		}
	}
	return ""
}

// standardAccess is the access of an open ticket: hidden from everyone except the creator, the staff role
// and the bot.
func (m *Manager) standardAccess(t *entities.Ticket) platform.Overwrites {
	o := platform.Overwrites{
		platform.Role(t.GuildID):                platform.Hidden,
		platform.Member(t.CreatorID):            platform.ViewSend,
		platform.Member(m.platform.BotUserID()): platform.ViewSend,
	}
	if t.StaffRoleID != "" {
		o[platform.Role(t.StaffRoleID)] = platform.ViewSend
	}
	return o
}

// closedAccess is the access of a closed ticket: only the bot can see it.
func (m *Manager) closedAccess(t *entities.Ticket) platform.Overwrites {
	return platform.Overwrites{
		platform.Role(t.GuildID):                platform.Hidden,
		platform.Member(m.platform.BotUserID()): platform.ViewSend,
	}
}

// currentAccess reads the access model of a ticket channel.
func (m *Manager) currentAccess(ctx context.Context, channelID string) (platform.Overwrites, error) {
	ch, err := m.platform.Channel(ctx, channelID)
	if err != nil {
		return nil, fmt.Errorf("error getting channel: %w", err)
	}
	return platform.FromDiscord(ch.PermissionOverwrites), nil
}

// applyAccess moves the channel from its current access to the desired one in a single update.
func (m *Manager) applyAccess(ctx context.Context, channelID string, current, desired platform.Overwrites, update platform.ChannelUpdate) error {
	update.Access, update.Revoke = platform.Diff(current, desired)
	if err := m.platform.UpdateChannel(ctx, channelID, update); err != nil {
		return fmt.Errorf("error updating channel: %w", err)
	}
	return nil
}

// staffMembers lists the guild members that hold the staff role, excluding the bot.
func (m *Manager) staffMembers(ctx context.Context, guildID, staffRoleID string) ([]*discordgo.Member, []*discordgo.Role, error) {
	members, err := m.platform.Members(ctx, guildID)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing members: %w", err)
	}
	roles, err := m.platform.Roles(ctx, guildID)
	if err != nil {
		return nil, nil, fmt.Errorf("error listing roles: %w", err)
	}

	staff := make([]*discordgo.Member, 0)
	for _, member := range members {
		if member.User == nil || member.User.ID == m.platform.BotUserID() {
			continue
		}
		if platform.HasRole(member, staffRoleID) {
			staff = append(staff, member)
		}
	}
	return staff, roles, nil
}

// post sends a message to a ticket channel. A failure is logged and otherwise ignored.
func (m *Manager) post(ctx context.Context, channelID string, msg *discordgo.MessageSend) {
	if _, err := m.platform.SendMessage(ctx, channelID, msg); err != nil {
		m.l.Error("Error posting message to ticket",
			slog.String(logging.KeyChannel, channelID),
			slog.String(logging.KeyError, err.Error()),
		)
	}
}

// ticketFields are the fields every lifecycle audit entry starts with.
func (m *Manager) ticketFields(ctx context.Context, t *entities.Ticket, claimerID, closerID string) []audit.Field {
	return []audit.Field{
		{Name: "Created By", Value: m.displayName(ctx, t.GuildID, t.CreatorID)},
		{Name: "Claimed By", Value: m.displayName(ctx, t.GuildID, claimerID)},
		{Name: "Closed By", Value: m.displayName(ctx, t.GuildID, closerID)},
	}
}

func ticketLocation(t *entities.Ticket) []audit.Field {
	return []audit.Field{
		{Name: "Ticket", Value: entities.OpenName(t.ID)},
		{Name: "Channel", Value: channelMention(t.ChannelID)},
	}
}
