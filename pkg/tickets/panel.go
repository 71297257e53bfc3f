package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/dataaccess"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/Jacobbrewer1/husky/pkg/platform"
)

// PanelSetup are the options of the support panel setup.
type PanelSetup struct {
	ChannelID        string
	StaffRoleID      string
	TicketCategoryID string
	ClosedCategoryID string
	LogChannelID     string

	// Color is the embed color. Nil uses the default.
	Color *int

	// ImageURL is ignored unless it is a valid image URL.
	ImageURL string
}

// PanelEdit are the changes to an existing support panel. Empty values are left unchanged.
type PanelEdit struct {
	ChannelID   string
	Title       string
	Description string
	Color       *int
	ButtonLabel string

	// ImageURL replaces the image when valid. "none" removes it; anything else invalid keeps the old one.
	ImageURL string
}

func (e PanelEdit) empty() bool {
	return e.Title == "" && e.Description == "" && e.Color == nil && e.ButtonLabel == "" && e.ImageURL == ""
}

// SetupPanel posts the support panel and stores its configuration. Every stored ticket of the guild is
// pointed at the new closed category and log channel.
func (m *Manager) SetupPanel(ctx context.Context, a Actor, s PanelSetup) (p *entities.Panel, err error) {
	defer m.locks.lock(panelKey(a.GuildID))()
	defer func() { observe("setup_panel", err) }()

	if !m.IsAdmin(a) {
		return nil, newError(KindUnauthorized, messages.ErrNotPermitted)
	}

	serverName := "Server"
	if g, err := m.platform.Guild(ctx, a.GuildID); err != nil {
		m.l.Warn("Error getting guild", slog.String(logging.KeyGuild, a.GuildID), slog.String(logging.KeyError, err.Error()))
	} else if g.Name != "" {
		serverName = g.Name
	}

	p = &entities.Panel{
		GuildID:          a.GuildID,
		ChannelID:        s.ChannelID,
		StaffRoleID:      s.StaffRoleID,
		TicketCategoryID: s.TicketCategoryID,
		ClosedCategoryID: s.ClosedCategoryID,
		LogChannelID:     s.LogChannelID,
		Title:            fmt.Sprintf("%s Support System", serverName),
		Description:      panelDescription,
		Color:            entities.DefaultPanelColor,
		ButtonLabel:      entities.DefaultButtonLabel,
	}
	if s.Color != nil {
		p.Color = *s.Color
	}
	if ValidImageURL(s.ImageURL) {
		p.ImageURL = s.ImageURL
	}

	msg, err := m.platform.SendMessage(ctx, s.ChannelID, &discordgo.MessageSend{
		Embeds:     []*discordgo.MessageEmbed{panelEmbed(p)},
		Components: panelComponents(p),
	})
	if err != nil {
		return nil, fmt.Errorf("error sending panel: %w", err)
	}
	p.MessageID = msg.ID

	if err := m.store.SavePanel(ctx, p); err != nil {
		return nil, fmt.Errorf("error saving panel: %w", err)
	}

	tickets, err := m.store.ListTickets(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing tickets: %w", err)
	}
	for _, t := range tickets {
		if t.GuildID != "" && t.GuildID != a.GuildID {
			continue
		}
		if err := m.repointTicket(ctx, t, s); err != nil {
			return nil, err
		}
	}

	m.l.Info("Support panel set up",
		slog.String(logging.KeyGuild, a.GuildID),
		slog.String(logging.KeyChannel, s.ChannelID),
	)
	return p.Clone(), nil
}

// repointTicket moves a stored ticket to the closed category and log channel of a new panel.
func (m *Manager) repointTicket(ctx context.Context, t *entities.Ticket, s PanelSetup) error {
	defer m.locks.lock(ticketKey(t.ChannelID))()

	// Reload under the ticket lock so a concurrent operation is not overwritten.
	t, err := m.store.GetTicket(ctx, t.ID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil
	} else if err != nil {
		return fmt.Errorf("error getting ticket: %w", err)
	}

	t.ClosedCategoryID = s.ClosedCategoryID
	t.LogChannelID = s.LogChannelID
	if err := m.store.SaveTicket(ctx, t); err != nil {
		return fmt.Errorf("error updating ticket %d: %w", t.ID, err)
	}
	return nil
}

// EditPanel changes the support panel in a channel and the message that shows it.
func (m *Manager) EditPanel(ctx context.Context, a Actor, e PanelEdit) (p *entities.Panel, err error) {
	defer m.locks.lock(panelKey(a.GuildID))()
	defer func() { observe("edit_panel", err) }()

	if !m.IsAdmin(a) {
		return nil, newError(KindUnauthorized, messages.ErrNotPermitted)
	}
	if e.empty() {
		return nil, newError(KindPrecondition, messages.ErrEditNothing)
	}

	p, err = m.store.GetPanel(ctx, a.GuildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, newError(KindPrecondition, messages.ErrPanelNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("error getting panel: %w", err)
	}
	if p.ChannelID != e.ChannelID {
		return nil, newError(KindPrecondition, messages.ErrPanelNotFound)
	}

	msg, err := m.panelMessage(ctx, p)
	if err != nil {
		return nil, err
	}

	if e.Title != "" {
		p.Title = e.Title
	}
	if e.Description != "" {
		p.Description = e.Description
	}
	if e.Color != nil {
		p.Color = *e.Color
	}
	if e.ButtonLabel != "" {
		p.ButtonLabel = e.ButtonLabel
	}
	switch {
	case e.ImageURL == "":
	case strings.EqualFold(e.ImageURL, imageNone):
		p.ImageURL = ""
	case ValidImageURL(e.ImageURL):
		p.ImageURL = e.ImageURL
	default:
		m.l.Debug("Ignoring invalid panel image", slog.String("image_url", e.ImageURL))
	}

	components := panelComponents(p)
	embeds := []*discordgo.MessageEmbed{panelEmbed(p)}
	if _, err := m.platform.EditMessage(ctx, &discordgo.MessageEdit{
		ID:         msg.ID,
		Channel:    p.ChannelID,
		Embeds:     embeds,
		Components: components,
	}); err != nil {
		return nil, fmt.Errorf("error editing panel message: %w", err)
	}

	p.MessageID = msg.ID
	if err := m.store.SavePanel(ctx, p); err != nil {
		return nil, fmt.Errorf("error saving panel: %w", err)
	}
	return p.Clone(), nil
}

// panelMessage finds the message showing the panel. Panels stored without a message ID are found by
// their footer among the latest messages of the channel.
func (m *Manager) panelMessage(ctx context.Context, p *entities.Panel) (*discordgo.Message, error) {
	if p.MessageID != "" {
		msg, err := m.platform.Message(ctx, p.ChannelID, p.MessageID)
		if err == nil {
			return msg, nil
		} else if !errors.Is(err, platform.ErrNotFound) {
			return nil, fmt.Errorf("error getting panel message: %w", err)
		}
	}

	recent, err := m.platform.RecentMessages(ctx, p.ChannelID, platform.HistoryLimit)
	if errors.Is(err, platform.ErrNotFound) {
		return nil, newError(KindPrecondition, messages.ErrPanelMessageMissing)
	} else if err != nil {
		return nil, fmt.Errorf("error reading panel channel: %w", err)
	}
	for _, msg := range recent {
		if isPanelMessage(msg, m.platform.BotUserID()) {
			return msg, nil
		}
	}
	return nil, newError(KindPrecondition, messages.ErrPanelMessageMissing)
}
