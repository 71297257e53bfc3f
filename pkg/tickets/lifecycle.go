package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/audit"
	"github.com/Jacobbrewer1/husky/pkg/custom"
	"github.com/Jacobbrewer1/husky/pkg/dataaccess"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/Jacobbrewer1/husky/pkg/platform"
)

// Open creates a ticket for the actor from the guild's support panel.
func (m *Manager) Open(ctx context.Context, a Actor) (t *entities.Ticket, err error) {
	defer m.locks.lock(creatorKey(a.UserID))()
	defer func() { observe("open", err) }()

	panel, err := m.store.GetPanel(ctx, a.GuildID)
	if errors.Is(err, dataaccess.ErrNotFound) {
		return nil, newError(KindPrecondition, messages.ErrPanelNotConfigured)
	} else if err != nil {
		return nil, fmt.Errorf("error getting panel: %w", err)
	}

	_, err = m.store.GetOpenTicketByCreator(ctx, a.UserID)
	if err == nil {
		return nil, newError(KindPrecondition, messages.ErrAlreadyOpen)
	} else if !errors.Is(err, dataaccess.ErrNotFound) {
		return nil, fmt.Errorf("error checking for open tickets: %w", err)
	}

	id, err := m.store.NextTicketID(ctx)
	if err != nil {
		return nil, fmt.Errorf("error allocating ticket id: %w", err)
	}

	t = &entities.Ticket{
		ID:               id,
		GuildID:          a.GuildID,
		CreatorID:        a.UserID,
		StaffRoleID:      panel.StaffRoleID,
		LogChannelID:     panel.LogChannelID,
		CategoryID:       panel.TicketCategoryID,
		ClosedCategoryID: panel.ClosedCategoryID,
		State:            entities.StateOpen,
		CreatedAt:        custom.NewDatetime(m.now()),
	}

	parentID := panel.TicketCategoryID
	if parentID != "" {
		if _, err := m.platform.Channel(ctx, parentID); errors.Is(err, platform.ErrNotFound) {
			m.l.Warn("Ticket category not found, creating the ticket without a category",
				slog.String(logging.KeyGuild, a.GuildID),
				slog.String(logging.KeyChannel, parentID),
			)
			parentID = ""
		} else if err != nil {
			return nil, fmt.Errorf("error getting ticket category: %w", err)
		}
	}

	ch, err := m.platform.CreateChannel(ctx, a.GuildID, discordgo.GuildChannelCreateData{
		Name:                 entities.OpenName(id),
		Type:                 discordgo.ChannelTypeGuildText,
		ParentID:             parentID,
		PermissionOverwrites: m.standardAccess(t).ToDiscord(),
	})
	if err != nil {
		return nil, fmt.Errorf("error creating ticket channel: %w", err)
	}
	t.ChannelID = ch.ID

	if err := m.store.SaveTicket(ctx, t); err != nil {
		if delErr := m.platform.DeleteChannel(ctx, ch.ID); delErr != nil {
			m.l.Error("Error removing channel of unsaved ticket",
				slog.String(logging.KeyChannel, ch.ID),
				slog.String(logging.KeyError, delErr.Error()),
			)
		}
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	l := m.l.With(slog.Int(logging.KeyTicket, id), slog.String(logging.KeyChannel, ch.ID))

	welcome, err := m.platform.SendMessage(ctx, ch.ID, welcomeMessage(panel))
	if err != nil {
		l.Error("Error sending welcome message", slog.String(logging.KeyError, err.Error()))
	} else {
		t.InitialMessageID = welcome.ID
		t.InitialMessageButtons = append([]string(nil), initialButtons...)
		if err := m.store.SaveTicket(ctx, t); err != nil {
			return nil, fmt.Errorf("error saving welcome message: %w", err)
		}
	}

	ping := a.Mention()
	if t.StaffRoleID != "" {
		ping = roleMention(t.StaffRoleID) + " " + ping
	}
	m.post(ctx, ch.ID, &discordgo.MessageSend{Content: ping})

	m.audit.Log(ctx, audit.Entry{
		Title:     "Ticket Created",
		Fields:    append(m.ticketFields(ctx, t, "", ""), ticketLocation(t)...),
		ChannelID: t.LogChannelID,
	})

	ticketsOpened.Inc()
	l.Info("Ticket opened", slog.String(logging.KeyUser, a.UserID))
	return t.Clone(), nil
}

// Claim makes the actor the owner of a ticket and hides it from the rest of the staff.
func (m *Manager) Claim(ctx context.Context, a Actor, channelID string) (t *entities.Ticket, err error) {
	defer m.locks.lock(ticketKey(channelID))()
	defer func() { observe("claim", err) }()

	t, err = m.ticketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !a.HasRole(t.StaffRoleID) {
		return nil, newError(KindUnauthorized, messages.ErrClaimStaffOnly)
	}
	if !t.IsOpen() {
		return nil, newError(KindPrecondition, messages.ErrNotOpenTicket)
	}
	if t.IsClaimed() {
		name := m.displayName(ctx, t.GuildID, t.ClaimerID)
		if name == "" {
			name = userMention(t.ClaimerID)
		}
		return nil, newError(KindPrecondition, fmt.Sprintf("This ticket has already been claimed by %s.", name))
	}

	current, err := m.currentAccess(ctx, t.ChannelID)
	if err != nil {
		return nil, err
	}
	staff, roles, err := m.staffMembers(ctx, t.GuildID, t.StaffRoleID)
	if err != nil {
		return nil, err
	}

	desired := current.Clone()
	for _, member := range staff {
		if member.User.ID == a.UserID || platform.IsAdministrator(member, roles) {
			continue
		}
		desired[platform.Member(member.User.ID)] = platform.Hidden
	}
	desired[platform.Member(a.UserID)] = platform.ViewSend
	desired[platform.Member(t.CreatorID)] = platform.ViewSend

	if err := m.applyAccess(ctx, t.ChannelID, current, desired, platform.ChannelUpdate{}); err != nil {
		return nil, err
	}

	t.ClaimerID = a.UserID
	t.State = entities.StateClaimed
	if err := m.store.SaveTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	m.post(ctx, t.ChannelID, notice(fmt.Sprintf("This ticket has been claimed by %s.", a.DisplayName), ColorGold))
	m.audit.Log(ctx, audit.Entry{
		Title:     "Ticket Claimed",
		Fields:    append(m.ticketFields(ctx, t, t.ClaimerID, ""), ticketLocation(t)...),
		ChannelID: t.LogChannelID,
	})
	return t.Clone(), nil
}

// Unclaim releases the actor's claim and gives the whole staff access again.
func (m *Manager) Unclaim(ctx context.Context, a Actor, channelID string) (t *entities.Ticket, err error) {
	defer m.locks.lock(ticketKey(channelID))()
	defer func() { observe("unclaim", err) }()

	t, err = m.ticketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !t.IsOpen() {
		return nil, newError(KindPrecondition, messages.ErrNotOpenTicket)
	}
	if !t.IsClaimed() {
		return nil, newError(KindPrecondition, messages.ErrNotClaimed)
	}
	if t.ClaimerID != a.UserID {
		return nil, newError(KindUnauthorized, messages.ErrNotClaimer)
	}

	current, err := m.currentAccess(ctx, t.ChannelID)
	if err != nil {
		return nil, err
	}
	staff, _, err := m.staffMembers(ctx, t.GuildID, t.StaffRoleID)
	if err != nil {
		return nil, err
	}

	desired := current.Clone()
	for _, member := range staff {
		desired[platform.Member(member.User.ID)] = platform.ViewSend
	}
	if err := m.applyAccess(ctx, t.ChannelID, current, desired, platform.ChannelUpdate{}); err != nil {
		return nil, err
	}

	t.ClaimerID = ""
	t.State = entities.StateOpen
	if err := m.store.SaveTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	fields := m.ticketFields(ctx, t, "", t.CloserID)
	fields = append(fields, audit.Field{Name: "Unclaimed By", Value: a.DisplayName})
	m.audit.Log(ctx, audit.Entry{
		Title:     "Ticket Unclaimed",
		Fields:    append(fields, ticketLocation(t)...),
		ChannelID: t.LogChannelID,
	})
	m.post(ctx, t.ChannelID, notice(fmt.Sprintf("This ticket has been unclaimed by %s.", a.DisplayName), ColorBlue))
	return t.Clone(), nil
}

// checkCloser must be called with the ticket lock held.
func (m *Manager) checkCloser(a Actor, t *entities.Ticket) error {
	if t.CreatorID == "" {
		return newError(KindIntegrity, messages.ErrCreatorUnknown)
	}
	if !a.HasRole(t.StaffRoleID) && a.UserID != t.CreatorID {
		return newError(KindUnauthorized, messages.ErrCloseNotPermitted)
	}
	if !t.IsOpen() {
		return newError(KindPrecondition, messages.ErrNotOpenTicket)
	}
	return nil
}

// RequestClose posts the close confirmation prompt in the ticket.
func (m *Manager) RequestClose(ctx context.Context, a Actor, channelID string) (t *entities.Ticket, err error) {
	defer m.locks.lock(ticketKey(channelID))()
	defer func() { observe("request_close", err) }()

	t, err = m.ticketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := m.checkCloser(a, t); err != nil {
		return nil, err
	}

	prompt, err := m.platform.SendMessage(ctx, t.ChannelID, confirmationMessage(t.ID))
	if err != nil {
		return nil, fmt.Errorf("error sending close confirmation: %w", err)
	}

	t.ConfirmationMessageID = prompt.ID
	t.ConfirmationMessageButtons = append([]string(nil), confirmationButtons...)
	if err := m.store.SaveTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}
	return t.Clone(), nil
}

// ConfirmClose closes a ticket: the channel is locked, renamed and moved, the transcript is published and
// the creator is told where to find it.
func (m *Manager) ConfirmClose(ctx context.Context, a Actor, channelID string) (c *Closure, err error) {
	defer m.locks.lock(ticketKey(channelID))()
	defer func() { observe("close", err) }()

	t, err := m.ticketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if err := m.checkCloser(a, t); err != nil {
		return nil, err
	}

	l := m.l.With(slog.Int(logging.KeyTicket, t.ID), slog.String(logging.KeyChannel, t.ChannelID))

	current, err := m.currentAccess(ctx, t.ChannelID)
	if err != nil {
		return nil, err
	}
	update := platform.ChannelUpdate{Name: entities.ClosedName(t.ID)}
	if t.ClosedCategoryID != "" {
		if _, err := m.platform.Channel(ctx, t.ClosedCategoryID); err != nil {
			l.Warn("Closed tickets category unavailable, leaving the ticket in place",
				slog.String("category_id", t.ClosedCategoryID),
				slog.String(logging.KeyError, err.Error()),
			)
		} else {
			update.ParentID = t.ClosedCategoryID
		}
	}
	if err := m.applyAccess(ctx, t.ChannelID, current, m.closedAccess(t), update); err != nil {
		return nil, err
	}

	t.CloserID = a.UserID
	t.State = entities.StateClosed
	t.ClosedAt = custom.NewDatetime(m.now())

	c = &Closure{Ticket: t}

	doc, err := m.generator.Generate(ctx, t)
	if err != nil {
		l.Error("Error generating transcript", slog.String(logging.KeyError, err.Error()))
		doc = nil
	}
	c.TranscriptAvailable = doc != nil

	token, err := m.publisher.Publish(t.ID, doc)
	if err != nil {
		l.Error("Error publishing transcript", slog.String(logging.KeyError, err.Error()))
	} else {
		c.URL = m.publisher.URL(t.ID, token)
	}

	if err := m.store.SaveTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	m.audit.Log(ctx, audit.Entry{
		Title:     "Ticket Closed",
		Fields:    append(m.ticketFields(ctx, t, t.ClaimerID, t.CloserID), ticketLocation(t)...),
		ChannelID: t.LogChannelID,
		URL:       c.URL,
	})

	m.notifyCreator(ctx, t, a, c.URL)
	m.post(ctx, t.ChannelID, &discordgo.MessageSend{
		Content: fmt.Sprintf("Ticket `%s` has been closed by %s.", entities.OpenName(t.ID), a.Mention()),
	})

	ticketsClosed.Inc()
	l.Info("Ticket closed", slog.String(logging.KeyUser, a.UserID))

	c.Ticket = t.Clone()
	return c, nil
}

// notifyCreator sends the creator the transcript link. When the creator does not accept direct messages
// a notice is posted in the ticket instead.
func (m *Manager) notifyCreator(ctx context.Context, t *entities.Ticket, a Actor, url string) {
	if _, err := m.platform.Member(ctx, t.GuildID, t.CreatorID); err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			m.l.Error("Error resolving ticket creator",
				slog.Int(logging.KeyTicket, t.ID),
				slog.String(logging.KeyError, err.Error()),
			)
		}
		return
	}

	description := fmt.Sprintf("Your ticket `%s` has been closed by %s.", entities.OpenName(t.ID), a.DisplayName)
	if url != "" {
		description += fmt.Sprintf("\n📜 [View Transcript](%s)", url)
	}

	err := m.platform.SendDirectMessage(ctx, t.CreatorID, &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{
			{
				Title:       "Ticket Closed",
				Description: description,
				Color:       ColorRed,
				Timestamp:   m.now().UTC().Format(time.RFC3339),
			},
		},
	})
	switch {
	case err == nil:
		return
	case errors.Is(err, platform.ErrCannotDM):
		m.l.Warn("Could not DM the ticket creator",
			slog.Int(logging.KeyTicket, t.ID),
			slog.String(logging.KeyUser, t.CreatorID),
		)
		m.post(ctx, t.ChannelID, &discordgo.MessageSend{
			Content: fmt.Sprintf("Could not DM %s the transcript. Please ensure your DMs are open.", userMention(t.CreatorID)),
		})
	default:
		m.l.Error("Error sending DM to the ticket creator",
			slog.Int(logging.KeyTicket, t.ID),
			slog.String(logging.KeyError, err.Error()),
		)
		m.post(ctx, t.ChannelID, &discordgo.MessageSend{
			Content: fmt.Sprintf("Error sending transcript to %s.", userMention(t.CreatorID)),
		})
	}
}

// AbortClose dismisses the close confirmation prompt. The ticket does not change.
func (m *Manager) AbortClose(ctx context.Context, a Actor, channelID string) (err error) {
	defer m.locks.lock(ticketKey(channelID))()
	defer func() { observe("abort_close", err) }()

	t, err := m.ticketByChannel(ctx, channelID)
	if err != nil {
		return err
	}

	m.l.Debug("Ticket closure canceled",
		slog.Int(logging.KeyTicket, t.ID),
		slog.String(logging.KeyUser, a.UserID),
	)
	return nil
}

// Reopen restores a closed ticket to its open name, category and access.
func (m *Manager) Reopen(ctx context.Context, a Actor, channelID string) (t *entities.Ticket, err error) {
	defer m.locks.lock(ticketKey(channelID))()
	defer func() { observe("reopen", err) }()

	t, err = m.ticketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !a.HasRole(t.StaffRoleID) {
		return nil, newError(KindUnauthorized, messages.ErrStaffOnly)
	}
	if t.IsOpen() {
		return nil, newError(KindPrecondition, messages.ErrNotClosedTicket)
	}
	if t.CreatorID == "" {
		return nil, newError(KindIntegrity, messages.ErrCreatorUnknown)
	}

	if _, err := m.platform.Member(ctx, t.GuildID, t.CreatorID); errors.Is(err, platform.ErrNotFound) {
		return nil, newError(KindPrecondition, messages.ErrCreatorLeft)
	} else if err != nil {
		return nil, fmt.Errorf("error getting ticket creator: %w", err)
	}

	update := platform.ChannelUpdate{Name: entities.OpenName(t.ID)}
	if t.CategoryID != "" {
		if _, err := m.platform.Channel(ctx, t.CategoryID); errors.Is(err, platform.ErrNotFound) {
			return nil, newError(KindPrecondition, messages.ErrCategoryNotFound)
		} else if err != nil {
			return nil, fmt.Errorf("error getting ticket category: %w", err)
		}
		update.ParentID = t.CategoryID
	}

	current, err := m.currentAccess(ctx, t.ChannelID)
	if err != nil {
		return nil, err
	}
	if err := m.applyAccess(ctx, t.ChannelID, current, m.standardAccess(t), update); err != nil {
		return nil, err
	}

	claimerID, closerID := t.ClaimerID, t.CloserID

	t.ClaimerID = ""
	t.CloserID = ""
	t.State = entities.StateOpen
	if err := m.store.SaveTicket(ctx, t); err != nil {
		return nil, fmt.Errorf("error saving ticket: %w", err)
	}

	fields := m.ticketFields(ctx, t, claimerID, closerID)
	fields = append(fields, audit.Field{Name: "Reopened By", Value: a.DisplayName})
	m.audit.Log(ctx, audit.Entry{
		Title:     "Ticket Reopened",
		Fields:    append(fields, ticketLocation(t)...),
		ChannelID: t.LogChannelID,
	})
	return t.Clone(), nil
}

// Delete removes a ticket and its channel. It returns the name the channel had.
func (m *Manager) Delete(ctx context.Context, a Actor, channelID string) (name string, err error) {
	defer m.locks.lock(ticketKey(channelID))()
	defer func() { observe("delete", err) }()

	t, err := m.ticketByChannel(ctx, channelID)
	if err != nil {
		return "", err
	}
	if !a.HasRole(t.StaffRoleID) {
		return "", newError(KindUnauthorized, messages.ErrStaffOnly)
	}

	name = t.Name()
	m.audit.Log(ctx, audit.Entry{
		Title: "Ticket Deleted",
		Fields: []audit.Field{
			{Name: "Deleted By", Value: a.DisplayName},
			{Name: "Ticket", Value: name},
		},
		ChannelID: t.LogChannelID,
	})

	if err := m.store.DeleteTicket(ctx, t.ID); err != nil && !errors.Is(err, dataaccess.ErrNotFound) {
		return "", fmt.Errorf("error deleting ticket: %w", err)
	}
	if err := m.platform.DeleteChannel(ctx, t.ChannelID); err != nil && !errors.Is(err, platform.ErrNotFound) {
		return "", fmt.Errorf("error deleting ticket channel: %w", err)
	}

	m.l.Info("Ticket deleted",
		slog.Int(logging.KeyTicket, t.ID),
		slog.String(logging.KeyUser, a.UserID),
	)
	return name, nil
}
