package tickets

import (
	"context"
	"fmt"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/audit"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/Jacobbrewer1/husky/pkg/platform"
)

// Participants are the user and role an add or remove applies to. At least one must be set.
type Participants struct {
	UserID string
	RoleID string
}

func (p Participants) empty() bool {
	return p.UserID == "" && p.RoleID == ""
}

// participantTicket must be called with the ticket lock held.
func (m *Manager) participantTicket(ctx context.Context, a Actor, channelID string, p Participants) (*entities.Ticket, error) {
	t, err := m.ticketByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if !a.HasRole(t.StaffRoleID) {
		return nil, newError(KindUnauthorized, messages.ErrStaffOnly)
	}
	if p.empty() {
		return nil, newError(KindPrecondition, messages.ErrParticipantRequired)
	}
	return t, nil
}

// AddParticipant lets a user or role view and write in a ticket.
func (m *Manager) AddParticipant(ctx context.Context, a Actor, channelID string, p Participants) (err error) {
	defer m.locks.lock(ticketKey(channelID))()
	defer func() { observe("add_participant", err) }()

	t, err := m.participantTicket(ctx, a, channelID, p)
	if err != nil {
		return err
	}

	current, err := m.currentAccess(ctx, t.ChannelID)
	if err != nil {
		return err
	}
	desired := current.Clone()
	if p.UserID != "" {
		desired[platform.Member(p.UserID)] = platform.ViewSend
	}
	if p.RoleID != "" {
		desired[platform.Role(p.RoleID)] = platform.ViewSend
	}
	if err := m.applyAccess(ctx, t.ChannelID, current, desired, platform.ChannelUpdate{}); err != nil {
		return err
	}

	if p.UserID != "" {
		m.post(ctx, t.ChannelID, &discordgo.MessageSend{
			Content: fmt.Sprintf("%s has added %s to the ticket!", a.Mention(), userMention(p.UserID)),
		})
		m.audit.Log(ctx, audit.Entry{
			Title: "User Added to Ticket",
			Fields: append([]audit.Field{
				{Name: "Added By", Value: a.DisplayName},
				{Name: "User", Value: m.displayName(ctx, t.GuildID, p.UserID)},
			}, ticketLocation(t)...),
			ChannelID: t.LogChannelID,
		})
	}
	if p.RoleID != "" {
		m.post(ctx, t.ChannelID, &discordgo.MessageSend{
			Content: fmt.Sprintf("%s has added %s to the ticket!", a.Mention(), roleMention(p.RoleID)),
		})
		m.audit.Log(ctx, audit.Entry{
			Title: "Role Added to Ticket",
			Fields: append([]audit.Field{
				{Name: "Added By", Value: a.DisplayName},
				{Name: "Role", Value: m.roleName(ctx, t.GuildID, p.RoleID)},
			}, ticketLocation(t)...),
			ChannelID: t.LogChannelID,
		})
	}
	return nil
}

// RemoveParticipant takes a user's or role's access to a ticket away. Removing the staff role removes every
// staff member except the actor.
func (m *Manager) RemoveParticipant(ctx context.Context, a Actor, channelID string, p Participants) (err error) {
	defer m.locks.lock(ticketKey(channelID))()
	defer func() { observe("remove_participant", err) }()

	t, err := m.participantTicket(ctx, a, channelID, p)
	if err != nil {
		return err
	}
	if p.UserID == a.UserID && a.HasRole(t.StaffRoleID) {
		return newError(KindPrecondition, messages.ErrRemoveSelf)
	}

	current, err := m.currentAccess(ctx, t.ChannelID)
	if err != nil {
		return err
	}
	desired := current.Clone()
	if p.UserID != "" {
		delete(desired, platform.Member(p.UserID))
	}
	if p.RoleID != "" {
		delete(desired, platform.Role(p.RoleID))
		if p.RoleID == t.StaffRoleID {
			staff, _, err := m.staffMembers(ctx, t.GuildID, t.StaffRoleID)
			if err != nil {
				return err
			}
			for _, member := range staff {
				if member.User.ID != a.UserID {
					delete(desired, platform.Member(member.User.ID))
				}
			}
			desired[platform.Member(a.UserID)] = platform.ViewSend
		}
	}
	if err := m.applyAccess(ctx, t.ChannelID, current, desired, platform.ChannelUpdate{}); err != nil {
		return err
	}

	if p.UserID != "" {
		m.post(ctx, t.ChannelID, &discordgo.MessageSend{
			Content: fmt.Sprintf("%s has removed %s from the ticket!", a.Mention(), userMention(p.UserID)),
		})
		m.audit.Log(ctx, audit.Entry{
			Title: "User Removed from Ticket",
			Fields: append([]audit.Field{
				{Name: "Removed By", Value: a.DisplayName},
				{Name: "User", Value: m.displayName(ctx, t.GuildID, p.UserID)},
			}, ticketLocation(t)...),
			ChannelID: t.LogChannelID,
		})
	}
	if p.RoleID != "" {
		m.post(ctx, t.ChannelID, &discordgo.MessageSend{
			Content: fmt.Sprintf("%s has removed %s from the ticket!", a.Mention(), roleMention(p.RoleID)),
		})
		m.audit.Log(ctx, audit.Entry{
			Title: "Role Removed from Ticket",
			Fields: append([]audit.Field{
				{Name: "Removed By", Value: a.DisplayName},
				{Name: "Role", Value: m.roleName(ctx, t.GuildID, p.RoleID)},
			}, ticketLocation(t)...),
			ChannelID: t.LogChannelID,
		})
	}
	return nil
}

// ParticipantsAck is the acknowledgement shown after an add or remove.
func ParticipantsAck(p Participants, verb string) string {
	switch {
	case p.UserID != "" && p.RoleID != "":
		return fmt.Sprintf("User and role %s the ticket!", verb)
	case p.UserID != "":
		return fmt.Sprintf("User %s the ticket!", verb)
	default:
		return fmt.Sprintf("Role %s the ticket!", verb)
	}
}
