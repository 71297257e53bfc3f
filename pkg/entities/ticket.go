package entities

import (
	"fmt"

	"github.com/Jacobbrewer1/husky/pkg/custom"
)

// Ticket is a support ticket.
type Ticket struct {
	// ID is the number of the ticket. IDs are never reused, even after a ticket is deleted.
	ID int `json:"id" bson:"id"`

	// GuildID is the ID of the guild that the ticket is in.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ChannelID is the ID of the channel that the ticket is in.
	ChannelID string `json:"channel_id" bson:"channel_id"`

	// CreatorID is the ID of the user that opened the ticket.
	CreatorID string `json:"creator_id" bson:"creator_id"`

	// StaffRoleID is the ID of the role that handles the ticket.
	StaffRoleID string `json:"staff_role_id" bson:"staff_role_id"`

	// LogChannelID is the ID of the channel that audit entries are posted to.
	LogChannelID string `json:"ticket_log_channel_id" bson:"ticket_log_channel_id"`

	// CategoryID is the ID of the category that open tickets live in.
	CategoryID string `json:"ticket_category_id" bson:"ticket_category_id"`

	// ClosedCategoryID is the ID of the category that closed tickets are moved to.
	ClosedCategoryID string `json:"closed_tickets_category_id" bson:"closed_tickets_category_id"`

	// ClaimerID is the ID of the staff member that claimed the ticket.
	ClaimerID string `json:"claimer_id,omitempty" bson:"claimer_id,omitempty"`

	// CloserID is the ID of the user that closed the ticket. A ticket is open while this is empty.
	CloserID string `json:"closer_id,omitempty" bson:"closer_id,omitempty"`

	// State is the lifecycle state of the ticket.
	State State `json:"state" bson:"state"`

	// InitialMessageID is the ID of the welcome message posted when the ticket was opened.
	InitialMessageID string `json:"initial_message_id,omitempty" bson:"initial_message_id,omitempty"`

	// InitialMessageButtons are the labels of the buttons on the welcome message.
	InitialMessageButtons []string `json:"initial_message_buttons,omitempty" bson:"initial_message_buttons,omitempty"`

	// ConfirmationMessageID is the ID of the pending close confirmation prompt.
	ConfirmationMessageID string `json:"confirmation_message_id,omitempty" bson:"confirmation_message_id,omitempty"`

	// ConfirmationMessageButtons are the labels of the buttons on the close confirmation prompt.
	ConfirmationMessageButtons []string `json:"confirmation_message_buttons,omitempty" bson:"confirmation_message_buttons,omitempty"`

	// CreatedAt is the time that the ticket was opened.
	CreatedAt custom.Datetime `json:"created_at" bson:"created_at"`

	// ClosedAt is the time that the ticket was last closed.
	ClosedAt custom.Datetime `json:"closed_at" bson:"closed_at"`
}

// Name is the channel name of the ticket for its current state.
func (t *Ticket) Name() string {
	if t.State == StateClosed {
		return ClosedName(t.ID)
	}
	return OpenName(t.ID)
}

// IsOpen reports whether the ticket has not been closed.
func (t *Ticket) IsOpen() bool {
	return t.CloserID == ""
}

// IsClaimed reports whether a staff member currently owns the ticket.
func (t *Ticket) IsClaimed() bool {
	return t.ClaimerID != ""
}

// ButtonLabels returns the remembered button labels for one of the ticket's bot messages.
func (t *Ticket) ButtonLabels(messageID string) ([]string, bool) {
	switch {
	case messageID == "":
		return nil, false
	case messageID == t.InitialMessageID:
		return t.InitialMessageButtons, true
	case messageID == t.ConfirmationMessageID:
		return t.ConfirmationMessageButtons, true
	default:
		return nil, false
	}
}

// OpenName is the channel name of an open ticket.
func OpenName(id int) string {
	return fmt.Sprintf("ticket-%d", id)
}

// ClosedName is the channel name of a closed ticket.
func ClosedName(id int) string {
	return fmt.Sprintf("closed-ticket-%d", id)
}

// Clone returns a deep copy of the ticket.
func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	c := *t
	c.InitialMessageButtons = append([]string(nil), t.InitialMessageButtons...)
	c.ConfirmationMessageButtons = append([]string(nil), t.ConfirmationMessageButtons...)
	return &c
}
