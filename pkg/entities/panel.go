package entities

// DefaultPanelColor is the embed color used when no color is given.
const DefaultPanelColor = 0x00FFFF

// DefaultButtonLabel is the label of the create ticket button.
const DefaultButtonLabel = "Create Support Ticket"

// Panel is the support panel configuration of a guild.
type Panel struct {
	// GuildID is the ID of the guild the panel belongs to.
	GuildID string `json:"guild_id" bson:"guild_id"`

	// ChannelID is the ID of the channel the panel is posted in.
	ChannelID string `json:"panel_channel_id" bson:"panel_channel_id"`

	// MessageID is the ID of the panel message.
	MessageID string `json:"panel_message_id,omitempty" bson:"panel_message_id,omitempty"`

	// StaffRoleID is the ID of the role that handles tickets.
	StaffRoleID string `json:"staff_role_id" bson:"staff_role_id"`

	// TicketCategoryID is the ID of the category new tickets are created in.
	TicketCategoryID string `json:"ticket_category_id,omitempty" bson:"ticket_category_id,omitempty"`

	// ClosedCategoryID is the ID of the category closed tickets are moved to.
	ClosedCategoryID string `json:"closed_tickets_category_id,omitempty" bson:"closed_tickets_category_id,omitempty"`

	// LogChannelID is the ID of the audit log channel.
	LogChannelID string `json:"ticket_log_channel_id,omitempty" bson:"ticket_log_channel_id,omitempty"`

	// Title is the embed title.
	Title string `json:"embed_title" bson:"embed_title"`

	// Description is the embed description.
	Description string `json:"embed_description" bson:"embed_description"`

	// Color is the embed color.
	Color int `json:"embed_color" bson:"embed_color"`

	// ButtonLabel is the label of the create ticket button.
	ButtonLabel string `json:"button_label" bson:"button_label"`

	// ImageURL is an optional image shown on the panel and in new tickets.
	ImageURL string `json:"image_url,omitempty" bson:"image_url,omitempty"`
}

// Clone returns a copy of the panel.
func (p *Panel) Clone() *Panel {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}
