// Package transcript turns the history of a ticket channel into a web page and serves it to holders of a
// per-ticket access token.
package transcript

import "html/template"

// NotAvailable is shown for values that could not be resolved.
const NotAvailable = "N/A"

// Transcript is a render ready copy of a ticket conversation.
type Transcript struct {
	TicketID int
	Messages []Message
	Stats    Stats
}

// Message is a single message of a transcript.
type Message struct {
	DisplayName string
	AvatarURL   string
	RoleColor   string
	Timestamp   string

	// Content is the text with mentions replaced by names. ContentHTML is its rendered form.
	Content     string
	ContentHTML template.HTML

	Embeds  []Embed
	Buttons []Button
}

// Embed is a rendered embed and its accent color.
type Embed struct {
	HTML  template.HTML
	Color string
}

// Button is a button label and the CSS class it is drawn with.
type Button struct {
	Label string
	Class string
}

// Stats summarises a transcript.
type Stats struct {
	OpenedAt       string
	ClosedAt       string
	CreatorID      string
	CreatorName    string
	CloserID       string
	CloserName     string
	MessageCount   int
	EmbedCount     int
	ComponentCount int
	ServerName     string
}
