// Package platform wraps the chat platform calls the bot depends on behind an interface so the ticket
// lifecycle can run against Discord or an in-memory fake.
package platform

import (
	"context"
	"errors"

	"github.com/Jacobbrewer1/discordgo"
)

var (
	// ErrNotFound is returned when a channel, member, role or message does not exist.
	ErrNotFound = errors.New("platform: not found")

	// ErrCannotDM is returned when a user does not accept direct messages from the bot.
	ErrCannotDM = errors.New("platform: cannot send direct messages to this user")
)

// HistoryLimit is the maximum number of messages History returns.
const HistoryLimit = 100

// ChannelUpdate is a batch of changes applied to a channel in one request.
type ChannelUpdate struct {
	// Name renames the channel when set.
	Name string

	// ParentID moves the channel to another category when set.
	ParentID string

	// Access sets the access of the given subjects.
	Access Overwrites

	// Revoke removes the overwrites of the given subjects.
	Revoke []Subject
}

// Empty reports whether the update changes nothing.
func (u ChannelUpdate) Empty() bool {
	return u.Name == "" && u.ParentID == "" && len(u.Access) == 0 && len(u.Revoke) == 0
}

// Platform is the set of chat platform operations used by the bot.
type Platform interface {
	// BotUserID is the user ID of the bot itself.
	BotUserID() string

	// Guild gets a guild.
	Guild(ctx context.Context, guildID string) (*discordgo.Guild, error)

	// Channel gets a channel including its permission overwrites.
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)

	// CreateChannel creates a channel in a guild.
	CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error)

	// UpdateChannel applies an update in a single request. Empty or no-op updates make no request.
	UpdateChannel(ctx context.Context, channelID string, update ChannelUpdate) error

	// DeleteChannel deletes a channel.
	DeleteChannel(ctx context.Context, channelID string) error

	// SendMessage sends a message to a channel.
	SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error)

	// EditMessage edits a message.
	EditMessage(ctx context.Context, edit *discordgo.MessageEdit) (*discordgo.Message, error)

	// Message gets a single message.
	Message(ctx context.Context, channelID, messageID string) (*discordgo.Message, error)

	// History returns up to limit of the first messages of a channel, oldest first.
	History(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)

	// RecentMessages returns up to limit of the latest messages of a channel, newest first.
	RecentMessages(ctx context.Context, channelID string, limit int) ([]*discordgo.Message, error)

	// Member gets a guild member.
	Member(ctx context.Context, guildID, userID string) (*discordgo.Member, error)

	// Members lists every member of a guild.
	Members(ctx context.Context, guildID string) ([]*discordgo.Member, error)

	// Roles lists the roles of a guild.
	Roles(ctx context.Context, guildID string) ([]*discordgo.Role, error)

	// SendDirectMessage sends a message to a user's direct message channel.
	SendDirectMessage(ctx context.Context, userID string, msg *discordgo.MessageSend) error
}

// DisplayName is the name a member is shown with in a guild.
func DisplayName(m *discordgo.Member) string {
	if m == nil {
		return ""
	}
	if m.Nick != "" {
		return m.Nick
	}
	if m.User != nil {
		return m.User.Username
	}
	return ""
}

// IsAdministrator reports whether any of the member's roles grants administrator.
func IsAdministrator(m *discordgo.Member, roles []*discordgo.Role) bool {
	if m == nil {
		return false
	}
	if m.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}

	held := make(map[string]bool, len(m.Roles))
	for _, r := range m.Roles {
		held[r] = true
	}
	for _, r := range roles {
		if held[r.ID] && r.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

// HasRole reports whether the member holds the role.
func HasRole(m *discordgo.Member, roleID string) bool {
	if m == nil || roleID == "" {
		return false
	}
	for _, r := range m.Roles {
		if r == roleID {
			return true
		}
	}
	return false
}
