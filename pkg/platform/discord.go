package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/Jacobbrewer1/discordgo"
)

const membersPageSize = 1000

// Discord implements Platform on top of a discordgo session.
type Discord struct {
	session *discordgo.Session
}

// NewDiscord creates a new Discord platform.
func NewDiscord(session *discordgo.Session) *Discord {
	return &Discord{
		session: session,
	}
}

func (d *Discord) BotUserID() string {
	if d.session.State == nil || d.session.State.User == nil {
		return ""
	}
	return d.session.State.User.ID
}

func (d *Discord) Guild(ctx context.Context, guildID string) (g *discordgo.Guild, err error) {
	done := track("guild")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if d.session.State != nil {
		if g, err := d.session.State.Guild(guildID); err == nil {
			return g, nil
		}
	}

	g, err = d.session.Guild(guildID)
	if err != nil {
		return nil, wrap("error getting guild", err)
	}
	return g, nil
}

func (d *Discord) Channel(ctx context.Context, channelID string) (c *discordgo.Channel, err error) {
	done := track("channel")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err = d.session.Channel(channelID)
	if err != nil {
		return nil, wrap("error getting channel", err)
	}
	return c, nil
}

func (d *Discord) CreateChannel(ctx context.Context, guildID string, data discordgo.GuildChannelCreateData) (c *discordgo.Channel, err error) {
	done := track("create_channel")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c, err = d.session.GuildChannelCreateComplex(guildID, data)
	if err != nil {
		return nil, wrap("error creating channel", err)
	}
	return c, nil
}

func (d *Discord) UpdateChannel(ctx context.Context, channelID string, update ChannelUpdate) (err error) {
	if update.Empty() {
		return nil
	}

	current, err := d.Channel(ctx, channelID)
	if err != nil {
		return err
	}

	edit, changed := buildChannelEdit(current, update)
	if !changed {
		return nil
	}

	done := track("update_channel")
	defer func() { done(err) }()

	if _, err := d.session.ChannelEditComplex(channelID, edit); err != nil {
		return wrap("error editing channel", err)
	}
	return nil
}

// buildChannelEdit merges update into the current channel. Position is carried over as the API treats a
// missing position as zero.
func buildChannelEdit(current *discordgo.Channel, update ChannelUpdate) (*discordgo.ChannelEdit, bool) {
	pos := current.Position
	edit := &discordgo.ChannelEdit{
		Name:     current.Name,
		ParentID: current.ParentID,
		Position: &pos,
	}

	changed := false
	if update.Name != "" && update.Name != current.Name {
		edit.Name = update.Name
		changed = true
	}
	if update.ParentID != "" && update.ParentID != current.ParentID {
		edit.ParentID = update.ParentID
		changed = true
	}

	overwrites := Apply(current.PermissionOverwrites, update.Access, update.Revoke)
	if !sameOverwrites(current.PermissionOverwrites, overwrites) {
		changed = true
	}
	edit.PermissionOverwrites = overwrites

	return edit, changed
}

func sameOverwrites(a, b []*discordgo.PermissionOverwrite) bool {
	key := func(list []*discordgo.PermissionOverwrite) []discordgo.PermissionOverwrite {
		out := make([]discordgo.PermissionOverwrite, 0, len(list))
		for _, po := range list {
			if po != nil {
				out = append(out, *po)
			}
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Type != out[j].Type {
				return out[i].Type < out[j].Type
			}
			return out[i].ID < out[j].ID
		})
		return out
	}

	ka, kb := key(a), key(b)
	if len(ka) != len(kb) {
		return false
	}
	for i := range ka {
		if ka[i] != kb[i] {
			return false
		}
	}
	return true
}

func (d *Discord) DeleteChannel(ctx context.Context, channelID string) (err error) {
	done := track("delete_channel")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	if _, err := d.session.ChannelDelete(channelID); err != nil {
		return wrap("error deleting channel", err)
	}
	return nil
}

func (d *Discord) SendMessage(ctx context.Context, channelID string, msg *discordgo.MessageSend) (m *discordgo.Message, err error) {
	done := track("send_message")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err = d.session.ChannelMessageSendComplex(channelID, msg)
	if err != nil {
		return nil, wrap("error sending message", err)
	}
	return m, nil
}

func (d *Discord) EditMessage(ctx context.Context, edit *discordgo.MessageEdit) (m *discordgo.Message, err error) {
	done := track("edit_message")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err = d.session.ChannelMessageEditComplex(edit)
	if err != nil {
		return nil, wrap("error editing message", err)
	}
	return m, nil
}

func (d *Discord) Message(ctx context.Context, channelID, messageID string) (m *discordgo.Message, err error) {
	done := track("message")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err = d.session.ChannelMessage(channelID, messageID)
	if err != nil {
		return nil, wrap("error getting message", err)
	}
	return m, nil
}

func (d *Discord) History(ctx context.Context, channelID string, limit int) (msgs []*discordgo.Message, err error) {
	done := track("history")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)

	// Fetching after ID 0 returns the first messages of the channel.
	msgs, err = d.session.ChannelMessages(channelID, limit, "", "0", "")
	if err != nil {
		return nil, wrap("error getting channel history", err)
	}

	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].Timestamp.Before(msgs[j].Timestamp)
	})
	return msgs, nil
}

func (d *Discord) RecentMessages(ctx context.Context, channelID string, limit int) (msgs []*discordgo.Message, err error) {
	done := track("recent_messages")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	msgs, err = d.session.ChannelMessages(channelID, clampLimit(limit), "", "", "")
	if err != nil {
		return nil, wrap("error getting recent messages", err)
	}
	return msgs, nil
}

func (d *Discord) Member(ctx context.Context, guildID, userID string) (m *discordgo.Member, err error) {
	done := track("member")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err = d.session.GuildMember(guildID, userID)
	if err != nil {
		return nil, wrap("error getting member", err)
	}
	return m, nil
}

func (d *Discord) Members(ctx context.Context, guildID string) (all []*discordgo.Member, err error) {
	done := track("members")
	defer func() { done(err) }()

	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page, err := d.session.GuildMembers(guildID, after, membersPageSize)
		if err != nil {
			return nil, wrap("error listing members", err)
		}
		all = append(all, page...)

		if len(page) < membersPageSize {
			return all, nil
		}
		last := page[len(page)-1]
		if last.User == nil {
			return all, nil
		}
		after = last.User.ID
	}
}

func (d *Discord) Roles(ctx context.Context, guildID string) (roles []*discordgo.Role, err error) {
	done := track("roles")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	roles, err = d.session.GuildRoles(guildID)
	if err != nil {
		return nil, wrap("error listing roles", err)
	}
	return roles, nil
}

func (d *Discord) SendDirectMessage(ctx context.Context, userID string, msg *discordgo.MessageSend) (err error) {
	done := track("direct_message")
	defer func() { done(err) }()

	if err := ctx.Err(); err != nil {
		return err
	}

	ch, err := d.session.UserChannelCreate(userID)
	if err != nil {
		return wrap("error opening direct message channel", err)
	}

	if _, err := d.session.ChannelMessageSendComplex(ch.ID, msg); err != nil {
		return wrap("error sending direct message", err)
	}
	return nil
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > HistoryLimit {
		return HistoryLimit
	}
	return limit
}

// wrap maps Discord REST errors onto the platform sentinel errors.
func wrap(msg string, err error) error {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) {
		return fmt.Errorf("%s: %w", msg, err)
	}

	if restErr.Message != nil {
		switch restErr.Message.Code {
		case discordgo.ErrCodeUnknownChannel,
			discordgo.ErrCodeUnknownMember,
			discordgo.ErrCodeUnknownRole,
			discordgo.ErrCodeUnknownMessage,
			discordgo.ErrCodeUnknownUser,
			discordgo.ErrCodeUnknownGuild:
			return fmt.Errorf("%s: %w: %w", msg, ErrNotFound, err)
		case discordgo.ErrCodeCannotSendMessagesToThisUser:
			return fmt.Errorf("%s: %w: %w", msg, ErrCannotDM, err)
		}
	}

	if restErr.Response != nil && restErr.Response.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s: %w: %w", msg, ErrNotFound, err)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
