package transcript

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/entities"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/Jacobbrewer1/husky/pkg/platform"
	"github.com/yuin/goldmark"
)

const (
	// DefaultTimeOffset is added to message times before they are formatted.
	DefaultTimeOffset = 4 * time.Hour

	messageTimeLayout = "January 02, 2006, 03:04 PM"
	statsTimeLayout   = "01/02/2006, 15:04:05"

	defaultRoleColor  = "#ffffff"
	defaultEmbedColor = 0x43B581

	unknownMember = "Unknown"
	noticePrefix  = "**Notice:**"
	bulletPrefix  = "•"
)

var (
	userMention = regexp.MustCompile(`<@!?(\d+)>`)
	roleMention = regexp.MustCompile(`<@&(\d+)>`)
)

// Option configures a Generator.
type Option func(g *Generator)

// WithTimeOffset sets the offset added to message times.
func WithTimeOffset(d time.Duration) Option {
	return func(g *Generator) {
		g.offset = d
	}
}

// Generator builds transcripts from channel history.
type Generator struct {
	l        *slog.Logger
	platform platform.Platform
	offset   time.Duration
	md       goldmark.Markdown
}

// NewGenerator creates a new Generator.
func NewGenerator(l *slog.Logger, p platform.Platform, opts ...Option) *Generator {
	g := &Generator{
		l:        l.With(slog.String("component", "transcript")),
		platform: p,
		offset:   DefaultTimeOffset,
		md:       newMarkdown(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds the transcript of a ticket from the first messages of its channel. Only a failure to read
// the history is returned; anything else that cannot be resolved degrades to a placeholder.
func (g *Generator) Generate(ctx context.Context, ticket *entities.Ticket) (*Transcript, error) {
	if ticket == nil {
		return nil, errors.New("ticket is nil")
	}

	history, err := g.platform.History(ctx, ticket.ChannelID, platform.HistoryLimit)
	if err != nil {
		return nil, fmt.Errorf("error reading channel history: %w", err)
	}

	r := g.newResolver(ctx, ticket.GuildID)

	t := &Transcript{
		TicketID: ticket.ID,
		Stats: Stats{
			OpenedAt:   NotAvailable,
			ClosedAt:   NotAvailable,
			CreatorID:  ticket.CreatorID,
			CloserID:   ticket.CloserID,
			ServerName: r.guildName(),
		},
	}

	var last time.Time
	for _, msg := range history {
		t.Stats.MessageCount++
		if t.Stats.OpenedAt == NotAvailable {
			t.Stats.OpenedAt = g.format(msg.Timestamp, statsTimeLayout)
		}
		if msg.Type == discordgo.MessageTypeChannelPinnedMessage {
			continue
		}
		last = msg.Timestamp

		m := g.message(r, ticket, msg)
		t.Stats.EmbedCount += len(msg.Embeds)
		t.Stats.ComponentCount += componentCount(ticket, msg)
		t.Messages = append(t.Messages, m)
	}

	switch {
	case !ticket.ClosedAt.IsZero():
		t.Stats.ClosedAt = g.format(ticket.ClosedAt.Time(), statsTimeLayout)
	case !ticket.IsOpen() && !last.IsZero():
		t.Stats.ClosedAt = g.format(last, statsTimeLayout)
	}

	t.Stats.CreatorName = r.memberName(ticket.CreatorID)
	t.Stats.CloserName = r.memberName(ticket.CloserID)

	return t, nil
}

func (g *Generator) message(r *resolver, ticket *entities.Ticket, msg *discordgo.Message) Message {
	m := Message{
		RoleColor: defaultRoleColor,
		Timestamp: g.format(msg.Timestamp, messageTimeLayout),
	}

	var member *discordgo.Member
	if msg.Author != nil {
		member = r.member(msg.Author.ID)
		m.DisplayName = msg.Author.Username
		m.AvatarURL = msg.Author.AvatarURL("")
	}
	if member != nil {
		m.DisplayName = platform.DisplayName(member)
		m.RoleColor = r.roleColor(member)
	}

	if strings.TrimSpace(msg.Content) != "" {
		m.Content = r.replaceMentions(msg.Content)
		html, err := renderMarkdown(g.md, m.Content)
		if err != nil {
			g.l.Warn("Failed to render message content", slog.String(logging.KeyError, err.Error()))
			html = template.HTML(template.HTMLEscapeString(m.Content))
		}
		m.ContentHTML = html
	}

	for _, e := range msg.Embeds {
		if e == nil {
			continue
		}
		m.Embeds = append(m.Embeds, g.embed(e))
	}

	for _, label := range buttonLabels(ticket, msg) {
		m.Buttons = append(m.Buttons, Button{Label: label, Class: buttonClass(label)})
	}
	return m
}

func (g *Generator) format(t time.Time, layout string) string {
	return t.UTC().Add(g.offset).Format(layout)
}

// embed renders the title, then general lines as a list, then notice and bullet lines under a notice heading.
func (g *Generator) embed(e *discordgo.MessageEmbed) Embed {
	color := e.Color
	if color == 0 {
		color = defaultEmbedColor
	}

	var general, notices []string
	if e.Description != "" {
		for _, line := range strings.Split(e.Description, "\n") {
			switch {
			case strings.HasPrefix(line, noticePrefix):
				if s := strings.TrimSpace(strings.TrimPrefix(line, noticePrefix)); s != "" {
					notices = append(notices, s)
				}
			case strings.HasPrefix(line, bulletPrefix):
				if s := strings.TrimSpace(strings.TrimPrefix(line, bulletPrefix)); s != "" {
					notices = append(notices, s)
				}
			default:
				general = append(general, line)
			}
		}
	}

	var sb strings.Builder
	sb.WriteString("<strong>")
	sb.WriteString(template.HTMLEscapeString(e.Title))
	sb.WriteString("</strong>")

	if len(general) > 0 {
		sb.WriteString("<ul>")
		for _, line := range general {
			sb.WriteString("<li>")
			sb.WriteString(string(g.inline(line)))
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul>")
	}

	if len(notices) > 0 {
		sb.WriteString("<strong>Notice:</strong><ul>")
		for _, line := range notices {
			sb.WriteString("<li>")
			sb.WriteString(string(g.inline(line)))
			sb.WriteString("</li>")
		}
		sb.WriteString("</ul>")
	}

	return Embed{
		HTML:  template.HTML(sb.String()), // every piece is escaped or rendered without raw HTML
		Color: fmt.Sprintf("#%06x", color),
	}
}

func (g *Generator) inline(line string) template.HTML {
	if strings.TrimSpace(line) == "" {
		return ""
	}
	out, err := renderInline(g.md, line)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(line))
	}
	return out
}

// buttonLabels prefers the labels remembered for the ticket's own messages over the live components.
func buttonLabels(ticket *entities.Ticket, msg *discordgo.Message) []string {
	if labels, ok := ticket.ButtonLabels(msg.ID); ok && len(labels) > 0 {
		return labels
	}

	var labels []string
	for _, b := range buttons(msg.Components) {
		label := b.Label
		if label == "" {
			label = "Unnamed"
		}
		if emoji := emojiString(b.Emoji); emoji != "" {
			label = emoji + " " + label
		}
		labels = append(labels, label)
	}
	return labels
}

func componentCount(ticket *entities.Ticket, msg *discordgo.Message) int {
	if labels, ok := ticket.ButtonLabels(msg.ID); ok && len(labels) > 0 {
		return len(labels)
	}

	n := 0
	for _, c := range msg.Components {
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			n += len(row.Components)
		case discordgo.ActionsRow:
			n += len(row.Components)
		}
	}
	return n
}

func buttons(components []discordgo.MessageComponent) []discordgo.Button {
	var out []discordgo.Button
	for _, c := range components {
		var children []discordgo.MessageComponent
		switch row := c.(type) {
		case *discordgo.ActionsRow:
			children = row.Components
		case discordgo.ActionsRow:
			children = row.Components
		}

		for _, child := range children {
			switch b := child.(type) {
			case *discordgo.Button:
				out = append(out, *b)
			case discordgo.Button:
				out = append(out, b)
			}
		}
	}
	return out
}

func emojiString(e discordgo.ComponentEmoji) string {
	switch {
	case e.ID != "" && e.Animated:
		return fmt.Sprintf("<a:%s:%s>", e.Name, e.ID)
	case e.ID != "":
		return fmt.Sprintf("<:%s:%s>", e.Name, e.ID)
	default:
		return e.Name
	}
}

func buttonClass(label string) string {
	switch {
	case strings.Contains(label, "Claim Ticket"):
		return "claim-ticket"
	case strings.Contains(label, "Close Ticket"):
		return "close-ticket"
	case label == "Proceed":
		return "close"
	case label == "Abort":
		return "cancel"
	default:
		return ""
	}
}

// resolver looks up guild members and roles once per transcript.
type resolver struct {
	ctx      context.Context
	l        *slog.Logger
	platform platform.Platform
	guildID  string
	guild    *discordgo.Guild
	roles    map[string]*discordgo.Role
	members  map[string]*discordgo.Member
}

func (g *Generator) newResolver(ctx context.Context, guildID string) *resolver {
	r := &resolver{
		ctx:      ctx,
		l:        g.l,
		platform: g.platform,
		guildID:  guildID,
		roles:    make(map[string]*discordgo.Role),
		members:  make(map[string]*discordgo.Member),
	}

	guild, err := g.platform.Guild(ctx, guildID)
	if err != nil {
		g.l.Debug("Failed to resolve guild", slog.String(logging.KeyGuild, guildID), slog.String(logging.KeyError, err.Error()))
	} else {
		r.guild = guild
	}

	roles, err := g.platform.Roles(ctx, guildID)
	if err != nil {
		g.l.Debug("Failed to resolve roles", slog.String(logging.KeyGuild, guildID), slog.String(logging.KeyError, err.Error()))
	}
	for _, role := range roles {
		r.roles[role.ID] = role
	}
	return r
}

func (r *resolver) guildName() string {
	if r.guild == nil || r.guild.Name == "" {
		return NotAvailable
	}
	return r.guild.Name
}

// member returns nil when the user is not a member of the guild.
func (r *resolver) member(userID string) *discordgo.Member {
	if m, ok := r.members[userID]; ok {
		return m
	}

	m, err := r.platform.Member(r.ctx, r.guildID, userID)
	if err != nil {
		if !errors.Is(err, platform.ErrNotFound) {
			r.l.Debug("Failed to resolve member", slog.String(logging.KeyUser, userID), slog.String(logging.KeyError, err.Error()))
		}
		m = nil
	}
	r.members[userID] = m
	return m
}

func (r *resolver) memberName(userID string) string {
	if userID == "" {
		return NotAvailable
	}
	if m := r.member(userID); m != nil {
		return platform.DisplayName(m)
	}
	return unknownMember
}

func (r *resolver) roleColor(m *discordgo.Member) string {
	held := make([]*discordgo.Role, 0, len(m.Roles))
	for _, id := range m.Roles {
		if role, ok := r.roles[id]; ok {
			held = append(held, role)
		}
	}
	sort.SliceStable(held, func(i, j int) bool {
		return held[i].Position > held[j].Position
	})

	for _, role := range held {
		if role.Color != 0 {
			return fmt.Sprintf("#%06x", role.Color)
		}
	}
	return defaultRoleColor
}

func (r *resolver) replaceMentions(content string) string {
	content = userMention.ReplaceAllStringFunc(content, func(match string) string {
		id := userMention.FindStringSubmatch(match)[1]
		if m := r.member(id); m != nil {
			return "@" + platform.DisplayName(m)
		}
		return fmt.Sprintf("UnknownUser(%s)", id)
	})

	return roleMention.ReplaceAllStringFunc(content, func(match string) string {
		id := roleMention.FindStringSubmatch(match)[1]
		if role, ok := r.roles[id]; ok {
			return "@" + role.Name
		}
		return fmt.Sprintf("UnknownRole(%s)", id)
	})
}
