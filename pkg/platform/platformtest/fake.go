// Package platformtest provides an in-memory platform.Platform for tests.
package platformtest

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/platform"
)

var _ platform.Platform = (*Fake)(nil)

// Fake is an in-memory guild. It is safe for concurrent use.
type Fake struct {
	mut sync.Mutex

	botID    string
	nextID   int
	clock    time.Time
	guilds   map[string]*discordgo.Guild
	channels map[string]*discordgo.Channel
	messages map[string][]*discordgo.Message
	members  map[string]map[string]*discordgo.Member
	roles    map[string][]*discordgo.Role
	dms      map[string][]*discordgo.MessageSend
	blocked  map[string]bool
	failures map[string]error
	holds    map[string]*hold
	updates  map[string]int
}

type hold struct {
	waiting chan struct{}
	release chan struct{}
}

// NewFake creates a fake platform whose bot user has the given ID.
func NewFake(botID string) *Fake {
	return &Fake{
		botID:    botID,
		nextID:   1000,
		clock:    time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		guilds:   make(map[string]*discordgo.Guild),
		channels: make(map[string]*discordgo.Channel),
		messages: make(map[string][]*discordgo.Message),
		members:  make(map[string]map[string]*discordgo.Member),
		roles:    make(map[string][]*discordgo.Role),
		dms:      make(map[string][]*discordgo.MessageSend),
		blocked:  make(map[string]bool),
		failures: make(map[string]error),
		holds:    make(map[string]*hold),
		updates:  make(map[string]int),
	}
}

// AddGuild registers a guild along with its @everyone role.
func (f *Fake) AddGuild(id, name string) {
	f.mut.Lock()
	defer f.mut.Unlock()

	f.guilds[id] = &discordgo.Guild{ID: id, Name: name}
	if _, ok := f.members[id]; !ok {
		f.members[id] = make(map[string]*discordgo.Member)
	}
	f.roles[id] = append(f.roles[id], &discordgo.Role{ID: id, Name: "@everyone"})
}

// AddRole registers a role.
func (f *Fake) AddRole(guildID string, role *discordgo.Role) {
	f.mut.Lock()
	defer f.mut.Unlock()

	f.roles[guildID] = append(f.roles[guildID], role)
}

// AddMember registers a member. The member's GuildID is set to guildID.
func (f *Fake) AddMember(guildID string, m *discordgo.Member) {
	f.mut.Lock()
	defer f.mut.Unlock()

	m.GuildID = guildID
	if _, ok := f.members[guildID]; !ok {
		f.members[guildID] = make(map[string]*discordgo.Member)
	}
	f.members[guildID][m.User.ID] = m
}

// RemoveMember removes a member from a guild.
func (f *Fake) RemoveMember(guildID, userID string) {
	f.mut.Lock()
	defer f.mut.Unlock()

	delete(f.members[guildID], userID)
}

// AddChannel registers a channel such as a category or log channel.
func (f *Fake) AddChannel(ch *discordgo.Channel) {
	f.mut.Lock()
	defer f.mut.Unlock()

	f.channels[ch.ID] = ch
}

// BlockDirectMessages makes direct messages to the user fail with platform.ErrCannotDM.
func (f *Fake) BlockDirectMessages(userID string) {
	f.mut.Lock()
	defer f.mut.Unlock()

	f.blocked[userID] = true
}

// FailNext makes the next call of the named operation return err. Operation names match the method names.
func (f *Fake) FailNext(op string, err error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	f.failures[op] = err
}

// HoldNext makes the next call of the named operation wait until release is called. The returned channel is
// closed once the call is waiting.
func (f *Fake) HoldNext(op string) (waiting <-chan struct{}, release func()) {
	f.mut.Lock()
	defer f.mut.Unlock()

	h := &hold{waiting: make(chan struct{}), release: make(chan struct{})}
	f.holds[op] = h
	var once sync.Once
	return h.waiting, func() { once.Do(func() { close(h.release) }) }
}

// wait blocks while the named operation is held. It must be called without the lock held.
func (f *Fake) wait(op string) {
	f.mut.Lock()
	h, ok := f.holds[op]
	delete(f.holds, op)
	f.mut.Unlock()

	if !ok {
		return
	}
	close(h.waiting)
	<-h.release
}

// Post adds a message written by a member to a channel.
func (f *Fake) Post(channelID, authorID, content string) *discordgo.Message {
	f.mut.Lock()
	defer f.mut.Unlock()

	author := &discordgo.User{ID: authorID, Username: authorID}
	var member *discordgo.Member
	if ch, ok := f.channels[channelID]; ok {
		if m, ok := f.members[ch.GuildID][authorID]; ok {
			author = m.User
			member = m
		}
	}

	return f.appendMessage(channelID, &discordgo.Message{
		Author:  author,
		Member:  member,
		Content: content,
	})
}

// Messages returns the messages of a channel, oldest first.
func (f *Fake) Messages(channelID string) []*discordgo.Message {
	f.mut.Lock()
	defer f.mut.Unlock()

	return append([]*discordgo.Message(nil), f.messages[channelID]...)
}

// DirectMessages returns the direct messages sent to a user.
func (f *Fake) DirectMessages(userID string) []*discordgo.MessageSend {
	f.mut.Lock()
	defer f.mut.Unlock()

	return append([]*discordgo.MessageSend(nil), f.dms[userID]...)
}

// Updates returns how many channel edit requests were made for a channel.
func (f *Fake) Updates(channelID string) int {
	f.mut.Lock()
	defer f.mut.Unlock()

	return f.updates[channelID]
}

// ChannelAccess returns the access model of a channel.
func (f *Fake) ChannelAccess(channelID string) platform.Overwrites {
	f.mut.Lock()
	defer f.mut.Unlock()

	ch, ok := f.channels[channelID]
	if !ok {
		return nil
	}
	return platform.FromDiscord(ch.PermissionOverwrites)
}

// ChannelExists reports whether the channel exists.
func (f *Fake) ChannelExists(channelID string) bool {
	f.mut.Lock()
	defer f.mut.Unlock()

	_, ok := f.channels[channelID]
	return ok
}

func (f *Fake) BotUserID() string {
	return f.botID
}

func (f *Fake) Guild(_ context.Context, guildID string) (*discordgo.Guild, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("Guild"); err != nil {
		return nil, err
	}

	g, ok := f.guilds[guildID]
	if !ok {
		return nil, notFound("guild", guildID)
	}
	cp := *g
	return &cp, nil
}

func (f *Fake) Channel(_ context.Context, channelID string) (*discordgo.Channel, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("Channel"); err != nil {
		return nil, err
	}
	return f.channel(channelID)
}

func (f *Fake) channel(channelID string) (*discordgo.Channel, error) {
	ch, ok := f.channels[channelID]
	if !ok {
		return nil, notFound("channel", channelID)
	}
	cp := *ch
	cp.PermissionOverwrites = platform.Apply(ch.PermissionOverwrites, nil, nil)
	return &cp, nil
}

func (f *Fake) CreateChannel(_ context.Context, guildID string, data discordgo.GuildChannelCreateData) (*discordgo.Channel, error) {
	f.wait("CreateChannel")

	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("CreateChannel"); err != nil {
		return nil, err
	}
	if data.ParentID != "" {
		if _, ok := f.channels[data.ParentID]; !ok {
			return nil, notFound("category", data.ParentID)
		}
	}

	ch := &discordgo.Channel{
		ID:                   f.id(),
		GuildID:              guildID,
		Name:                 data.Name,
		Type:                 data.Type,
		ParentID:             data.ParentID,
		PermissionOverwrites: platform.Apply(data.PermissionOverwrites, nil, nil),
	}
	f.channels[ch.ID] = ch

	cp := *ch
	return &cp, nil
}

func (f *Fake) UpdateChannel(_ context.Context, channelID string, update platform.ChannelUpdate) error {
	f.mut.Lock()
	defer f.mut.Unlock()

	if update.Empty() {
		return nil
	}
	if err := f.failure("UpdateChannel"); err != nil {
		return err
	}

	ch, ok := f.channels[channelID]
	if !ok {
		return notFound("channel", channelID)
	}
	if update.ParentID != "" {
		if _, ok := f.channels[update.ParentID]; !ok {
			return notFound("category", update.ParentID)
		}
	}

	f.updates[channelID]++
	if update.Name != "" {
		ch.Name = update.Name
	}
	if update.ParentID != "" {
		ch.ParentID = update.ParentID
	}
	ch.PermissionOverwrites = platform.Apply(ch.PermissionOverwrites, update.Access, update.Revoke)
	return nil
}

func (f *Fake) DeleteChannel(_ context.Context, channelID string) error {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("DeleteChannel"); err != nil {
		return err
	}
	if _, ok := f.channels[channelID]; !ok {
		return notFound("channel", channelID)
	}
	delete(f.channels, channelID)
	delete(f.messages, channelID)
	return nil
}

func (f *Fake) SendMessage(_ context.Context, channelID string, msg *discordgo.MessageSend) (*discordgo.Message, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("SendMessage"); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, notFound("channel", channelID)
	}

	m := f.appendMessage(channelID, &discordgo.Message{
		Author:     &discordgo.User{ID: f.botID, Username: "husky", Bot: true},
		Content:    msg.Content,
		Embeds:     msg.Embeds,
		Components: msg.Components,
	})
	cp := *m
	return &cp, nil
}

func (f *Fake) EditMessage(_ context.Context, edit *discordgo.MessageEdit) (*discordgo.Message, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("EditMessage"); err != nil {
		return nil, err
	}

	for _, m := range f.messages[edit.Channel] {
		if m.ID != edit.ID {
			continue
		}
		if edit.Content != nil {
			m.Content = *edit.Content
		}
		if edit.Embeds != nil {
			m.Embeds = edit.Embeds
		}
		if edit.Components != nil {
			m.Components = edit.Components
		}
		cp := *m
		return &cp, nil
	}
	return nil, notFound("message", edit.ID)
}

func (f *Fake) Message(_ context.Context, channelID, messageID string) (*discordgo.Message, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("Message"); err != nil {
		return nil, err
	}
	for _, m := range f.messages[channelID] {
		if m.ID == messageID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, notFound("message", messageID)
}

func (f *Fake) History(_ context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	f.wait("History")

	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("History"); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, notFound("channel", channelID)
	}

	msgs := f.messages[channelID]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[:limit]
	}
	return append([]*discordgo.Message(nil), msgs...), nil
}

func (f *Fake) RecentMessages(_ context.Context, channelID string, limit int) ([]*discordgo.Message, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("RecentMessages"); err != nil {
		return nil, err
	}
	if _, ok := f.channels[channelID]; !ok {
		return nil, notFound("channel", channelID)
	}

	msgs := f.messages[channelID]
	out := make([]*discordgo.Message, 0, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		out = append(out, msgs[i])
	}
	return out, nil
}

func (f *Fake) Member(_ context.Context, guildID, userID string) (*discordgo.Member, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("Member"); err != nil {
		return nil, err
	}
	m, ok := f.members[guildID][userID]
	if !ok {
		return nil, notFound("member", userID)
	}
	cp := *m
	return &cp, nil
}

func (f *Fake) Members(_ context.Context, guildID string) ([]*discordgo.Member, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("Members"); err != nil {
		return nil, err
	}

	out := make([]*discordgo.Member, 0, len(f.members[guildID]))
	for _, m := range f.members[guildID] {
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (f *Fake) Roles(_ context.Context, guildID string) ([]*discordgo.Role, error) {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("Roles"); err != nil {
		return nil, err
	}
	return append([]*discordgo.Role(nil), f.roles[guildID]...), nil
}

func (f *Fake) SendDirectMessage(_ context.Context, userID string, msg *discordgo.MessageSend) error {
	f.mut.Lock()
	defer f.mut.Unlock()

	if err := f.failure("SendDirectMessage"); err != nil {
		return err
	}
	if f.blocked[userID] {
		return fmt.Errorf("error sending direct message: %w", platform.ErrCannotDM)
	}
	f.dms[userID] = append(f.dms[userID], msg)
	return nil
}

func (f *Fake) appendMessage(channelID string, m *discordgo.Message) *discordgo.Message {
	f.clock = f.clock.Add(time.Minute)
	m.ID = f.id()
	m.ChannelID = channelID
	m.Timestamp = f.clock
	if ch, ok := f.channels[channelID]; ok {
		m.GuildID = ch.GuildID
	}
	f.messages[channelID] = append(f.messages[channelID], m)
	return m
}

func (f *Fake) id() string {
	f.nextID++
	return strconv.Itoa(f.nextID)
}

// failure must be called with the lock held.
func (f *Fake) failure(op string) error {
	err, ok := f.failures[op]
	if !ok {
		return nil
	}
	delete(f.failures, op)
	return err
}

func notFound(kind, id string) error {
	return fmt.Errorf("unknown %s %s: %w", kind, id, platform.ErrNotFound)
}
