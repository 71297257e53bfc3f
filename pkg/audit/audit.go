// Package audit posts structured entries about ticket activity to a guild's log channel.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/Jacobbrewer1/husky/pkg/platform"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Color is the embed color of audit entries.
const Color = 0xE74C3C

const emptyValue = "N/A"

var (
	entriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_entries_total",
			Help: "Total number of audit entries posted",
		},
		[]string{"title"},
	)

	failuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_failures_total",
			Help: "Total number of audit entries that could not be posted",
		},
		[]string{"title"},
	)
)

// Field is a single named value of an entry.
type Field struct {
	Name  string
	Value string
}

// Entry is an audit entry.
type Entry struct {
	// Title is the title of the entry, e.g. "Ticket Created".
	Title string

	// Fields are shown in order.
	Fields []Field

	// ChannelID is the log channel. Entries without a channel are dropped.
	ChannelID string

	// URL adds a transcript link when set.
	URL string
}

// Embed renders the entry.
func (e Entry) Embed(now time.Time) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title:     e.Title,
		Color:     Color,
		Timestamp: now.UTC().Format(time.RFC3339),
	}

	for _, f := range e.Fields {
		value := f.Value
		if value == "" {
			value = emptyValue
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  f.Name,
			Value: value,
		})
	}

	if e.URL != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Transcript",
			Value: fmt.Sprintf("[View Transcript](%s)", e.URL),
		})
	}
	return embed
}

// Sink posts audit entries in the background.
type Sink struct {
	l        *slog.Logger
	platform platform.Platform
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewSink creates a new Sink.
func NewSink(l *slog.Logger, p platform.Platform) *Sink {
	return &Sink{
		l:        l.With(slog.String("component", "audit")),
		platform: p,
		now:      time.Now,
	}
}

// Log posts the entry without blocking. Failures are logged and counted, never returned.
func (s *Sink) Log(ctx context.Context, e Entry) {
	if e.ChannelID == "" {
		s.l.Debug("No log channel configured, dropping audit entry", slog.String("title", e.Title))
		return
	}

	msg := &discordgo.MessageSend{
		Embeds: []*discordgo.MessageEmbed{e.Embed(s.now())},
	}

	// The entry outlives the interaction that produced it.
	ctx = context.WithoutCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if _, err := s.platform.SendMessage(ctx, e.ChannelID, msg); err != nil {
			failuresTotal.WithLabelValues(e.Title).Inc()
			s.l.Error("Failed to post audit entry",
				slog.String("title", e.Title),
				slog.String(logging.KeyChannel, e.ChannelID),
				slog.String(logging.KeyError, err.Error()),
			)
			return
		}
		entriesTotal.WithLabelValues(e.Title).Inc()
	}()
}

// Wait blocks until every entry in flight has been posted or has failed.
func (s *Sink) Wait() {
	s.wg.Wait()
}
