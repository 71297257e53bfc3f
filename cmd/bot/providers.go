package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/Jacobbrewer1/husky/pkg/audit"
	"github.com/Jacobbrewer1/husky/pkg/dataaccess"
	"github.com/Jacobbrewer1/husky/pkg/platform"
	"github.com/Jacobbrewer1/husky/pkg/tickets"
	"github.com/Jacobbrewer1/husky/pkg/transcript"
	"golang.org/x/time/rate"
)

const (
	// transcriptRequestInterval is the average time between transcript page requests of one client.
	transcriptRequestInterval = 100 * time.Millisecond

	// transcriptRequestBurst is the number of transcript page requests served back to back.
	transcriptRequestBurst = 20
)

// NewStore opens the configured store.
func NewStore(ctx context.Context, l *slog.Logger, cfg *Config) (dataaccess.Store, error) {
	return dataaccess.Open(ctx, l, cfg.StoreOptions())
}

// NewGenerator creates the transcript generator with the configured time offset.
func NewGenerator(l *slog.Logger, p platform.Platform, cfg *Config) *transcript.Generator {
	return transcript.NewGenerator(l, p, transcript.WithTimeOffset(cfg.TranscriptTimeOffset))
}

// NewPublisher creates the transcript publisher for the public URL.
func NewPublisher(cfg *Config) *transcript.Publisher {
	return transcript.NewPublisher(cfg.PublicUrl)
}

// NewRateLimiter limits the transcript page requests of each client.
func NewRateLimiter() *transcript.Limiter {
	return transcript.NewLimiter(rate.Every(transcriptRequestInterval), transcriptRequestBurst)
}

// NewAdmins are the users allowed to manage the support panel.
func NewAdmins(cfg *Config) tickets.Admins {
	return cfg.AdminUserIds
}

// NewManager creates the ticket manager.
func NewManager(
	l *slog.Logger,
	store tickets.Store,
	p platform.Platform,
	sink *audit.Sink,
	gen *transcript.Generator,
	pub *transcript.Publisher,
	admins tickets.Admins,
) *tickets.Manager {
	return tickets.NewManager(l, store, p, sink, gen, pub, admins)
}
