//go:build wireinject
// +build wireinject

package main

import (
	"context"

	"github.com/Jacobbrewer1/husky/pkg/audit"
	"github.com/Jacobbrewer1/husky/pkg/dataaccess"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/Jacobbrewer1/husky/pkg/platform"
	"github.com/Jacobbrewer1/husky/pkg/tickets"
	"github.com/Jacobbrewer1/husky/pkg/transcript"
	"github.com/google/wire"
	"github.com/gorilla/mux"
)

func InitializeApp(ctx context.Context, path ConfigPath) (*App, error) {
	wire.Build(
		wire.Value(logging.Name(AppName)),
		logging.NewConfig,
		logging.CommonLogger,
		LoadConfig,
		mux.NewRouter,
		NewSession,
		platform.NewDiscord,
		wire.Bind(new(platform.Platform), new(*platform.Discord)),
		NewStore,
		wire.Bind(new(tickets.Store), new(dataaccess.Store)),
		audit.NewSink,
		NewGenerator,
		NewPublisher,
		NewRateLimiter,
		transcript.NewHandler,
		NewAdmins,
		NewManager,
		NewApp,
	)
	return new(App), nil
}
