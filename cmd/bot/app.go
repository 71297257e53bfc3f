package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/audit"
	"github.com/Jacobbrewer1/husky/pkg/dataaccess"
	"github.com/Jacobbrewer1/husky/pkg/request"
	"github.com/Jacobbrewer1/husky/pkg/tickets"
	"github.com/Jacobbrewer1/husky/pkg/transcript"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

const shutdownTimeout = 10 * time.Second

// IApp is the interface for the application.
type IApp interface {
	// Log returns the logger.
	Log() *slog.Logger

	// Tickets returns the ticket manager.
	Tickets() *tickets.Manager

	// Respond sends the initial response to an interaction.
	Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error

	// Followup sends a followup message to an interaction.
	Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) error
}

type App struct {
	// is the logger.
	*slog.Logger

	// cfg is the configuration of the bot.
	cfg *Config

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// store holds tickets and panels.
	store dataaccess.Store

	// manager runs the ticket operations.
	manager *tickets.Manager

	// sink posts audit entries.
	sink *audit.Sink

	// transcripts serves published transcripts.
	transcripts *transcript.Handler

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any
}

// NewApp creates a new instance of App.
func NewApp(
	l *slog.Logger,
	cfg *Config,
	r *mux.Router,
	s *discordgo.Session,
	store dataaccess.Store,
	manager *tickets.Manager,
	sink *audit.Sink,
	transcripts *transcript.Handler,
) *App {
	a := &App{
		Logger:      l,
		cfg:         cfg,
		r:           r,
		s:           s,
		store:       store,
		manager:     manager,
		sink:        sink,
		transcripts: transcripts,

		// Buffered so the gateway is never blocked by the listener.
		eventNotifier: make(chan any, 100),
	}
	s.SetEventNotifier(a.eventNotifier)
	return a
}

// NewSession creates the discord session of the bot.
func NewSession(cfg *Config) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)
	return dg, nil
}

// Run starts the bot and the HTTP server and blocks until ctx is done.
func (a *App) Run(ctx context.Context) error {
	// Default the number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.Info(fmt.Sprintf("Logged in as %s", r.User.Username))
	})
	a.RegisterDiscordHandlers(ctx)

	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}
	a.Info("Bot is now running.")

	a.setupRoutes()
	errs := make(chan error, 1)
	go func() {
		a.Info("Starting HTTP server", slog.String("addr", a.svr.Addr))
		if err := a.svr.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("error running HTTP server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.Info("Received shutdown signal")
	case runErr = <-errs:
	}

	if err := a.ShutdownHook(); err != nil {
		return errors.Join(runErr, err)
	}
	return runErr
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	if a.svr != nil {
		if err := a.svr.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("error shutting down HTTP server: %w", err))
		}
	}

	// Close the connection to Discord once pending audit entries are out.
	a.sink.Wait()
	if err := a.s.Close(); err != nil {
		errs = append(errs, fmt.Errorf("error closing connection to Discord: %w", err))
	}

	if err := a.store.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("error closing store: %w", err))
	}
	return errors.Join(errs...)
}

func (a *App) setupRoutes() {
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a.Logger)).Methods(http.MethodGet)

	a.registerTranscripts()

	a.r.NotFoundHandler = request.NotFoundHandler(a.Logger)
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.Logger)

	a.svr = &http.Server{
		Addr:              ":" + a.cfg.HttpPort,
		Handler:           a.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// registerTranscripts serves transcripts behind the HTTP middleware. The handler applies its own rate limit.
func (a *App) registerTranscripts() {
	a.transcripts.Register(a.r, func(next http.Handler) http.Handler {
		return middlewareHttp(next.ServeHTTP, a.Logger)
	})
}

func (a *App) RegisterDiscordHandlers(ctx context.Context) {
	// Bot joined guild.
	a.s.AddHandler(a.guildJoinedHandler())

	// Bot left guild.
	a.s.AddHandler(a.guildLeaveHandler())

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(ctx, a,
		// Slash commands
		map[string]interactionProcessor{
			SupportCmdName: setupPanel,
			EditCmdName:    editPanel,
			DeleteCmdName:  deleteTicket,
			ReopenCmdName:  reopenTicket,
			UnclaimCmdName: unclaimTicket,
			ClaimCmdName:   claimTicket,
			CloseCmdName:   closeTicketCmd,
			AddCmdName:     addParticipant,
			RemoveCmdName:  removeParticipant,
		},
		// Buttons
		map[string]interactionProcessor{
			tickets.SupportButtonID:      openTicket,
			tickets.ClaimButtonID:        claimTicket,
			tickets.CloseButtonID:        closeTicketButton,
			tickets.ConfirmCloseButtonID: confirmClose,
			tickets.AbortCloseButtonID:   abortClose,
		}))
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) Log() *slog.Logger {
	return a.Logger
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Tickets() *tickets.Manager {
	return a.manager
}

func (a *App) Respond(i *discordgo.Interaction, resp *discordgo.InteractionResponse) error {
	if err := a.s.InteractionRespond(i, resp); err != nil {
		return fmt.Errorf("error responding to interaction: %w", err)
	}
	return nil
}

func (a *App) Followup(i *discordgo.Interaction, params *discordgo.WebhookParams) error {
	if _, err := a.s.FollowupMessageCreate(i, true, params); err != nil {
		return fmt.Errorf("error sending followup: %w", err)
	}
	return nil
}
