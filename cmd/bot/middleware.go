package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/Jacobbrewer1/husky/pkg/request"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
)

// interactionTimeout bounds a single command or button press. Interaction tokens expire after 15 minutes.
const interactionTimeout = 5 * time.Minute

// interactionProcessor handles a slash command or button press and returns the ephemeral reply.
type interactionProcessor func(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error)

type Controller func(w http.ResponseWriter, r *http.Request)

func middlewareHttp(handler Controller, l *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().UTC()
		cw := request.NewClientWriter(w)

		var path string
		route := mux.CurrentRoute(r)
		if route != nil { // The route may be nil if the request is not routed.
			var err error
			path, err = route.GetPathTemplate()
			if err != nil {
				// An error here is only returned if the route does not define a path.
				l.Error("Error getting path template", slog.String(logging.KeyError, err.Error()))
				path = r.URL.Path
			}
		} else {
			path = r.URL.Path
		}

		defer func() {
			// The status code is only known once the handler has returned.
			HttpTotalRequests.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Inc()
			HttpRequestDuration.WithLabelValues(path, r.Method, fmt.Sprintf("%d", cw.StatusCode())).Observe(time.Since(now).Seconds())
		}()

		// Recover from any panics that occur in the handler.
		defer func() {
			if rec := recover(); rec != nil {
				l.Error("Panic in handler",
					slog.String(logging.KeyError, fmt.Sprint(rec)),
					slog.String("stack", string(debug.Stack())),
				)
				cw.WriteHeader(http.StatusInternalServerError)
				if err := json.NewEncoder(cw).Encode(request.NewMessage(request.ErrInternalServer.Error())); err != nil {
					l.Error("Error encoding response", slog.String(logging.KeyError, err.Error()))
				}
			}
		}()

		handler(cw, r)
	}
}

// interactionHandler routes slash commands by name and button presses by custom ID. Every interaction is
// deferred, processed, then answered with an ephemeral followup.
func interactionHandler(
	ctx context.Context,
	a IApp,
	commands map[string]interactionProcessor,
	buttons map[string]interactionProcessor,
) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(_ *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteraction(ctx, a, commands, buttons, i)
	}
}

func handleInteraction(
	ctx context.Context,
	a IApp,
	commands map[string]interactionProcessor,
	buttons map[string]interactionProcessor,
	i *discordgo.InteractionCreate,
) {
	var (
		name      string
		processor interactionProcessor
		found     bool
	)
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name = i.ApplicationCommandData().Name
		processor, found = commands[name]
	case discordgo.InteractionMessageComponent:
		name = i.MessageComponentData().CustomID
		processor, found = buttons[name]
	default:
		return
	}

	l := a.Log().With(
		slog.String("interaction", name),
		slog.String(logging.KeyGuild, i.GuildID),
		slog.String(logging.KeyChannel, i.ChannelID),
	)
	l.Debug("Handling interaction")

	if !found {
		l.Warn("No processor found for interaction")
		if err := respondEphemeral(a, i, messages.ErrUnknownInteraction); err != nil {
			l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	if i.Member == nil {
		if err := respondEphemeral(a, i, messages.ErrGuildOnly); err != nil {
			l.Error("Error responding to interaction", slog.String(logging.KeyError, err.Error()))
		}
		return
	}

	t := prometheus.NewTimer(DiscordInteractionDuration.WithLabelValues(name))
	defer t.ObserveDuration()

	if err := deferEphemeral(a, i); err != nil {
		l.Error("Error deferring interaction", slog.String(logging.KeyError, err.Error()))
		return
	}

	ctx, cancel := context.WithTimeout(ctx, interactionTimeout)
	defer cancel()

	reply, err := runProcessor(ctx, l, a, i, processor)
	if err != nil {
		DiscordInteractionErrors.WithLabelValues(name).Inc()
		reply = errorReply(l, err)
	}

	if err := followupEphemeral(a, i, reply); err != nil {
		l.Error("Error sending interaction reply", slog.String(logging.KeyError, err.Error()))
	}
}

func runProcessor(ctx context.Context, l *slog.Logger, a IApp, i *discordgo.InteractionCreate, p interactionProcessor) (reply string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			l.Error("Panic in interaction processor",
				slog.String(logging.KeyError, fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())),
			)
			err = fmt.Errorf("panic processing interaction: %v", rec)
		}
	}()
	return p(ctx, a, i)
}
