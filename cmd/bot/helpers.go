package main

import (
	"errors"
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/logging"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/Jacobbrewer1/husky/pkg/tickets"
)

// replyError is a failure with a reply that replaces the generic error message.
type replyError struct {
	reply string
	err   error
}

func newReplyError(reply string, err error) error {
	return &replyError{reply: reply, err: err}
}

func (e *replyError) Error() string {
	if e.err == nil {
		return e.reply
	}
	return e.err.Error()
}

func (e *replyError) Unwrap() error {
	return e.err
}

// errorReply is the message shown to the user for a failed interaction.
func errorReply(l *slog.Logger, err error) string {
	if te, ok := tickets.AsError(err); ok {
		l.Debug("Interaction refused",
			slog.String("kind", te.Kind.String()),
			slog.String(logging.KeyError, te.Message),
		)
		return te.Message
	}

	var re *replyError
	if errors.As(err, &re) {
		if re.err != nil {
			l.Error("Error processing interaction", slog.String(logging.KeyError, err.Error()))
		}
		return re.reply
	}

	l.Error("Error processing interaction", slog.String(logging.KeyError, err.Error()))
	return messages.ErrUserErrorProcessing
}

func respondEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

// deferEphemeral acknowledges the interaction so the reply can follow once the work is done.
func deferEphemeral(a IApp, i *discordgo.InteractionCreate) error {
	return a.Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func followupEphemeral(a IApp, i *discordgo.InteractionCreate, content string) error {
	return a.Followup(i.Interaction, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}
