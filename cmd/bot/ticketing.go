package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/Jacobbrewer1/husky/pkg/tickets"
)

const (
	// ClaimCmdName is the command for claiming the ticket of the current channel.
	ClaimCmdName = "claim"

	// UnclaimCmdName is the command for releasing a claimed ticket.
	UnclaimCmdName = "unclaim"

	// CloseCmdName is the command for closing a ticket.
	CloseCmdName = "close"

	// ReopenCmdName is the command for reopening a closed ticket.
	ReopenCmdName = "reopen"

	// DeleteCmdName is the command for deleting a ticket.
	DeleteCmdName = "delete"

	// AddCmdName is the command for adding a user or role to a ticket.
	AddCmdName = "add"

	// RemoveCmdName is the command for removing a user or role from a ticket.
	RemoveCmdName = "remove"
)

const (
	optTicket = "ticket"
	optUser   = "user"
	optRole   = "role"
)

var textChannels = []discordgo.ChannelType{discordgo.ChannelTypeGuildText}

var (
	claimCmd = &discordgo.ApplicationCommand{
		Name:        ClaimCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Claim the ticket in this channel.",
	}

	unclaimCmd = &discordgo.ApplicationCommand{
		Name:        UnclaimCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Release the ticket you claimed in this channel.",
	}

	closeCmd = &discordgo.ApplicationCommand{
		Name:        CloseCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Close a ticket.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         optTicket,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The ticket channel to close.",
				ChannelTypes: textChannels,
				Required:     true,
			},
		},
	}

	reopenCmd = &discordgo.ApplicationCommand{
		Name:        ReopenCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Reopen a closed ticket.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         optTicket,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The closed ticket channel to reopen.",
				ChannelTypes: textChannels,
				Required:     true,
			},
		},
	}

	deleteCmd = &discordgo.ApplicationCommand{
		Name:        DeleteCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Delete a ticket and its channel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         optTicket,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The ticket channel to delete.",
				ChannelTypes: textChannels,
				Required:     true,
			},
		},
	}

	addCmd = &discordgo.ApplicationCommand{
		Name:        AddCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Add a user or role to the ticket in this channel.",
		Options:     participantOptions("add"),
	}

	removeCmd = &discordgo.ApplicationCommand{
		Name:        RemoveCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Remove a user or role from the ticket in this channel.",
		Options:     participantOptions("remove"),
	}
)

func participantOptions(verb string) []*discordgo.ApplicationCommandOption {
	return []*discordgo.ApplicationCommandOption{
		{
			Name:        optUser,
			Type:        discordgo.ApplicationCommandOptionUser,
			Description: fmt.Sprintf("The user to %s.", verb),
		},
		{
			Name:        optRole,
			Type:        discordgo.ApplicationCommandOptionRole,
			Description: fmt.Sprintf("The role to %s.", verb),
		},
	}
}

// commandOptions are the options of a slash command by name.
type commandOptions map[string]*discordgo.ApplicationCommandInteractionDataOption

func optionsOf(i *discordgo.InteractionCreate) commandOptions {
	opts := i.ApplicationCommandData().Options
	m := make(commandOptions, len(opts))
	for _, o := range opts {
		m[o.Name] = o
	}
	return m
}

// value is the raw value of a string, channel, user or role option. Missing options are empty.
func (o commandOptions) value(name string) string {
	opt, ok := o[name]
	if !ok {
		return ""
	}
	v, _ := opt.Value.(string)
	return strings.TrimSpace(v)
}

func actorOf(i *discordgo.InteractionCreate) tickets.Actor {
	return tickets.NewActor(i.GuildID, i.Member)
}

func openTicket(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	t, err := a.Tickets().Open(ctx, actorOf(i))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Your ticket has been created: <#%s>", t.ChannelID), nil
}

func claimTicket(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	if _, err := a.Tickets().Claim(ctx, actorOf(i), i.ChannelID); err != nil {
		return "", err
	}
	return messages.ClaimedTicket, nil
}

func unclaimTicket(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	if _, err := a.Tickets().Unclaim(ctx, actorOf(i), i.ChannelID); err != nil {
		return "", err
	}
	return messages.UnclaimedTicket, nil
}

func requestClose(ctx context.Context, a IApp, i *discordgo.InteractionCreate, channelID string) (string, error) {
	if _, err := a.Tickets().RequestClose(ctx, actorOf(i), channelID); err != nil {
		return "", err
	}
	return messages.ConfirmationPosted, nil
}

// closeTicketButton handles the close button on the initial ticket message.
func closeTicketButton(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	return requestClose(ctx, a, i, i.ChannelID)
}

func closeTicketCmd(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	return requestClose(ctx, a, i, optionsOf(i).value(optTicket))
}

func confirmClose(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	c, err := a.Tickets().ConfirmClose(ctx, actorOf(i), i.ChannelID)
	if err != nil {
		if _, ok := tickets.AsError(err); ok {
			return "", err
		}
		return "", newReplyError(messages.ErrCloseFailed, err)
	}
	if !c.TranscriptAvailable {
		return messages.ErrTranscriptFailed, nil
	}
	return messages.TicketClosed, nil
}

func abortClose(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	if err := a.Tickets().AbortClose(ctx, actorOf(i), i.ChannelID); err != nil {
		return "", err
	}
	return messages.ClosureCanceled, nil
}

func reopenTicket(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	t, err := a.Tickets().Reopen(ctx, actorOf(i), optionsOf(i).value(optTicket))
	if err != nil {
		if _, ok := tickets.AsError(err); ok {
			return "", err
		}
		return "", newReplyError(messages.ErrReopenFailed, err)
	}
	return fmt.Sprintf("Ticket %s has been reopened.", t.Name()), nil
}

func deleteTicket(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	name, err := a.Tickets().Delete(ctx, actorOf(i), optionsOf(i).value(optTicket))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Ticket %s has been deleted.", name), nil
}

func participantsOf(i *discordgo.InteractionCreate) tickets.Participants {
	opts := optionsOf(i)
	return tickets.Participants{
		UserID: opts.value(optUser),
		RoleID: opts.value(optRole),
	}
}

func addParticipant(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	p := participantsOf(i)
	if err := a.Tickets().AddParticipant(ctx, actorOf(i), i.ChannelID, p); err != nil {
		return "", err
	}
	return tickets.ParticipantsAck(p, "added to"), nil
}

func removeParticipant(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	p := participantsOf(i)
	if err := a.Tickets().RemoveParticipant(ctx, actorOf(i), i.ChannelID, p); err != nil {
		return "", err
	}
	return tickets.ParticipantsAck(p, "removed from"), nil
}
