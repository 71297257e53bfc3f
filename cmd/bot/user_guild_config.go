package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/messages"
	"github.com/Jacobbrewer1/husky/pkg/tickets"
)

const (
	// SupportCmdName is the command for setting up the support panel.
	SupportCmdName = "support"

	// EditCmdName is the command for editing the support panel.
	EditCmdName = "edit"
)

const (
	optPanel          = "panel"
	optStaff          = "staff"
	optTicketCategory = "tickets_category"
	optClosedCategory = "closed_tickets"
	optLogs           = "logs"
	optColor          = "color"
	optImage          = "image"
	optPanelChannel   = "panel_channel"
	optTitle          = "title"
	optDescription    = "description"
	optButtonLabel    = "button_label"
)

var categories = []discordgo.ChannelType{discordgo.ChannelTypeGuildCategory}

var (
	// supportCmd sets up the support panel for the guild.
	supportCmd = &discordgo.ApplicationCommand{
		Name:        SupportCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Set up the support ticket panel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         optPanel,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The channel to post the support panel in.",
				ChannelTypes: textChannels,
				Required:     true,
			},
			{
				Name:        optStaff,
				Type:        discordgo.ApplicationCommandOptionRole,
				Description: "The role that handles tickets.",
				Required:    true,
			},
			{
				Name:         optTicketCategory,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The category new tickets are created in.",
				ChannelTypes: categories,
			},
			{
				Name:         optClosedCategory,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The category closed tickets are moved to.",
				ChannelTypes: categories,
			},
			{
				Name:         optLogs,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The channel ticket events are logged in.",
				ChannelTypes: textChannels,
			},
			{
				Name:        optColor,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The panel color as a hex code, for example 0xFF0000.",
			},
			{
				Name:        optImage,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "An image URL ending in .png, .jpg, .jpeg or .gif.",
			},
		},
	}

	// editCmd edits the support panel in a channel.
	editCmd = &discordgo.ApplicationCommand{
		Name:        EditCmdName,
		Type:        discordgo.ChatApplicationCommand,
		Description: "Edit the support ticket panel.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Name:         optPanelChannel,
				Type:         discordgo.ApplicationCommandOptionChannel,
				Description:  "The channel the support panel is in.",
				ChannelTypes: textChannels,
				Required:     true,
			},
			{
				Name:        optTitle,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The new panel title.",
			},
			{
				Name:        optDescription,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The new panel description.",
			},
			{
				Name:        optColor,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The new panel color as a hex code, for example 0xFF0000.",
			},
			{
				Name:        optButtonLabel,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "The new label of the create ticket button.",
			},
			{
				Name:        optImage,
				Type:        discordgo.ApplicationCommandOptionString,
				Description: "A new image URL, or \"none\" to remove the image.",
			},
		},
	}
)

// parseColor reads a hex color such as 0xFF0000, #FF0000 or FF0000. An empty value is nil.
func parseColor(v string) (*int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	v = strings.TrimPrefix(v, "#")
	if len(v) > 1 && (v[:2] == "0x" || v[:2] == "0X") {
		v = v[2:]
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil || n > 0xFFFFFF {
		return nil, newReplyError(messages.ErrInvalidColor, nil)
	}
	c := int(n)
	return &c, nil
}

func setupPanel(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	opts := optionsOf(i)
	color, err := parseColor(opts.value(optColor))
	if err != nil {
		return "", err
	}

	if _, err := a.Tickets().SetupPanel(ctx, actorOf(i), tickets.PanelSetup{
		ChannelID:        opts.value(optPanel),
		StaffRoleID:      opts.value(optStaff),
		TicketCategoryID: opts.value(optTicketCategory),
		ClosedCategoryID: opts.value(optClosedCategory),
		LogChannelID:     opts.value(optLogs),
		Color:            color,
		ImageURL:         opts.value(optImage),
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Support panel set up successfully!\n\n%s", messages.PanelGuide), nil
}

func editPanel(ctx context.Context, a IApp, i *discordgo.InteractionCreate) (string, error) {
	opts := optionsOf(i)
	color, err := parseColor(opts.value(optColor))
	if err != nil {
		return "", err
	}

	if _, err := a.Tickets().EditPanel(ctx, actorOf(i), tickets.PanelEdit{
		ChannelID:   opts.value(optPanelChannel),
		Title:       opts.value(optTitle),
		Description: opts.value(optDescription),
		Color:       color,
		ButtonLabel: opts.value(optButtonLabel),
		ImageURL:    opts.value(optImage),
	}); err != nil {
		return "", err
	}
	return fmt.Sprintf("Support panel updated successfully!\n\n%s", messages.PanelGuide), nil
}
