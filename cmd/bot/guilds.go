package main

import (
	"log/slog"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/Jacobbrewer1/husky/pkg/logging"
)

// applicationCommands are registered in every guild the bot is in.
func applicationCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		supportCmd,
		editCmd,
		deleteCmd,
		reopenCmd,
		unclaimCmd,
		claimCmd,
		closeCmd,
		addCmd,
		removeCmd,
	}
}

// guildJoinedHandler registers the slash commands in a guild. Discord sends a guild create for every guild
// on connect as well as on join.
func (a *App) guildJoinedHandler() func(s *discordgo.Session, g *discordgo.GuildCreate) {
	return func(s *discordgo.Session, g *discordgo.GuildCreate) {
		l := a.With(slog.String(logging.KeyGuild, g.ID))
		l.Info("Joined guild", slog.String("name", g.Name))

		TotalDiscordGuilds.Inc()

		if _, err := s.ApplicationCommandBulkOverwrite(a.cfg.ApplicationId, g.ID, applicationCommands()); err != nil {
			l.Error("Error registering slash commands", slog.String(logging.KeyError, err.Error()))
		}
	}
}

func (a *App) guildLeaveHandler() func(s *discordgo.Session, g *discordgo.GuildDelete) {
	return func(_ *discordgo.Session, g *discordgo.GuildDelete) {
		if g.Unavailable {
			// Outages are reported as guild deletes.
			return
		}
		a.Info("Left guild", slog.String(logging.KeyGuild, g.ID))

		TotalDiscordGuilds.Dec()
	}
}
