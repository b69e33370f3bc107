package discord

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/bwmarrin/discordgo"

	"github.com/yonagi/kiroku/internal/wol"
)

func (b *Bot) registerCommands(s *discordgo.Session) {
	commands := []*discordgo.ApplicationCommand{
		{
			Name:        "wol",
			Description: "Wake up a server using Wake-on-LAN",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "server",
					Description: "Server name to wake up",
					Required:    true,
				},
			},
		},
		{
			Name:        "servers",
			Description: "List all configured servers",
		},
	}

	if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, "", commands); err != nil {
		b.logger.Error("failed to register commands", slog.String("error", err.Error()))
		return
	}
	b.logger.Info("slash commands registered")
}

func (b *Bot) onInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	userID := ""
	if i.Member != nil && i.Member.User != nil {
		userID = i.Member.User.ID
	} else if i.User != nil {
		userID = i.User.ID
	}
	if !slices.Contains(b.cfg.Admins, userID) {
		b.logger.Warn("unauthorized command attempt", slog.String("user_id", userID))
		b.respond(s, i, "You are not authorized to use this bot.", true)
		return
	}

	data := i.ApplicationCommandData()
	switch data.Name {
	case "wol":
		b.handleWOL(s, i, data)
	case "servers":
		b.handleServers(s, i)
	}
}

func (b *Bot) handleWOL(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if len(data.Options) == 0 {
		b.respond(s, i, "Error: server name not provided", true)
		return
	}
	name := data.Options[0].StringValue()

	var server *Server
	for idx := range b.cfg.Servers {
		if b.cfg.Servers[idx].Name == name {
			server = &b.cfg.Servers[idx]
			break
		}
	}
	if server == nil {
		b.respond(s, i, fmt.Sprintf("Error: server %q not found", name), true)
		return
	}

	if err := wol.Send(server.MAC, b.cfg.Broadcast); err != nil {
		b.logger.Error("wol failed", slog.String("server", name), slog.String("error", err.Error()))
		b.respond(s, i, fmt.Sprintf("Error: %v", err), true)
		return
	}

	b.logger.Info("wol packet sent", slog.String("server", name), slog.String("mac", server.MAC))
	b.respond(s, i, fmt.Sprintf("✅ Sent WOL packet to %s (%s)", server.Name, server.MAC), false)
}

func (b *Bot) handleServers(s *discordgo.Session, i *discordgo.InteractionCreate) {
	embed := &discordgo.MessageEmbed{
		Title: "Configured Servers",
		Color: 0x00ff00,
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Total: %d server(s)", len(b.cfg.Servers)),
		},
	}
	for _, server := range b.cfg.Servers {
		desc := server.Description
		if desc == "" {
			desc = "No description"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  server.Name,
			Value: fmt.Sprintf("**IP:** %s\n**MAC:** %s\n**Description:** %s", server.IP, server.MAC, desc),
		})
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}},
	})
	if err != nil {
		b.logger.Error("failed to respond to /servers", slog.String("error", err.Error()))
	}
}

func (b *Bot) respond(s *discordgo.Session, i *discordgo.InteractionCreate, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Error("failed to send interaction response", slog.String("error", err.Error()))
	}
}
