// Package discord runs the chat-platform gateway: it feeds message events to
// the diary syncer and serves the bot's slash commands.
package discord

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"

	"github.com/yonagi/kiroku/internal/diary"
	"github.com/yonagi/kiroku/internal/sse"
	"github.com/yonagi/kiroku/internal/status"
)

// Server is one machine the bot can wake and report on.
type Server struct {
	Name        string
	MAC         string
	IP          string
	Description string
}

// Config holds the bot's settings.
type Config struct {
	Token           string
	DiaryChannelID  string // forum/text channel whose threads are synced
	StatusChannelID string // channel receiving status embeds; empty disables
	Admins          []string
	Servers         []Server
	Broadcast       string // WOL broadcast address; empty uses the default
}

// Bot owns the gateway session.
type Bot struct {
	session *discordgo.Session
	syncer  *diary.Syncer
	broker  *sse.Broker // may be nil
	cfg     Config
	logger  *slog.Logger
}

// New creates a Bot wired to the syncer. broker may be nil when event
// streaming is disabled.
func New(cfg Config, syncer *diary.Syncer, broker *sse.Broker, logger *slog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("discord: create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		session: session,
		syncer:  syncer,
		broker:  broker,
		cfg:     cfg,
		logger:  logger,
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onInteraction)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onMessageUpdate)
	session.AddHandler(b.onMessageDelete)

	return b, nil
}

// Run opens the gateway connection and blocks until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("discord: open gateway: %w", err)
	}
	b.logger.Info("bot started")

	<-ctx.Done()

	b.logger.Info("bot stopping")
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("discord: close gateway: %w", err)
	}
	return nil
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.logger.Info("bot connected", slog.String("user", r.User.Username))
	b.registerCommands(s)
}

// inDiaryScope reports whether channelID is the diary channel or a thread
// under it.
func (b *Bot) inDiaryScope(s *discordgo.Session, channelID string) bool {
	if channelID == b.cfg.DiaryChannelID {
		return true
	}
	ch, err := s.State.Channel(channelID)
	if err != nil {
		ch, err = s.Channel(channelID)
		if err != nil {
			return false
		}
	}
	return ch.ParentID == b.cfg.DiaryChannelID
}

func toMessage(m *discordgo.Message) diary.Message {
	msg := diary.Message{
		ID:       m.ID,
		ThreadID: m.ChannelID,
		Content:  m.Content,
	}
	for _, a := range m.Attachments {
		msg.Attachments = append(msg.Attachments, diary.Attachment{
			Filename: a.Filename,
			URL:      a.URL,
		})
	}
	return msg
}

// markFailed annotates the originating message so the author sees the sync
// did not go through.
func (b *Bot) markFailed(s *discordgo.Session, channelID, messageID string) {
	if err := s.MessageReactionAdd(channelID, messageID, "❌"); err != nil {
		b.logger.Warn("failed to add error reaction", slog.String("error", err.Error()))
	}
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || !b.inDiaryScope(s, m.ChannelID) {
		return
	}

	result, err := b.syncer.Create(context.Background(), toMessage(m.Message))
	if err != nil {
		b.logger.Error("sync failed",
			slog.String("message_id", m.ID),
			slog.String("error", err.Error()))
		b.markFailed(s, m.ChannelID, m.ID)
		return
	}
	if result == diary.Synced && b.broker != nil {
		b.broker.PublishSync("synced", sse.SyncEvent{MessageID: m.ID, ThreadID: m.ChannelID})
	}
}

func (b *Bot) onMessageUpdate(s *discordgo.Session, m *discordgo.MessageUpdate) {
	if m.Author == nil || m.Author.Bot || !b.inDiaryScope(s, m.ChannelID) {
		return
	}

	result, err := b.syncer.Update(context.Background(), toMessage(m.Message))
	if err != nil {
		b.logger.Error("update failed",
			slog.String("message_id", m.ID),
			slog.String("error", err.Error()))
		b.markFailed(s, m.ChannelID, m.ID)
		return
	}
	if result == diary.NotSynced {
		b.logger.Debug("update skipped, message not synced", slog.String("message_id", m.ID))
		return
	}
	if b.broker != nil {
		b.broker.PublishSync("updated", sse.SyncEvent{MessageID: m.ID, ThreadID: m.ChannelID})
	}
}

func (b *Bot) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	if !b.inDiaryScope(s, m.ChannelID) {
		return
	}

	result, err := b.syncer.Delete(context.Background(), m.ID)
	if err != nil {
		b.logger.Error("delete failed",
			slog.String("message_id", m.ID),
			slog.String("error", err.Error()))
		return
	}
	if result == diary.NotSynced {
		b.logger.Debug("delete skipped, nothing recorded", slog.String("message_id", m.ID))
		return
	}
	if b.broker != nil {
		b.broker.PublishSync("deleted", sse.SyncEvent{MessageID: m.ID, ThreadID: m.ChannelID})
	}
}

// PostStatus renders one status check as an embed in the status channel.
// Used as the status monitor's report callback.
func (b *Bot) PostStatus(statuses []status.Status) {
	if b.cfg.StatusChannelID == "" {
		return
	}

	embed := &discordgo.MessageEmbed{
		Title: "Server Status",
		Color: 0x00ff00,
	}
	for _, st := range statuses {
		value := "🔴 Offline"
		if st.Online {
			value = "🟢 Online"
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   st.Name,
			Value:  value,
			Inline: true,
		})
	}

	if _, err := b.session.ChannelMessageSendEmbed(b.cfg.StatusChannelID, embed); err != nil {
		b.logger.Error("failed to post status", slog.String("error", err.Error()))
	}
}
