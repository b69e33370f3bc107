package discord

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestToMessage(t *testing.T) {
	m := &discordgo.Message{
		ID:        "m1",
		ChannelID: "c1",
		Content:   "hello",
		Attachments: []*discordgo.MessageAttachment{
			{Filename: "a.png", URL: "https://cdn.test/a.png"},
			{Filename: "b.pdf", URL: "https://cdn.test/b.pdf"},
		},
	}

	got := toMessage(m)
	if got.ID != "m1" || got.ThreadID != "c1" || got.Content != "hello" {
		t.Errorf("message = %+v", got)
	}
	if len(got.Attachments) != 2 {
		t.Fatalf("attachments = %d, want 2", len(got.Attachments))
	}
	if got.Attachments[0].Filename != "a.png" || got.Attachments[0].URL != "https://cdn.test/a.png" {
		t.Errorf("attachment 0 = %+v", got.Attachments[0])
	}
}
