package discord

import (
	"context"
	"time"

	"github.com/quillpress/quill/src/config"
	"github.com/quillpress/quill/src/logging"
)

type Announcement struct {
	Title       string
	Url         string
	Excerpt     string
	AuthorName  string
	AuthorUrl   string
	AvatarUrl   string
	PublishedAt time.Time
}

func (a Announcement) Payload() ExecuteWebhookRequest {
	return ExecuteWebhookRequest{
		Username: BotName,
		Content:  truncate("New article: **"+a.Title+"**", MaxContentLength),
		Embeds: []Embed{{
			Title:       a.Title,
			Url:         a.Url,
			Description: truncate(a.Excerpt, MaxEmbedDescription),
			Timestamp:   a.PublishedAt.UTC().Format(time.RFC3339),
			Author: &EmbedAuthor{
				Name:    a.AuthorName,
				Url:     a.AuthorUrl,
				IconUrl: a.AvatarUrl,
			},
		}},
	}
}

/*
Posts the announcement to the configured webhook. Does nothing when no
webhook is configured. Failures are logged and swallowed; a broken webhook
must never take an article submission down with it.
*/
func Announce(ctx context.Context, a Announcement) {
	webhookUrl := config.Config.Discord.WebhookURL
	if webhookUrl == "" {
		return
	}

	if err := ExecuteWebhook(ctx, webhookUrl, a.Payload()); err != nil {
		logging.ExtractLogger(ctx).Error().Err(err).Str("article", a.Url).Msg("Failed to announce article on Discord")
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
