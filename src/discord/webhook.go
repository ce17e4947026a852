/*
Package discord announces newly published articles through a Discord
webhook.
*/
package discord

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quillpress/quill/src/logging"
	"github.com/quillpress/quill/src/oops"
)

const (
	BotName = "Quill"

	// Discord rejects message content longer than this.
	MaxContentLength    = 2000
	MaxEmbedDescription = 4096
)

var httpClient = &http.Client{
	Timeout: 10 * time.Second,
}

type Embed struct {
	Title       string       `json:"title,omitempty"`
	Description string       `json:"description,omitempty"`
	Url         string       `json:"url,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
	Author      *EmbedAuthor `json:"author,omitempty"`
}

type EmbedAuthor struct {
	Name    string `json:"name"`
	Url     string `json:"url,omitempty"`
	IconUrl string `json:"icon_url,omitempty"`
}

type ExecuteWebhookRequest struct {
	Username string  `json:"username,omitempty"`
	Content  string  `json:"content,omitempty"`
	Embeds   []Embed `json:"embeds,omitempty"`
}

func ExecuteWebhook(ctx context.Context, webhookUrl string, payload ExecuteWebhookRequest) error {
	const name = "Execute Webhook"

	body, err := json.Marshal(payload)
	if err != nil {
		panic(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookUrl, bytes.NewReader(body))
	if err != nil {
		return oops.New(err, "bad Discord webhook url")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", fmt.Sprintf("%s (https://github.com/quillpress/quill, 1.0)", BotName))

	res, err := httpClient.Do(req)
	if err != nil {
		return oops.New(err, "failed to call Discord webhook")
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		logErrorResponse(ctx, name, res)
		return oops.New(nil, "received error %d from Discord", res.StatusCode)
	}
	return nil
}

func logErrorResponse(ctx context.Context, name string, res *http.Response) {
	body, _ := io.ReadAll(io.LimitReader(res.Body, 16*1024))
	logging.ExtractLogger(ctx).Error().
		Str("name", name).
		Int("status", res.StatusCode).
		Str("body", string(body)).
		Msg("Discord returned an error")
}
