package telegram

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const pollTimeout = 60

// Poll removes any registered webhook and starts long polling. Stop it
// with api.StopReceivingUpdates.
func Poll(api *tgbotapi.BotAPI) (tgbotapi.UpdatesChannel, error) {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, fmt.Errorf("deleting webhook: %w", err)
	}

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	slog.Info("Polling for updates", "bot", api.Self.UserName)
	return api.GetUpdatesChan(u), nil
}

// WebhookURL joins the public domain and the hook path
func WebhookURL(domain, path string) (string, error) {
	if !strings.Contains(domain, "://") {
		domain = "https://" + domain
	}
	base, err := url.Parse(domain)
	if err != nil {
		return "", fmt.Errorf("parsing webhook domain: %w", err)
	}
	base.Path = "/" + strings.TrimPrefix(path, "/")
	return base.String(), nil
}

// RegisterWebhook points Telegram at hookURL. When secret is set Telegram
// sends it in the X-Telegram-Bot-Api-Secret-Token header.
func RegisterWebhook(api *tgbotapi.BotAPI, hookURL, secret string) error {
	params := tgbotapi.Params{"url": hookURL}
	params.AddNonEmpty("secret_token", secret)

	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return fmt.Errorf("setting webhook: %w", err)
	}
	slog.Info("Webhook registered", "bot", api.Self.UserName)
	return nil
}
