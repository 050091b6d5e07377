package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/zombor/receipt-bot/internal/conversation"
)

// Bot API limit for file downloads
const maxDownloadSize = 20 << 20

// API is the part of the Telegram Bot API the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Handler answers user actions
type Handler interface {
	Start(ctx context.Context, user string) conversation.Reply
	Upload(ctx context.Context, user string, up conversation.Upload) conversation.Reply
	Select(ctx context.Context, user string, data string) conversation.Reply
	Text(ctx context.Context, user string, text string) conversation.Reply
	Other(ctx context.Context, user string) conversation.Reply
}

// Bot translates Telegram updates into conversation calls and sends the replies
type Bot struct {
	api     API
	handler Handler
	client  *http.Client
	wg      sync.WaitGroup
}

// NewBot creates a Bot
func NewBot(api API, handler Handler) *Bot {
	return &Bot{
		api:     api,
		handler: handler,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Run handles updates until ctx is done or the channel is closed, then
// waits for in-flight updates to finish. Each update runs on its own
// goroutine and is not cancelled by ctx.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	defer b.wg.Wait()
	work := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.wg.Add(1)
			go func() {
				defer b.wg.Done()
				b.HandleUpdate(work, update)
			}()
		}
	}
}

// HandleUpdate processes a single update
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Panic while handling update", "update_id", update.UpdateID, "panic", r)
		}
	}()

	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		b.handleMessage(ctx, update.Message)
	}
}

func userID(u *tgbotapi.User) string {
	return strconv.FormatInt(u.ID, 10)
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		slog.Warn("Failed to answer callback", "callback_id", cb.ID, "error", err)
	}
	if cb.From == nil {
		return
	}

	chatID := cb.From.ID
	if cb.Message != nil && cb.Message.Chat != nil {
		chatID = cb.Message.Chat.ID
	}

	reply := b.handler.Select(ctx, userID(cb.From), cb.Data)
	b.send(chatID, reply)
}

func (b *Bot) handleMessage(ctx context.Context, m *tgbotapi.Message) {
	if m.From == nil || m.Chat == nil {
		return
	}
	user := userID(m.From)

	var reply conversation.Reply
	switch {
	case m.IsCommand() && m.Command() == "start":
		reply = b.handler.Start(ctx, user)
	case m.Document != nil:
		reply = b.handler.Upload(ctx, user, conversation.Upload{
			Kind:        conversation.UploadDocument,
			Filename:    m.Document.FileName,
			ContentType: strings.ToLower(m.Document.MimeType),
			Fetch:       b.fetcher(m.Document.FileID),
		})
	case len(m.Photo) > 0:
		photo := largestPhoto(m.Photo)
		reply = b.handler.Upload(ctx, user, conversation.Upload{
			Kind:        conversation.UploadPhoto,
			Filename:    "photo.jpg",
			ContentType: "image/jpeg",
			Fetch:       b.fetcher(photo.FileID),
		})
	case m.Text != "":
		reply = b.handler.Text(ctx, user, m.Text)
	default:
		reply = b.handler.Other(ctx, user)
	}

	b.send(m.Chat.ID, reply)
}

// largestPhoto picks the highest resolution variant
func largestPhoto(photos []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	best := photos[0]
	for _, p := range photos[1:] {
		area, bestArea := p.Width*p.Height, best.Width*best.Height
		if area > bestArea || (area == bestArea && p.FileSize > best.FileSize) {
			best = p
		}
	}
	return best
}

func (b *Bot) fetcher(fileID string) func(ctx context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		url, err := b.api.GetFileDirectURL(fileID)
		if err != nil {
			return nil, fmt.Errorf("getting file URL: %w", err)
		}
		return b.download(ctx, url)
	}
}

func (b *Bot) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("downloading file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	if len(data) > maxDownloadSize {
		return nil, fmt.Errorf("file exceeds %d bytes", maxDownloadSize)
	}
	return data, nil
}

func (b *Bot) send(chatID int64, reply conversation.Reply) {
	if reply.Text == "" {
		return
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Keyboard) > 0 {
		msg.ReplyMarkup = inlineKeyboard(reply.Keyboard)
	}

	if _, err := b.api.Send(msg); err != nil {
		slog.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}

func inlineKeyboard(kb conversation.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, btn := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
