package main

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"
	"google.golang.org/api/option"

	"github.com/zombor/receipt-bot/internal/archive"
	"github.com/zombor/receipt-bot/internal/config"
	"github.com/zombor/receipt-bot/internal/conversation"
	"github.com/zombor/receipt-bot/internal/scanning"
	"github.com/zombor/receipt-bot/internal/sheets"
	"github.com/zombor/receipt-bot/internal/telegram"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	cfg, fs, err := config.Load(os.Args[1:])
	if errors.Is(err, ff.ErrHelp) {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		os.Exit(0)
	}
	if err != nil {
		if fs != nil {
			fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if cfg.ShowVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	slog.SetDefault(cfg.NewLogger(os.Stderr))

	if err := run(cfg); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting receipt-bot", "version", version)

	store, err := newSessionStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	extractor, err := newExtractor(cfg)
	if err != nil {
		return err
	}
	defer extractor.Close()

	values, err := newSheetValues(ctx, cfg)
	if err != nil {
		return err
	}
	layout := sheets.DefaultLayout()
	layout.Sheet = cfg.Sheet
	layout.StartRow = cfg.StartRow
	ledger := sheets.NewLedger(values, layout)

	var opts []conversation.Option
	if cfg.ArchiveDir != "" {
		slog.Info("Initializing archive...", "dir", cfg.ArchiveDir)
		a, err := archive.NewLocalArchive(cfg.ArchiveDir)
		if err != nil {
			return fmt.Errorf("initializing archive: %w", err)
		}
		opts = append(opts, conversation.WithArchive(a))
	}

	allowList := conversation.ParseAllowList(cfg.AllowedUsers)
	if len(allowList) > 0 {
		slog.Info("Access restricted", "users", len(allowList))
	}
	service := conversation.NewService(store, extractor, ledger, allowList, opts...)

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return fmt.Errorf("connecting to telegram: %w", err)
	}
	bot := telegram.NewBot(api, service)

	if cfg.Webhook() {
		return runWebhook(ctx, cfg, api, bot)
	}
	return runPolling(ctx, api, bot)
}

func runPolling(ctx context.Context, api *tgbotapi.BotAPI, bot *telegram.Bot) error {
	updates, err := telegram.Poll(api)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		slog.Info("Shutting down...")
		api.StopReceivingUpdates()
	}()

	bot.Run(ctx, updates)
	return nil
}

func runWebhook(ctx context.Context, cfg *config.Config, api *tgbotapi.BotAPI, bot *telegram.Bot) error {
	hookURL, err := telegram.WebhookURL(cfg.WebhookDomain, cfg.WebhookPath)
	if err != nil {
		return err
	}
	if err := telegram.RegisterWebhook(api, hookURL, cfg.WebhookSecret); err != nil {
		return err
	}

	server := telegram.NewWebhookServer(fmt.Sprintf(":%d", cfg.Port), cfg.WebhookPath, cfg.WebhookSecret)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		bot.Run(context.Background(), server.Updates())
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
		if err != nil {
			err = fmt.Errorf("webhook server: %w", err)
		}
	}

	slog.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if shutdownErr := server.Shutdown(shutdownCtx); shutdownErr != nil {
		slog.Error("Failed to shut down webhook server", "error", shutdownErr)
	}
	<-done
	return err
}

func newSessionStore(cfg *config.Config) (conversation.SessionStore, error) {
	if cfg.SessionDB == "" {
		slog.Info("Keeping sessions in memory")
		return conversation.NewMemoryStore(), nil
	}

	slog.Info("Initializing session database...", "path", cfg.SessionDB)
	store, err := conversation.NewBoltStore(cfg.SessionDB)
	if err != nil {
		return nil, fmt.Errorf("initializing session database: %w", err)
	}
	return store, nil
}

func newExtractor(cfg *config.Config) (*scanning.Extractor, error) {
	pdf, err := scanning.NewPDFText(cfg.PDFEngine)
	if err != nil {
		return nil, err
	}

	var ocr scanning.OCR
	switch cfg.OCR {
	case "gemini":
		slog.Info("Initializing Gemini OCR...", "model", cfg.GeminiModel)
		ocr, err = scanning.NewGemini(cfg.GeminiKey, cfg.GeminiModel)
		if err != nil {
			return nil, fmt.Errorf("initializing gemini: %w", err)
		}
	case "ollama":
		slog.Info("Initializing Ollama OCR...", "url", cfg.OllamaURL, "model", cfg.OllamaModel)
		ocr, err = scanning.NewOllama(cfg.OllamaURL, cfg.OllamaModel)
		if err != nil {
			return nil, fmt.Errorf("initializing ollama: %w", err)
		}
	case "none":
		slog.Warn("OCR disabled, only PDFs with a text layer can be read")
	}

	return scanning.NewExtractor(pdf, ocr, scanning.WithEnhancement(cfg.EnhanceImages)), nil
}

func newSheetValues(ctx context.Context, cfg *config.Config) (*sheets.GoogleValues, error) {
	var opts []option.ClientOption
	switch {
	case cfg.CredentialsFile != "":
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	default:
		creds, ok, err := config.ServiceAccountFromEnv()
		if err != nil {
			return nil, err
		}
		if ok {
			opts = append(opts, option.WithCredentialsJSON(creds))
		} else {
			slog.Info("Using Application Default Credentials for Google Sheets")
		}
	}

	values, err := sheets.NewGoogleValues(ctx, cfg.Spreadsheet, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing google sheets: %w", err)
	}
	return values, nil
}
