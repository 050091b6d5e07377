package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
)

// Config holds the bot settings. Flags can also be given as environment
// variables named after the flag, e.g. --bot-token as BOT_TOKEN.
type Config struct {
	BotToken     string
	AllowedUsers string

	Spreadsheet     string
	Sheet           string
	StartRow        int
	CredentialsFile string

	Port          int
	WebhookPath   string
	WebhookDomain string
	WebhookSecret string

	SessionDB  string
	ArchiveDir string

	PDFEngine     string
	OCR           string
	GeminiKey     string
	GeminiModel   string
	OllamaURL     string
	OllamaModel   string
	EnhanceImages bool

	LogLevel  string
	LogFormat string

	ShowVersion bool
}

// NewFlagSet declares every flag and returns the set with the Config the
// flags are bound to. The Config is filled in by ff.Parse.
func NewFlagSet() (*ff.FlagSet, *Config) {
	fs := ff.NewFlagSet("receipt-bot")
	c := &Config{}

	fs.StringVar(&c.BotToken, 0, "bot-token", "", "Telegram bot token")
	fs.StringVar(&c.AllowedUsers, 0, "allowed-users", "", "Comma separated Telegram user ids allowed to use the bot (empty allows everyone)")

	fs.StringVar(&c.Spreadsheet, 0, "google-spreadsheet", "", "Google Sheets spreadsheet id")
	fs.StringVar(&c.Sheet, 0, "sheet", "JANEIRO", "Sheet name receipts are appended to")
	fs.IntVar(&c.StartRow, 0, "start-row", 22, "First data row of the sheet")
	fs.StringVar(&c.CredentialsFile, 0, "google-credentials", "", "Service account JSON file (defaults to GOOGLE_* variables, then Application Default Credentials)")

	fs.IntVar(&c.Port, 0, "port", 3000, "HTTP port for webhook mode")
	fs.StringVar(&c.WebhookPath, 0, "webhook-path", "", "Webhook path (default /tg/<bot token>)")
	fs.StringVar(&c.WebhookDomain, 0, "webhook-domain", "", "Public domain for webhook mode; long polling when empty (falls back to RENDER_EXTERNAL_URL)")
	fs.StringVar(&c.WebhookSecret, 0, "webhook-secret", "", "Secret token Telegram sends with webhook requests")

	fs.StringVar(&c.SessionDB, 0, "session-db", "", "BoltDB file for sessions; sessions are kept in memory when empty")
	fs.StringVar(&c.ArchiveDir, 0, "archive-dir", "", "Directory to keep a copy of every upload (disabled when empty)")

	fs.StringVar(&c.PDFEngine, 0, "pdf-engine", "fitz", "PDF text engine: 'fitz' or 'native'")
	fs.StringVar(&c.OCR, 0, "ocr", "gemini", "OCR provider: 'gemini', 'ollama' or 'none'")
	fs.StringVar(&c.GeminiKey, 0, "gemini-api-key", "", "Google Gemini API key")
	fs.StringVar(&c.GeminiModel, 0, "gemini-model", "gemini-2.5-flash", "Google Gemini model name")
	fs.StringVar(&c.OllamaURL, 0, "ollama-url", "http://localhost:11434", "Ollama API base URL")
	fs.StringVar(&c.OllamaModel, 0, "ollama-model", "llava", "Ollama vision model name")
	fs.BoolVar(&c.EnhanceImages, 0, "enhance-images", "Grayscale, sharpen and downsize images before OCR")

	fs.StringVar(&c.LogLevel, 0, "log-level", "info", "Log level: debug, info, warn or error")
	fs.StringVar(&c.LogFormat, 0, "log-format", "text", "Log format: 'text' or 'json'")

	fs.StringLong("config", "", "Config file (flag value pairs, one per line)")
	fs.BoolVar(&c.ShowVersion, 0, "version", "Show version information")

	return fs, c
}

// Load reads .env (when present), then parses args, environment variables
// and the optional config file. The returned flag set is for usage output.
func Load(args []string) (*Config, *ff.FlagSet, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, nil, fmt.Errorf("loading .env: %w", err)
	}

	flags, c := NewFlagSet()
	if err := ff.Parse(flags, args,
		ff.WithEnvVars(),
		ff.WithConfigFileFlag("config"),
		ff.WithConfigFileParser(ff.PlainParser),
	); err != nil {
		return nil, flags, err
	}

	if c.ShowVersion {
		return c, flags, nil
	}

	if c.WebhookDomain == "" {
		c.WebhookDomain = os.Getenv("RENDER_EXTERNAL_URL")
	}
	if c.WebhookPath == "" {
		c.WebhookPath = "/tg/" + c.BotToken
	}
	if !strings.HasPrefix(c.WebhookPath, "/") {
		c.WebhookPath = "/" + c.WebhookPath
	}

	if err := c.Validate(); err != nil {
		return nil, flags, err
	}
	return c, flags, nil
}

// Validate checks required settings and enumerated values
func (c *Config) Validate() error {
	var errs []error
	if c.BotToken == "" {
		errs = append(errs, errors.New("bot token is required (--bot-token or BOT_TOKEN)"))
	}
	if c.Spreadsheet == "" {
		errs = append(errs, errors.New("spreadsheet id is required (--google-spreadsheet or GOOGLE_SPREADSHEET)"))
	}
	if c.StartRow < 1 {
		errs = append(errs, fmt.Errorf("start row must be positive, got %d", c.StartRow))
	}
	switch c.OCR {
	case "gemini":
		if c.GeminiKey == "" {
			errs = append(errs, errors.New("gemini API key is required (--gemini-api-key or GEMINI_API_KEY)"))
		}
	case "ollama", "none":
	default:
		errs = append(errs, fmt.Errorf("invalid OCR provider %q, valid: gemini, ollama or none", c.OCR))
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format %q", c.LogFormat))
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Webhook reports whether updates are pushed by Telegram rather than polled
func (c *Config) Webhook() bool {
	return c.WebhookDomain != ""
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", s)
	}
	return level, nil
}

// NewLogger builds the process logger from the log flags
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(c.LogLevel)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// serviceAccount mirrors the fields of a Google service account key file
type serviceAccount struct {
	Type                    string `json:"type"`
	ProjectID               string `json:"project_id"`
	PrivateKeyID            string `json:"private_key_id"`
	PrivateKey              string `json:"private_key"`
	ClientEmail             string `json:"client_email"`
	ClientID                string `json:"client_id"`
	AuthURI                 string `json:"auth_uri"`
	TokenURI                string `json:"token_uri"`
	AuthProviderX509CertURL string `json:"auth_provider_x509_cert_url"`
	ClientX509CertURL       string `json:"client_x509_cert_url"`
	UniverseDomain          string `json:"universe_domain,omitempty"`
}

// ServiceAccountFromEnv assembles a service account key from the GOOGLE_*
// variables used by hosted deployments. It returns false when
// GOOGLE_PRIVATE_KEY or GOOGLE_CLIENT_EMAIL is unset.
func ServiceAccountFromEnv() ([]byte, bool, error) {
	sa := serviceAccount{
		Type:                    os.Getenv("GOOGLE_TYPE"),
		ProjectID:               os.Getenv("GOOGLE_PROJECT_ID"),
		PrivateKeyID:            os.Getenv("GOOGLE_PRIVATE_KEY_ID"),
		PrivateKey:              strings.ReplaceAll(os.Getenv("GOOGLE_PRIVATE_KEY"), `\n`, "\n"),
		ClientEmail:             os.Getenv("GOOGLE_CLIENT_EMAIL"),
		ClientID:                os.Getenv("GOOGLE_CLIENT_ID"),
		AuthURI:                 os.Getenv("GOOGLE_AUTH_URI"),
		TokenURI:                os.Getenv("GOOGLE_TOKEN_URI"),
		AuthProviderX509CertURL: os.Getenv("GOOGLE_AUTH_PROVIDER_X509_CERT_URL"),
		ClientX509CertURL:       os.Getenv("GOOGLE_CLIENT_X509_CERT_URL"),
		UniverseDomain:          os.Getenv("GOOGLE_UNIVERSE_DOMAIN"),
	}
	if sa.PrivateKey == "" || sa.ClientEmail == "" {
		return nil, false, nil
	}
	if sa.Type == "" {
		sa.Type = "service_account"
	}
	if sa.TokenURI == "" {
		sa.TokenURI = "https://oauth2.googleapis.com/token"
	}

	data, err := json.Marshal(sa)
	if err != nil {
		return nil, false, fmt.Errorf("marshaling service account: %w", err)
	}
	return data, true, nil
}
