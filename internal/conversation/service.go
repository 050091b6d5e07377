package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/zombor/receipt-bot/internal/invoice"
	"github.com/zombor/receipt-bot/internal/scanning"
)

// Extractor turns an upload into text
type Extractor interface {
	ExtractText(data []byte, contentType string) (string, error)
}

// Recorder persists a completed invoice
type Recorder interface {
	Record(ctx context.Context, inv *invoice.Invoice) error
}

// Archive keeps a copy of uploaded files
type Archive interface {
	Save(filename string, data []byte) (string, error)
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (defaultTimeSource) Now() time.Time {
	return time.Now()
}

// UploadKind tells documents from photos
type UploadKind int

const (
	UploadDocument UploadKind = iota
	UploadPhoto
)

// Upload is a received file. Fetch downloads its content and is only
// called once the content type has been accepted.
type Upload struct {
	Kind        UploadKind
	Filename    string
	ContentType string
	Fetch       func(ctx context.Context) ([]byte, error)
}

// Service drives the per-user dialogue
type Service struct {
	store      SessionStore
	extractor  Extractor
	recorder   Recorder
	allowList  AllowList
	archive    Archive
	timeSource TimeSource
}

// Option configures a Service
type Option func(*Service)

// WithArchive keeps a copy of every accepted upload
func WithArchive(archive Archive) Option {
	return func(s *Service) { s.archive = archive }
}

// WithTimeSource replaces the clock, for tests
func WithTimeSource(ts TimeSource) Option {
	return func(s *Service) { s.timeSource = ts }
}

// NewService creates a Service
func NewService(store SessionStore, extractor Extractor, recorder Recorder, allowList AllowList, opts ...Option) *Service {
	s := &Service{
		store:      store,
		extractor:  extractor,
		recorder:   recorder,
		allowList:  allowList,
		timeSource: defaultTimeSource{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func textReply(text string) Reply {
	return Reply{Text: text}
}

// Start answers the /start command
func (s *Service) Start(ctx context.Context, user string) Reply {
	if !s.allowList.Allowed(user) {
		return textReply(msgRestricted)
	}
	return textReply(msgStart)
}

// Upload reads a receipt and starts a new dialogue, replacing any session
// the user already had.
func (s *Service) Upload(ctx context.Context, user string, up Upload) Reply {
	if !s.allowList.Allowed(user) {
		return textReply(msgRestricted)
	}
	if up.Fetch == nil {
		return textReply(msgNoDocument)
	}

	failed := msgReadFailed
	if up.Kind == UploadPhoto {
		failed = msgPhotoFailed
	}

	if !scanning.IsSupported(up.ContentType) {
		return textReply(msgUnsupported)
	}

	inv, err := s.readInvoice(ctx, up)
	if err != nil {
		slog.Error("Failed to process upload",
			"user", user,
			"filename", up.Filename,
			"content_type", up.ContentType,
			"error", err,
		)
		return textReply(failed)
	}

	session := &Session{Step: StepCategory, Invoice: inv, UpdatedAt: s.timeSource.Now()}
	if err := s.store.Put(user, session); err != nil {
		slog.Error("Failed to save session", "user", user, "error", err)
		return textReply(failed)
	}

	return Reply{Text: previewText(inv), Keyboard: CategoryKeyboard()}
}

func (s *Service) readInvoice(ctx context.Context, up Upload) (*invoice.Invoice, error) {
	data, err := up.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("downloading file: %w", err)
	}

	if s.archive != nil {
		if _, err := s.archive.Save(up.Filename, data); err != nil {
			slog.Warn("Failed to archive upload", "filename", up.Filename, "error", err)
		}
	}

	text, err := s.extractor.ExtractText(data, up.ContentType)
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}
	slog.Debug("Extracted text", "filename", up.Filename, "text", text)

	return invoice.Parse(text), nil
}

// Select handles a button press carrying callback data
func (s *Service) Select(ctx context.Context, user string, data string) Reply {
	if !s.allowList.Allowed(user) {
		return textReply(msgRestricted)
	}

	sel, err := ParsePayload(data)
	if err != nil {
		slog.Warn("Rejected callback", "user", user, "data", data, "error", err)
		return textReply(msgNoSession)
	}

	session, err := s.store.Get(user)
	if errors.Is(err, ErrSessionNotFound) {
		return textReply(msgNoSession)
	}
	if err != nil {
		slog.Error("Failed to load session", "user", user, "error", err)
		return textReply(selectionFailed[sel.Event])
	}

	next, err := session.Step.Advance(sel.Event)
	if err != nil {
		slog.Info("Rejected selection", "user", user, "error", err)
		return textReply(msgNoSession)
	}

	var reply Reply
	inv := session.Invoice
	switch sel.Event {
	case EventCategory:
		inv.SetCategory(sel.Code)
		reply = Reply{Text: categorySelectedText(inv, sel.Code), Keyboard: PaymentKeyboard()}
	case EventPayment:
		inv.SetPayment(sel.Code)
		reply = Reply{Text: paymentSelectedText(inv, sel.Code), Keyboard: EssentialKeyboard()}
	case EventEssential:
		inv.SetEssential(sel.Yes)
		reply = textReply(essentialSelectedText(inv))
	}

	session.Step = next
	session.UpdatedAt = s.timeSource.Now()
	if err := s.store.Put(user, session); err != nil {
		slog.Error("Failed to save session", "user", user, "error", err)
		return textReply(selectionFailed[sel.Event])
	}
	return reply
}

// Text handles a free-text message. Only the description step consumes
// text; otherwise the user is told to send a receipt.
func (s *Service) Text(ctx context.Context, user string, text string) Reply {
	if !s.allowList.Allowed(user) {
		return textReply(msgRestricted)
	}

	session, err := s.store.Get(user)
	if err != nil {
		if !errors.Is(err, ErrSessionNotFound) {
			slog.Error("Failed to load session", "user", user, "error", err)
		}
		return textReply(msgInstructions)
	}

	if _, ok := session.Step.Next(EventDescription); !ok {
		return textReply(msgInstructions)
	}

	text = strings.TrimSpace(text)
	if isSkip(text) {
		text = ""
	}
	session.Invoice.SetDescription(text)

	// On failure the stored session stays at the description step so that
	// resending the text retries the whole write
	if err := s.recorder.Record(ctx, session.Invoice); err != nil {
		slog.Error("Failed to record invoice", "user", user, "error", err)
		return textReply(msgSaveFailed)
	}

	if err := s.store.Delete(user); err != nil {
		slog.Warn("Failed to delete session", "user", user, "error", err)
	}
	return textReply(msgSaved)
}

// Other handles any other kind of message. It is ignored while a dialogue
// is in progress.
func (s *Service) Other(ctx context.Context, user string) Reply {
	if !s.allowList.Allowed(user) {
		return textReply(msgRestricted)
	}
	if _, err := s.store.Get(user); err == nil {
		return Reply{}
	}
	return textReply(msgInstructions)
}
