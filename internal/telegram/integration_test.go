package telegram

import (
	"context"
	"encoding/json"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"
	"google.golang.org/api/option"

	"github.com/zombor/receipt-bot/internal/archive"
	"github.com/zombor/receipt-bot/internal/conversation"
	"github.com/zombor/receipt-bot/internal/scanning"
	"github.com/zombor/receipt-bot/internal/sheets"
)

// fakePDF returns a fixed text layer
type fakePDF struct {
	text string
}

func (f fakePDF) Text(pdfData []byte) (string, error) {
	return f.text, nil
}

// sheetServer records the cells written through the Sheets API
type sheetServer struct {
	mu    sync.Mutex
	cells map[string]interface{}
}

func (s *sheetServer) update(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Values [][]interface{} `json:"values"`
	}
	Expect(json.NewDecoder(r.Body).Decode(&body)).To(Succeed())

	rng := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	s.mu.Lock()
	s.cells[rng] = body.Values[0][0]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"updatedRange": rng, "updatedCells": 1})
}

var _ = Describe("Integration", func() {
	var (
		api         *mockAPI
		bot         *Bot
		sheetAPI    *ghttp.Server
		files       *ghttp.Server
		sheet       *sheetServer
		archiveDir  string
		ctx         context.Context
		callbackSeq int
	)

	send := func(m *tgbotapi.Message) {
		bot.HandleUpdate(ctx, tgbotapi.Update{Message: m})
	}

	press := func(data string) {
		callbackSeq++
		bot.HandleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: 42},
			Message: message(""),
			Data:    data,
		}})
	}

	lastReply := func() tgbotapi.MessageConfig {
		sent := api.messages()
		Expect(sent).NotTo(BeEmpty())
		return sent[len(sent)-1]
	}

	BeforeEach(func() {
		ctx = context.Background()
		callbackSeq = 0
		sheet = &sheetServer{cells: map[string]interface{}{}}

		sheetAPI = ghttp.NewServer()
		sheetAPI.RouteToHandler(http.MethodGet, regexp.MustCompile(`^/v4/spreadsheets/sheet-id/values/`),
			ghttp.RespondWithJSONEncoded(http.StatusOK, map[string]interface{}{
				"range":  "JANEIRO!M22:O1000",
				"values": [][]string{{"10,00", "01/03/2024", "🧾 Outros"}, {"20,00"}},
			}))
		sheetAPI.RouteToHandler(http.MethodPut, regexp.MustCompile(`^/v4/spreadsheets/sheet-id/values/`), sheet.update)

		files = ghttp.NewServer()
		files.RouteToHandler(http.MethodGet, "/file/doc-1", ghttp.RespondWith(http.StatusOK, "%PDF-1.4"))

		values, err := sheets.NewGoogleValues(ctx, "sheet-id",
			option.WithEndpoint(sheetAPI.URL()+"/"),
			option.WithoutAuthentication(),
		)
		Expect(err).NotTo(HaveOccurred())

		archiveDir = filepath.Join(GinkgoT().TempDir(), "uploads")
		store, err := archive.NewLocalArchive(archiveDir)
		Expect(err).NotTo(HaveOccurred())

		extractor := scanning.NewExtractor(fakePDF{text: "COMPROVANTE\nValor R$ 50,00\n10 MAR 2024 14:32"}, nil)
		service := conversation.NewService(
			conversation.NewMemoryStore(),
			extractor,
			sheets.NewLedger(values, sheets.DefaultLayout()),
			conversation.AllowList{},
			conversation.WithArchive(store),
		)

		api = &mockAPI{fileURL: files.URL()}
		bot = NewBot(api, service)
	})

	AfterEach(func() {
		sheetAPI.Close()
		files.Close()
	})

	It("takes a PDF receipt through the dialogue into the sheet", func() {
		upload := message("")
		upload.Document = &tgbotapi.Document{FileID: "doc-1", FileName: "nota.pdf", MimeType: "application/pdf"}
		send(upload)

		preview := lastReply()
		Expect(preview.Text).To(ContainSubstring("Valor: R$ 50,00"))
		Expect(preview.Text).To(ContainSubstring("Data: 10/03/2024"))
		markup := preview.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		Expect(markup.InlineKeyboard).To(HaveLen(7))

		press("cat:1")
		Expect(lastReply().Text).To(HavePrefix("Categoria selecionada: 🛒 Supermercado"))

		press("pay:3")
		Expect(lastReply().Text).To(HavePrefix("Forma selecionada: 💳 Crédito"))

		press("ess:yes")
		Expect(lastReply().Text).To(HavePrefix("Marcado: ✔️"))

		send(message("/pular"))
		Expect(lastReply().Text).To(Equal("Fechado. Salvei no Google Sheets."))

		Expect(sheet.cells).To(Equal(map[string]interface{}{
			"JANEIRO!L24": "",
			"JANEIRO!M24": "50,00",
			"JANEIRO!N24": "10/03/2024",
			"JANEIRO!O24": "🛒 Supermercado",
			"JANEIRO!P24": "💳 Crédito",
			"JANEIRO!Q24": "✔️",
		}))
		Expect(api.requests).To(HaveLen(callbackSeq))

		archived, err := filepath.Glob(filepath.Join(archiveDir, "*_nota.pdf"))
		Expect(err).NotTo(HaveOccurred())
		Expect(archived).To(HaveLen(1))
	})

	It("rejects a payment button pressed before a category", func() {
		upload := message("")
		upload.Document = &tgbotapi.Document{FileID: "doc-1", FileName: "nota.pdf", MimeType: "application/pdf"}
		send(upload)

		press("pay:3")
		Expect(lastReply().Text).To(Equal("Não encontrei uma nota em andamento. Manda a nota novamente."))

		press("cat:2")
		Expect(lastReply().Text).To(HavePrefix("Categoria selecionada: 🍔 Alimentação"))
	})

	It("answers plain text without a receipt with instructions", func() {
		send(message("oi"))
		Expect(lastReply().Text).To(Equal("Manda a nota fiscal como PDF ou PNG/JPEG para eu processar."))
		Expect(sheet.cells).To(BeEmpty())
	})
})
