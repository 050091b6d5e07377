package conversation

import (
	"fmt"
	"strings"

	"github.com/zombor/receipt-bot/internal/invoice"
)

const (
	msgRestricted   = "Acesso restrito."
	msgStart        = "Manda a nota fiscal em PDF ou PNG como arquivo que eu leio para você."
	msgInstructions = "Manda a nota fiscal como PDF ou PNG/JPEG para eu processar."
	msgUnsupported  = "Me manda a nota como PDF ou imagem (PNG/JPEG)."
	msgNoDocument   = "Não consegui ver o arquivo."
	msgReadFailed   = "Deu erro ao ler o arquivo."
	msgPhotoFailed  = "Deu erro ao ler a imagem."
	msgNoSession    = "Não encontrei uma nota em andamento. Manda a nota novamente."
	msgSaved        = "Fechado. Salvei no Google Sheets."
	msgSaveFailed   = "Deu erro ao salvar no Google Sheets."

	skipCommand = "/pular"
)

var selectionFailed = map[Event]string{
	EventCategory:  "Deu erro ao selecionar a categoria.",
	EventPayment:   "Deu erro ao selecionar a forma de pagamento.",
	EventEssential: "Deu erro ao marcar essencial.",
}

func previewText(inv *invoice.Invoice) string {
	amount := "não encontrado"
	if inv.Amount != nil {
		amount = "R$ " + *inv.Amount
	}
	date := "não encontrada"
	if inv.Date != nil {
		date = *inv.Date
	}
	return fmt.Sprintf("Achei isso na nota:\nValor: %s\nData: %s\n\nAgora escolha a categoria:", amount, date)
}

// selectedTag shows the sheet tag of a resolved entry or the raw code
func selectedTag(entry *invoice.Entry, code int) string {
	if entry != nil {
		return entry.SheetTag
	}
	return fmt.Sprint(code)
}

func categorySelectedText(inv *invoice.Invoice, code int) string {
	return fmt.Sprintf("Categoria selecionada: %s\n\nAgora escolha a forma de pagamento:", selectedTag(inv.Category, code))
}

func paymentSelectedText(inv *invoice.Invoice, code int) string {
	return fmt.Sprintf("Forma selecionada: %s\n\nA compra foi essencial?", selectedTag(inv.Payment, code))
}

func essentialSelectedText(inv *invoice.Invoice) string {
	return fmt.Sprintf("Marcado: %s\n\nDigite uma descrição da nota fiscal (ou mande %s):", invoice.Value(inv.Essential), skipCommand)
}

func isSkip(text string) bool {
	return strings.EqualFold(text, skipCommand)
}
