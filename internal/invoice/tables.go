package invoice

// Entry is one row of a reference table. SheetTag is the exact string
// written to the spreadsheet; Label is for display.
type Entry struct {
	Code     int    `json:"code"`
	Label    string `json:"label"`
	SheetTag string `json:"sheet_tag"`
}

// Table is an ordered, immutable list of entries indexed by code.
type Table []Entry

// Lookup finds the entry with the given code.
func (t Table) Lookup(code int) (Entry, bool) {
	for _, e := range t {
		if e.Code == code {
			return e, true
		}
	}
	return Entry{}, false
}

var Categories = Table{
	{Code: 1, Label: "Supermercado", SheetTag: "🛒 Supermercado"},
	{Code: 2, Label: "Alimentação", SheetTag: "🍔 Alimentação"},
	{Code: 3, Label: "Transporte", SheetTag: "🚗 Transporte"},
	{Code: 4, Label: "Lazer", SheetTag: "🎉 Lazer"},
	{Code: 5, Label: "Gastos pessoais", SheetTag: "👤 Gastos pessoais"},
	{Code: 6, Label: "Saúde e bem-estar", SheetTag: "🩺 Saúde e bem-estar"},
	{Code: 7, Label: "Presentes", SheetTag: "🎁 Presentes"},
	{Code: 8, Label: "Pets", SheetTag: "🐾 Pets"},
	{Code: 9, Label: "Moradia", SheetTag: "🏠 Moradia"},
	{Code: 10, Label: "Assinaturas", SheetTag: "🗂️ Assinaturas"},
	{Code: 11, Label: "Serviços domésticos", SheetTag: "🧹 Serviços domésticos"},
	{Code: 12, Label: "Parcelamentos", SheetTag: "💳 Parcelamentos"},
	{Code: 13, Label: "Mensalidades", SheetTag: "🪙 Mensalidades"},
	{Code: 14, Label: "Outros", SheetTag: "🧾 Outros"},
}

// Payments lists payment methods. Cash and Pix share a sheet tag.
var Payments = Table{
	{Code: 1, Label: "Dinheiro", SheetTag: "💸 Dinheiro / Pix"},
	{Code: 2, Label: "Pix", SheetTag: "💸 Dinheiro / Pix"},
	{Code: 3, Label: "Crédito", SheetTag: "💳 Crédito"},
	{Code: 4, Label: "Débito", SheetTag: "💳 Débito"},
	{Code: 5, Label: "Vale", SheetTag: "🎟️ Vale"},
	{Code: 6, Label: "Boleto", SheetTag: "💲 Boleto"},
}

// months maps Portuguese month abbreviations to two-digit month numbers.
var months = map[string]string{
	"JAN": "01",
	"FEV": "02",
	"MAR": "03",
	"ABR": "04",
	"MAI": "05",
	"JUN": "06",
	"JUL": "07",
	"AGO": "08",
	"SET": "09",
	"OUT": "10",
	"NOV": "11",
	"DEZ": "12",
}

// MonthNumber returns the two-digit month for a three-letter abbreviation.
func MonthNumber(abbrev string) (string, bool) {
	m, ok := months[normalizeMonth(abbrev)]
	return m, ok
}
