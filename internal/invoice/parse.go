package invoice

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	amountPattern = regexp.MustCompile(`(?i)Valor\s+R\$\s*([\d.,]+)`)
	datePattern   = regexp.MustCompile(`(?i)\b(\d{2})\s+([A-ZÇÃÕ]{3})\s+(\d{4})\b`)

	accentFolder = strings.NewReplacer("Ç", "C", "Ã", "A", "Õ", "O")
)

// Parse reads the amount and date out of extracted receipt text. Both are
// best effort: a missing or unrecognised value leaves the field nil.
func Parse(text string) *Invoice {
	inv := &Invoice{}

	if m := amountPattern.FindStringSubmatch(text); m != nil {
		amount := strings.TrimSpace(m[1])
		inv.Amount = &amount
	}

	if m := datePattern.FindStringSubmatch(text); m != nil {
		if month, ok := MonthNumber(m[2]); ok {
			date := fmt.Sprintf("%s/%s/%s", m[1], month, m[3])
			inv.Date = &date
		}
	}

	return inv
}

// normalizeMonth upper-cases and strips the accents allowed by datePattern.
func normalizeMonth(abbrev string) string {
	return accentFolder.Replace(strings.ToUpper(abbrev))
}
