package invoice

// Invoice is a purchase record assembled over the course of a conversation.
// A nil field means the value has not been determined yet.
type Invoice struct {
	Amount       *string `json:"amount,omitempty"` // verbatim, e.g. "123,45"
	Date         *string `json:"date,omitempty"`   // DD/MM/YYYY
	CategoryCode *int    `json:"category_code,omitempty"`
	Category     *Entry  `json:"category,omitempty"`
	PaymentCode  *int    `json:"payment_code,omitempty"`
	Payment      *Entry  `json:"payment,omitempty"`
	Essential    *string `json:"essential,omitempty"` // EssentialYes or EssentialNo
	Description  *string `json:"description,omitempty"`
}

const (
	EssentialYes = "✔️"
	EssentialNo  = "❌"
)

// SetCategory records the selected code and resolves it against Categories.
// An unknown code is kept but leaves Category nil.
func (i *Invoice) SetCategory(code int) {
	i.CategoryCode = &code
	i.Category = nil
	if e, ok := Categories.Lookup(code); ok {
		i.Category = &e
	}
}

// SetPayment records the selected code and resolves it against Payments.
func (i *Invoice) SetPayment(code int) {
	i.PaymentCode = &code
	i.Payment = nil
	if e, ok := Payments.Lookup(code); ok {
		i.Payment = &e
	}
}

// SetEssential stores the glyph for the essential flag.
func (i *Invoice) SetEssential(essential bool) {
	glyph := EssentialNo
	if essential {
		glyph = EssentialYes
	}
	i.Essential = &glyph
}

// SetDescription stores the free-text description. An empty string is a
// valid, present description.
func (i *Invoice) SetDescription(text string) {
	i.Description = &text
}

// CategoryTag returns the sheet tag of the resolved category, or "".
func (i *Invoice) CategoryTag() string {
	if i.Category == nil {
		return ""
	}
	return i.Category.SheetTag
}

// PaymentTag returns the sheet tag of the resolved payment method, or "".
func (i *Invoice) PaymentTag() string {
	if i.Payment == nil {
		return ""
	}
	return i.Payment.SheetTag
}

// Value dereferences an optional string, returning "" when absent.
func Value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Clone returns a deep copy of the invoice
func (i *Invoice) Clone() *Invoice {
	if i == nil {
		return nil
	}
	return &Invoice{
		Amount:       clonePtr(i.Amount),
		Date:         clonePtr(i.Date),
		CategoryCode: clonePtr(i.CategoryCode),
		Category:     clonePtr(i.Category),
		PaymentCode:  clonePtr(i.PaymentCode),
		Payment:      clonePtr(i.Payment),
		Essential:    clonePtr(i.Essential),
		Description:  clonePtr(i.Description),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
