package conversation

import "github.com/zombor/receipt-bot/internal/invoice"

const buttonsPerRow = 2

// Button is an inline button; Data is sent back when it is pressed
type Button struct {
	Label string
	Data  string
}

// Keyboard is a grid of buttons, row by row
type Keyboard [][]Button

// Reply is what the bot answers to one update. An empty Text means no reply.
type Reply struct {
	Text     string
	Keyboard Keyboard
}

func chunk(buttons []Button, size int) Keyboard {
	var rows Keyboard
	for i := 0; i < len(buttons); i += size {
		end := min(i+size, len(buttons))
		rows = append(rows, buttons[i:end])
	}
	return rows
}

func tableKeyboard(table invoice.Table, payload func(int) string) Keyboard {
	buttons := make([]Button, 0, len(table))
	for _, e := range table {
		buttons = append(buttons, Button{Label: e.SheetTag, Data: payload(e.Code)})
	}
	return chunk(buttons, buttonsPerRow)
}

// CategoryKeyboard offers every category
func CategoryKeyboard() Keyboard {
	return tableKeyboard(invoice.Categories, categoryPayload)
}

// PaymentKeyboard offers every payment method
func PaymentKeyboard() Keyboard {
	return tableKeyboard(invoice.Payments, paymentPayload)
}

// EssentialKeyboard offers the two essential choices
func EssentialKeyboard() Keyboard {
	return Keyboard{{
		{Label: "✔️ Essencial", Data: "ess:yes"},
		{Label: "❌ Não essencial", Data: "ess:no"},
	}}
}
