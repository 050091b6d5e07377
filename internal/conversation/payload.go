package conversation

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedPayload is returned for callback data that no button produces
var ErrMalformedPayload = errors.New("malformed callback payload")

var payloadKinds = map[string]Event{
	"cat": EventCategory,
	"pay": EventPayment,
	"ess": EventEssential,
}

// Selection is a decoded button press
type Selection struct {
	Event Event
	Code  int  // category or payment code
	Yes   bool // essential flag
}

// ParsePayload decodes callback data of the form kind:value
func ParsePayload(data string) (Selection, error) {
	kind, value, ok := strings.Cut(data, ":")
	if !ok {
		return Selection{}, fmt.Errorf("%w: %q", ErrMalformedPayload, data)
	}

	event, ok := payloadKinds[kind]
	if !ok {
		return Selection{}, fmt.Errorf("%w: unknown kind %q", ErrMalformedPayload, kind)
	}

	sel := Selection{Event: event}
	switch event {
	case EventEssential:
		switch value {
		case "yes":
			sel.Yes = true
		case "no":
		default:
			return Selection{}, fmt.Errorf("%w: %q", ErrMalformedPayload, data)
		}
	default:
		if !isDigits(value) {
			return Selection{}, fmt.Errorf("%w: %q", ErrMalformedPayload, data)
		}
		code, err := strconv.Atoi(value)
		if err != nil {
			return Selection{}, fmt.Errorf("%w: %q", ErrMalformedPayload, data)
		}
		sel.Code = code
	}
	return sel, nil
}

// isDigits rejects the signs and spaces strconv.Atoi would accept
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func categoryPayload(code int) string { return fmt.Sprintf("cat:%d", code) }
func paymentPayload(code int) string  { return fmt.Sprintf("pay:%d", code) }
