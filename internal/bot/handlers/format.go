package handlers

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// formatCOP renders an amount as Colombian pesos with dot-separated
// thousands, e.g. 500000 -> "$500.000".
func formatCOP(amount float64) string {
	negative := amount < 0
	rounded := int64(math.Round(math.Abs(amount)))

	digits := strconv.FormatInt(rounded, 10)
	var b strings.Builder
	for i, digit := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}

	if negative {
		return "-$" + b.String()
	}
	return "$" + b.String()
}

// parseAmount reads a user-typed amount, tolerating thousand
// separators and a comma decimal mark.
func parseAmount(text string) (float64, error) {
	cleaned := strings.TrimSpace(text)
	cleaned = strings.TrimPrefix(cleaned, "$")
	cleaned = strings.ReplaceAll(cleaned, " ", "")
	cleaned = strings.ReplaceAll(cleaned, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	amount, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", text, err)
	}

	if amount <= 0 {
		return 0, fmt.Errorf("amount must be positive, got %v", amount)
	}

	return amount, nil
}

func channelLabel(channel string) string {
	switch channel {
	case "sms":
		return "SMS 📱"
	default:
		return "Email 📧"
	}
}
