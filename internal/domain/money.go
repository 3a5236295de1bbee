package domain

import "fmt"

// CentsToDecimal converts an integer cent amount to its decimal value for
// DTOs leaving the API boundary. Internal arithmetic never uses the result.
func CentsToDecimal(cents int64) float64 {
	return float64(cents) / 100
}

// FormatBRL renders a cent amount as a BRL string, e.g. 50000 -> "R$ 500.00".
func FormatBRL(cents int64) string {
	return fmt.Sprintf("R$ %.2f", CentsToDecimal(cents))
}
