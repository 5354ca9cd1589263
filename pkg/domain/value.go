package domain

// NormalizedValue is a device reply after the decimal policy was applied.
// Numeric is false when the reply was a non-numeric sentinel passed through as text.
type NormalizedValue struct {
	Text    string  `json:"text"`
	Value   float64 `json:"value"`
	Numeric bool    `json:"numeric"`
}
