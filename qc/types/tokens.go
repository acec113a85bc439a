package types

// Special float tokens. They are JSON strings, never numeric literals.
const (
	TokenNaN    = "NaN"
	TokenInf    = "Inf"
	TokenNegInf = "-Inf"
)

// IsSpecialToken reports whether v is one of the literal special float tokens.
func IsSpecialToken(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	switch s {
	case TokenNaN, TokenInf, TokenNegInf:
		return true
	}
	return false
}
