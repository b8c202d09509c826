package entitlement

import "strings"

// NormalizeCPF strips everything but digits, so "123.456.789-09" and
// "12345678909" compare equal in allow-lists and recovery checks.
func NormalizeCPF(cpf string) string {
	var b strings.Builder
	b.Grow(len(cpf))
	for _, r := range cpf {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SplitRestrictedCpfs parses a comma-separated CPF allow-list into
// normalized entries, dropping empties.
func SplitRestrictedCpfs(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if n := NormalizeCPF(p); n != "" {
			out = append(out, n)
		}
	}
	return out
}
