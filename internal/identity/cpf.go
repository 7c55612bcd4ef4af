// Package identity binds WhatsApp channel identifiers to customer CPFs and
// keeps the per-conversation session state in Redis.
package identity

import (
	"regexp"
	"strings"
)

// cpfPattern accepts the bare 11-digit form and the punctuated
// 000.000.000-00 form customers commonly type.
var cpfPattern = regexp.MustCompile(`\b\d{3}\.\d{3}\.\d{3}-\d{2}\b|\b\d{11}\b`)

var digitStripper = strings.NewReplacer(".", "", "-", "")

// IsCPF reports whether text is exactly an 11-digit numeric CPF.
func IsCPF(text string) bool {
	if len(text) != 11 {
		return false
	}
	for i := 0; i < len(text); i++ {
		if text[i] < '0' || text[i] > '9' {
			return false
		}
	}
	return true
}

// ExtractCPF finds the first CPF-shaped token in free text and returns it
// normalized to digits only. Returns "" when none is present.
func ExtractCPF(text string) string {
	match := cpfPattern.FindString(text)
	if match == "" {
		return ""
	}
	cpf := digitStripper.Replace(match)
	if !IsCPF(cpf) {
		return ""
	}
	return cpf
}

// NormalizePhone strips the channel suffix and any non-digit characters from
// a remoteJid, e.g. "551199998888@s.whatsapp.net" -> "551199998888".
func NormalizePhone(remoteJid string) string {
	phone := remoteJid
	if at := strings.IndexByte(phone, '@'); at >= 0 {
		phone = phone[:at]
	}
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
