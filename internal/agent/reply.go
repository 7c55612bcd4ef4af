package agent

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/LucasNeuro/menogeo/internal/intent"
)

const closerLine = "Posso ajudar em algo mais? 😊"

var (
	multiBlank = regexp.MustCompile(`\n{3,}`)
	multiSpace = regexp.MustCompile(`[ \t]{2,}`)

	// leadingGreeting matches a salutation that opens the reply, up to its
	// first sentence break.
	leadingGreeting = regexp.MustCompile(`(?i)^(olá|ola|oi|bom dia|boa tarde|boa noite)[^\n!.]*[!.]?\s*`)
)

// billingKeywords flag payment-instruction lines. Outside a billing intent
// these lines are noise the model tends to volunteer.
var billingKeywords = []string{
	"linha digitável",
	"linha digitavel",
	"linha_digitavel",
	"pix copia",
	"pix_copia",
	"código de barras",
	"codigo de barras",
	"url_pdf",
	"link para pagamento",
	"segunda via",
}

// Finalize applies the outbound presentation pass: whitespace normalization,
// off-intent billing cleanup, greet-once handling and the closing line.
func Finalize(reply string, greeted bool, label intent.Label, name string) string {
	reply = strings.TrimSpace(reply)

	if label != intent.ConsultaBoleto {
		reply = stripBillingLines(reply)
	}

	if greeted {
		reply = strings.TrimSpace(leadingGreeting.ReplaceAllString(reply, ""))
	} else {
		reply = greeting(name) + "\n\n" + strings.TrimSpace(leadingGreeting.ReplaceAllString(reply, ""))
	}

	reply = multiSpace.ReplaceAllString(reply, " ")
	reply = multiBlank.ReplaceAllString(reply, "\n\n")
	reply = strings.TrimSpace(reply)

	if reply == "" {
		reply = greeting(name)
	}
	if !strings.HasSuffix(reply, "?") && !strings.Contains(strings.ToLower(reply), "posso ajudar em algo mais") {
		reply += "\n\n" + closerLine
	}
	return reply
}

func greeting(name string) string {
	if name != "" {
		return fmt.Sprintf("Olá, %s! Eu sou a Geovana, assistente virtual da G4 Telecom. 😊", firstName(name))
	}
	return "Olá! Eu sou a Geovana, assistente virtual da G4 Telecom. 😊"
}

func firstName(full string) string {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return full
	}
	first := strings.ToLower(fields[0])
	runes := []rune(first)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func stripBillingLines(reply string) string {
	lines := strings.Split(reply, "\n")
	kept := lines[:0]
	for _, line := range lines {
		lower := strings.ToLower(line)
		drop := false
		for _, kw := range billingKeywords {
			if strings.Contains(lower, kw) {
				drop = true
				break
			}
		}
		if !drop {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}
