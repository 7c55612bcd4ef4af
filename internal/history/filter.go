// Package history is the append-only conversational memory, stored per
// (remoteJid, cpf) in Redis. Sensitive payload data never reaches it.
package history

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/LucasNeuro/menogeo/internal/identity"
	"github.com/LucasNeuro/menogeo/internal/intent"
)

// sensitiveKeywords is the denylist of payload fields that must never be
// persisted into durable history: identity numbers, addresses, payment codes,
// credentials and network identifiers.
var sensitiveKeywords = []string{
	"cpf",
	"rg",
	"senha",
	"endereço",
	"endereco",
	"cep",
	"linha_digitavel",
	"linha digitável",
	"linha digitavel",
	"pix_copia_cola",
	"pix copia e cola",
	"código de barras",
	"codigo de barras",
	"url_pdf",
	"mac",
	"ip address",
	"login",
}

// intentKeywords drives the replay-context relevance check. This is a plain
// substring heuristic, not a classifier.
var intentKeywords = map[intent.Label][]string{
	intent.ConsultaBoleto:        {"boleto", "fatura", "pagamento", "vencimento", "pagar", "valor"},
	intent.ConsultaStatusPlano:   {"status", "plano", "contrato", "bloqueado", "ativo"},
	intent.EstouSemInternet:      {"internet", "conexão", "conexao", "sinal", "lenta", "lento", "caiu"},
	intent.ConsultaDadosCadastro: {"cadastro", "dados", "telefone", "atualizar"},
	intent.ConsultaValorPlano:    {"valor", "preço", "preco", "plano", "mensalidade"},
	intent.AbrirOS:               {"ordem", "serviço", "servico", "técnico", "tecnico", "visita"},
	intent.TransferirParaHumano:  {"atendente", "humano", "pessoa", "falar"},
}

// ContainsSensitiveData reports whether text matches the sensitive-field
// denylist, including bare CPF-shaped numbers.
func ContainsSensitiveData(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range sensitiveKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return identity.ExtractCPF(text) != ""
}

// IsIntentRelevant reports whether text mentions any keyword for the given
// intent. Unknown intents and intents without a keyword group keep everything.
func IsIntentRelevant(text string, label intent.Label) bool {
	keywords, ok := intentKeywords[label]
	if !ok {
		return true
	}
	lower := strings.ToLower(text)
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// FilterForIntent keeps turns that are relevant to the intent and free of
// sensitive data, producing a minimal, privacy-safe replay context.
func FilterForIntent(turns []*schema.Message, label intent.Label) []*schema.Message {
	var out []*schema.Message
	for _, turn := range turns {
		if turn == nil || turn.Content == "" {
			continue
		}
		if !IsIntentRelevant(turn.Content, label) {
			continue
		}
		if ContainsSensitiveData(turn.Content) {
			continue
		}
		out = append(out, turn)
	}
	return out
}

// ReplayWindow trims turns to the most recent limit entries, collapses
// consecutive duplicate user turns, and guarantees the window ends with the
// current user message.
func ReplayWindow(turns []*schema.Message, current string, limit int) []*schema.Message {
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}

	out := make([]*schema.Message, 0, len(turns)+1)
	for _, turn := range turns {
		if turn == nil {
			continue
		}
		if len(out) > 0 {
			prev := out[len(out)-1]
			if prev.Role == schema.User && turn.Role == schema.User && prev.Content == turn.Content {
				continue
			}
		}
		out = append(out, turn)
	}

	if last := len(out) - 1; last < 0 || out[last].Role != schema.User || out[last].Content != current {
		out = append(out, schema.UserMessage(current))
	}
	return out
}
