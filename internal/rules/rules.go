// Package rules gates compliance-sensitive answers before any model call.
// Decisions here are deterministic policy, never delegated to model output.
package rules

import (
	"strings"

	"github.com/LucasNeuro/menogeo/internal/intent"
	"github.com/LucasNeuro/menogeo/internal/ixc"
)

const (
	statusAtivo     = "ativo"
	statusBloqueado = "bloqueado"
)

const (
	regularizacaoMsg = "Identifiquei uma pendência no seu contrato. Para regularizar sua situação e voltar a ter acesso completo, " +
		"efetue o pagamento do boleto em aberto. Se precisar da segunda via, é só pedir. 😊"
	bloqueioMsg = "Seu contrato está bloqueado por pendência financeira. Regularize o pagamento para restabelecer a conexão, " +
		"ou fale com um atendente se já efetuou o pagamento."
	suporteMsg = "Sua internet aparece como inativa no nosso sistema. Posso abrir uma ordem de serviço para a equipe técnica " +
		"ou transferir você para um atendente. Como prefere seguir?"
)

// gatedIntents are the only intents the engine evaluates; everything else
// always goes through to the model.
var gatedIntents = map[intent.Label]bool{
	intent.ConsultaBoleto:     true,
	intent.EstouSemInternet:   true,
	intent.ConsultaValorPlano: true,
}

// Evaluate applies contract-status gating for the given intent. It returns a
// canned reply and true when the response must bypass the language model.
func Evaluate(rec *ixc.CustomerRecord, label intent.Label) (string, bool) {
	if rec == nil || rec.Failed() || !gatedIntents[label] {
		return "", false
	}

	contrato := rec.PrimaryContract()
	status := strings.ToLower(strings.TrimSpace(contrato.StatusContrato))

	switch label {
	case intent.ConsultaBoleto, intent.ConsultaValorPlano:
		if status != statusAtivo {
			return regularizacaoMsg, true
		}
	case intent.EstouSemInternet:
		if status == statusBloqueado {
			return bloqueioMsg, true
		}
		if !strings.EqualFold(strings.TrimSpace(contrato.StatusInternet), statusAtivo) {
			return suporteMsg, true
		}
	}
	return "", false
}
