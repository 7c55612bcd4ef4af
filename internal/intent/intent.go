// Package intent labels inbound messages with one of a closed set of intents
// using a small, zero-temperature completion call.
package intent

import "strings"

// Label is one canonical intent tag.
type Label string

const (
	ConsultaBoleto        Label = "consulta_boleto"
	ConsultaStatusPlano   Label = "consulta_status_plano"
	EstouSemInternet      Label = "estou_sem_internet"
	ConsultaDadosCadastro Label = "consulta_dados_cadastro"
	ConsultaValorPlano    Label = "consulta_valor_plano"
	AbrirOS               Label = "abrir_os"
	TransferirParaHumano  Label = "transferir_para_humano"
	Cumprimento           Label = "cumprimento"
	Outra                 Label = "outra"
)

// Labels is the closed set offered to the classifier model.
var Labels = []Label{
	ConsultaBoleto,
	ConsultaStatusPlano,
	EstouSemInternet,
	ConsultaDadosCadastro,
	ConsultaValorPlano,
	AbrirOS,
	TransferirParaHumano,
	Cumprimento,
	Outra,
}

// normalizationOrder maps raw model output to canonical labels by substring,
// checked in this fixed priority order. The first group that matches wins.
var normalizationOrder = []struct {
	keywords []string
	label    Label
}{
	{[]string{"sem_internet", "sem internet"}, EstouSemInternet},
	{[]string{"boleto", "fatura", "pagamento"}, ConsultaBoleto},
	{[]string{"valor"}, ConsultaValorPlano},
	{[]string{"cadastro", "cadastr"}, ConsultaDadosCadastro},
	{[]string{"status", "plano"}, ConsultaStatusPlano},
	{[]string{"abrir", "ordem"}, AbrirOS},
	{[]string{"humano", "atendente", "transferir"}, TransferirParaHumano},
	{[]string{"cumprimento", "saudacao", "saudação", "ola", "olá"}, Cumprimento},
}

// Normalize collapses raw classifier output to a canonical label.
// Unmatched text and the explicit "outra" tag both collapse to absent.
func Normalize(raw string) (Label, bool) {
	raw = strings.ToLower(strings.TrimSpace(raw))
	if raw == "" || raw == string(Outra) {
		return "", false
	}
	for _, group := range normalizationOrder {
		for _, kw := range group.keywords {
			if strings.Contains(raw, kw) {
				return group.label, true
			}
		}
	}
	return "", false
}
