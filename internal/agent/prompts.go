package agent

import (
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/LucasNeuro/menogeo/internal/ixc"
)

// personaPrompt fixes the assistant identity and tool-usage discipline for
// every conversation turn.
const personaPrompt = "Você é Geovana, agente virtual oficial da G4 Telecom.\n" +
	"- Sempre que precisar de dados do cliente, chame a função de consulta adequada. O CPF da sessão já está resolvido; nunca peça o CPF novamente.\n" +
	"- Use SEMPRE os dados retornados do IXC para responder, buscando nos campos do JSON: cliente, boletos, contratos, login, OS.\n" +
	"- Identifique a intenção do usuário (consulta_boleto, consulta_status_plano, estou_sem_internet, consulta_dados_cadastro, consulta_valor_plano, etc.) e responda de acordo, usando os dados reais do IXC.\n" +
	"- Personalize as respostas usando o nome do cliente, status do contrato, valores e datas.\n" +
	"- Não repita cumprimentos ou apresentações em todas as respostas.\n" +
	"- Se precisar abrir uma ordem de serviço, use a função abrir_os.\n" +
	"- Se precisar transferir para um atendente humano, use a função transferir_para_humano.\n" +
	"- Responda de forma clara, cordial, com listas, tópicos em negrito e poucos emojis, adaptando para leitura no WhatsApp.\n" +
	"- Nunca envie informações não solicitadas e só consulte o backend se realmente necessário.\n" +
	"- Se não conseguir resolver, oriente o usuário a falar com um atendente humano.\n" +
	"- Nunca invente informações; quando a consulta retornar um campo \"erro\", explique que o sistema está indisponível no momento."

// nudgePrompt re-engages the model when it stalls on a transitional filler
// instead of calling a tool.
const nudgePrompt = "Prossiga agora com a consulta necessária e responda com os dados reais, sem pedir que o cliente aguarde."

// SystemMessages builds the fixed prompt head for one turn. The customer
// context line carries name and contract status only; raw identifiers and
// payment data enter the conversation exclusively through tool results.
func SystemMessages(rec *ixc.CustomerRecord) []*schema.Message {
	msgs := []*schema.Message{schema.SystemMessage(personaPrompt)}

	if rec == nil || rec.Failed() {
		return msgs
	}

	var b strings.Builder
	b.WriteString("Contexto do cliente autenticado nesta conversa:")
	if name := rec.DisplayName(); name != "" {
		fmt.Fprintf(&b, " nome: %s.", name)
	}
	if status := rec.PrimaryContract().StatusContrato; status != "" {
		fmt.Fprintf(&b, " status do contrato: %s.", status)
	}
	msgs = append(msgs, schema.SystemMessage(b.String()))
	return msgs
}
