package agent

import (
	"context"
	"encoding/json"

	"github.com/cloudwego/eino/schema"

	"github.com/LucasNeuro/menogeo/internal/handoff"
	"github.com/LucasNeuro/menogeo/internal/ixc"
	"github.com/LucasNeuro/menogeo/internal/llm"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

const unknownToolResult = `{"erro": "Tool não implementada"}`

// Session is the resolved identity of one conversation turn. Every tool call
// runs against this identity, never against model-supplied identifiers.
type Session struct {
	RemoteJid string
	CPF       string
	Message   string
}

// Handler executes one tool against the session. Results are always
// structured values; handlers never return Go errors to the loop.
type Handler func(ctx context.Context, sess Session, args map[string]any) any

// Tool pairs a provider-neutral schema with its handler.
type Tool struct {
	Spec   llm.ToolSpec
	Handle Handler
}

// Registry holds the callable tools in a stable declaration order.
type Registry struct {
	order []string
	tools map[string]Tool
}

// NewRegistry wires the customer-consultation tools over the CRM client and
// the human-handoff webhook.
func NewRegistry(crm *ixc.Client, transfer *handoff.Client) *Registry {
	cpfParam := map[string]*schema.ParameterInfo{
		"cpf": {Type: schema.String, Desc: "CPF do cliente, apenas dígitos", Required: true},
	}

	r := &Registry{tools: map[string]Tool{}}

	r.add(Tool{
		Spec: llm.ToolSpec{
			Name:   "consultar_dados_ixc",
			Desc:   "Consulta todos os dados do cliente no IXC: cadastro, contratos, boletos, conexão e ordens de serviço.",
			Params: cpfParam,
		},
		Handle: func(ctx context.Context, sess Session, _ map[string]any) any {
			return crm.FetchCustomer(ctx, sess.RemoteJid, sess.CPF)
		},
	})
	r.add(Tool{
		Spec: llm.ToolSpec{
			Name:   "consultar_boletos",
			Desc:   "Consulta os próximos boletos do cliente com valor, vencimento e códigos de pagamento.",
			Params: cpfParam,
		},
		Handle: func(ctx context.Context, sess Session, _ map[string]any) any {
			return crm.Boletos(ctx, sess.RemoteJid, sess.CPF)
		},
	})
	r.add(Tool{
		Spec: llm.ToolSpec{
			Name:   "consultar_status_plano",
			Desc:   "Consulta o status do contrato e da conexão de internet do cliente.",
			Params: cpfParam,
		},
		Handle: func(ctx context.Context, sess Session, _ map[string]any) any {
			return crm.StatusPlano(ctx, sess.RemoteJid, sess.CPF)
		},
	})
	r.add(Tool{
		Spec: llm.ToolSpec{
			Name:   "consultar_dados_cadastro",
			Desc:   "Consulta os dados cadastrais do cliente: nome, contatos e endereço.",
			Params: cpfParam,
		},
		Handle: func(ctx context.Context, sess Session, _ map[string]any) any {
			return crm.Cadastro(ctx, sess.RemoteJid, sess.CPF)
		},
	})
	r.add(Tool{
		Spec: llm.ToolSpec{
			Name:   "consultar_valor_plano",
			Desc:   "Consulta o valor da mensalidade do plano do cliente.",
			Params: cpfParam,
		},
		Handle: func(ctx context.Context, sess Session, _ map[string]any) any {
			return crm.ValorPlano(ctx, sess.RemoteJid, sess.CPF)
		},
	})
	r.add(Tool{
		Spec: llm.ToolSpec{
			Name: "abrir_os",
			Desc: "Abre uma ordem de serviço para a equipe técnica visitar o cliente.",
			Params: map[string]*schema.ParameterInfo{
				"cpf":    {Type: schema.String, Desc: "CPF do cliente, apenas dígitos", Required: true},
				"motivo": {Type: schema.String, Desc: "Motivo da visita técnica relatado pelo cliente", Required: true},
			},
		},
		Handle: func(ctx context.Context, sess Session, args map[string]any) any {
			motivo, _ := args["motivo"].(string)
			if motivo == "" {
				motivo = sess.Message
			}
			return crm.OpenTicket(ctx, sess.CPF, motivo)
		},
	})
	r.add(Tool{
		Spec: llm.ToolSpec{
			Name: "transferir_para_humano",
			Desc: "Transfere a conversa para um atendente humano com um resumo do atendimento.",
			Params: map[string]*schema.ParameterInfo{
				"cpf":    {Type: schema.String, Desc: "CPF do cliente, apenas dígitos", Required: true},
				"resumo": {Type: schema.String, Desc: "Resumo curto do que o cliente precisa", Required: true},
			},
		},
		Handle: func(ctx context.Context, sess Session, args map[string]any) any {
			resumo, _ := args["resumo"].(string)
			if resumo == "" {
				resumo = sess.Message
			}
			return transfer.Transfer(ctx, sess.CPF, resumo)
		},
	})

	return r
}

func (r *Registry) add(t Tool) {
	r.order = append(r.order, t.Spec.Name)
	r.tools[t.Spec.Name] = t
}

// Specs returns the tool schemas in declaration order, for model binding.
func (r *Registry) Specs() []llm.ToolSpec {
	specs := make([]llm.ToolSpec, 0, len(r.order))
	for _, name := range r.order {
		specs = append(specs, r.tools[name].Spec)
	}
	return specs
}

// Dispatch runs one requested tool call and returns its tool message.
// Identifier-shaped arguments are always overwritten with the session CPF
// before the handler runs; model-hallucinated identifiers never reach a
// backend. The second return carries a terminal reply when the tool ends the
// conversation turn by itself.
func (r *Registry) Dispatch(ctx context.Context, sess Session, call schema.ToolCall) (*schema.Message, string) {
	tool, ok := r.tools[call.Function.Name]
	if !ok {
		logx.Warn().Str("tool", call.Function.Name).Msg("model requested unknown tool")
		return schema.ToolMessage(unknownToolResult, call.ID), ""
	}

	args := map[string]any{}
	if raw := call.Function.Arguments; raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			logx.Warn().Err(err).Str("tool", call.Function.Name).Msg("unparseable tool arguments")
			args = map[string]any{}
		}
	}
	for _, key := range []string{"cpf", "id", "id_cliente"} {
		if _, present := args[key]; present {
			args[key] = sess.CPF
		}
	}
	args["cpf"] = sess.CPF

	logx.Info().Str("tool", call.Function.Name).Str("remote_jid", sess.RemoteJid).Msg("dispatching tool")
	result := tool.Handle(ctx, sess, args)

	content, err := json.Marshal(result)
	if err != nil {
		logx.Error().Err(err).Str("tool", call.Function.Name).Msg("failed to marshal tool result")
		content = []byte(`{"erro": "falha ao serializar resultado"}`)
	}

	terminal := ""
	if call.Function.Name == "transferir_para_humano" {
		if res, ok := result.(*handoff.Result); ok && res.Status != "" {
			terminal = handoff.ConfirmationMessage
		}
	}
	return schema.ToolMessage(string(content), call.ID), terminal
}
