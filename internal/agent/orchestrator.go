// Package agent runs the bounded tool-calling loop that turns one inbound
// customer message into one outbound reply.
package agent

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/LucasNeuro/menogeo/internal/ixc"
	"github.com/LucasNeuro/menogeo/internal/llm"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

// exhaustedReply covers the rare case where the round cap is hit without any
// assistant text to fall back on.
const exhaustedReply = "Desculpe, não consegui concluir sua solicitação agora. Pode tentar novamente em instantes ou pedir para falar com um atendente. 🙏"

// fillerPhrases mark transitional stalls. A reply made only of these is not a
// final answer; the loop nudges the model to actually run the consultation.
var fillerPhrases = []string{
	"um momento",
	"um instante",
	"só um instante",
	"aguarde",
	"vou verificar",
	"vou consultar",
	"estou verificando",
	"estou consultando",
	"deixe-me verificar",
}

// Orchestrator drives the completion model through at most maxRounds
// request/tool cycles per turn.
type Orchestrator struct {
	model     llm.CompletionModel
	registry  *Registry
	maxRounds int
}

func NewOrchestrator(model llm.CompletionModel, registry *Registry, maxRounds int) *Orchestrator {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &Orchestrator{model: model, registry: registry, maxRounds: maxRounds}
}

// Run executes the loop for one turn. replay already ends with the current
// user message. The only fatal outcome is a completion transport error; tool
// failures flow back to the model as structured results.
func (o *Orchestrator) Run(ctx context.Context, sess Session, replay []*schema.Message, rec *ixc.CustomerRecord) (string, error) {
	msgs := append(SystemMessages(rec), replay...)

	lastContent := ""
	for round := 1; round <= o.maxRounds; round++ {
		out, err := o.model.Generate(ctx, msgs)
		if err != nil {
			logx.Error().Err(err).Int("round", round).Str("remote_jid", sess.RemoteJid).Msg("completion failed")
			return "", err
		}

		if len(out.ToolCalls) == 0 {
			content := strings.TrimSpace(out.Content)
			if content != "" {
				lastContent = content
			}
			if isFiller(content) && round < o.maxRounds {
				logx.Debug().Int("round", round).Msg("transitional filler, nudging model")
				msgs = append(msgs, out, schema.UserMessage(nudgePrompt))
				continue
			}
			if content == "" {
				break
			}
			return content, nil
		}

		msgs = append(msgs, out)
		for _, call := range out.ToolCalls {
			toolMsg, terminal := o.registry.Dispatch(ctx, sess, call)
			if terminal != "" {
				return terminal, nil
			}
			msgs = append(msgs, toolMsg)
		}
	}

	logx.Warn().Str("remote_jid", sess.RemoteJid).Int("max_rounds", o.maxRounds).Msg("tool loop exhausted")
	if lastContent != "" {
		return lastContent, nil
	}
	return exhaustedReply, nil
}

// isFiller reports whether content is a short transitional stall rather than
// an answer. Long replies count as answers even when they open with a filler.
func isFiller(content string) bool {
	if content == "" || len(content) > 120 {
		return false
	}
	lower := strings.ToLower(content)
	for _, phrase := range fillerPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
