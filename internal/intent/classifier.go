package intent

import (
	"context"
	"strings"

	"github.com/cloudwego/eino/schema"

	"github.com/LucasNeuro/menogeo/internal/llm"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

// classifierPrompt offers exactly the closed Labels set, one source of truth
// with the normalizer.
var classifierPrompt = "Você classifica mensagens de clientes de um provedor de internet.\n" +
	"Responda com exatamente um dos rótulos abaixo, sem qualquer outro texto:\n" +
	labelList()

func labelList() string {
	names := make([]string, len(Labels))
	for i, label := range Labels {
		names[i] = string(label)
	}
	return strings.Join(names, ", ")
}

// Classifier maps free text to a canonical intent label.
type Classifier struct {
	model llm.CompletionModel
}

func NewClassifier(model llm.CompletionModel) *Classifier {
	return &Classifier{model: model}
}

// Classify returns the detected label, or absent when the model fails, emits
// an unknown tag, or answers "outra". Absent means "ask the user to clarify";
// it is never a fatal condition for the request.
func (c *Classifier) Classify(ctx context.Context, text string) (Label, bool) {
	messages := []*schema.Message{
		schema.SystemMessage(classifierPrompt),
		schema.UserMessage(text),
	}

	out, err := c.model.Generate(ctx, messages)
	if err != nil {
		logx.Warn().Err(err).Msg("intent classification failed")
		return "", false
	}

	label, ok := Normalize(out.Content)
	if !ok {
		logx.Debug().Str("raw", strings.TrimSpace(out.Content)).Msg("intent not recognized")
		return "", false
	}

	logx.Debug().Str("intent", string(label)).Msg("intent classified")
	return label, true
}
