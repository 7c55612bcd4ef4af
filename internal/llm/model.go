// Package llm provides the pluggable completion backends driving the agent.
// Two providers are wired: Google Gemini (via Eino) and any OpenAI-compatible
// chat-completions endpoint such as Mistral agent completions.
package llm

import (
	"context"

	"github.com/cloudwego/eino/schema"
)

// CompletionModel is one blocking completion call with the full message list.
// Tools are bound at construction; the orchestrator drives the tool-call loop.
type CompletionModel interface {
	Generate(ctx context.Context, messages []*schema.Message) (*schema.Message, error)
}

// ToolSpec declares one callable tool in a provider-neutral form.
type ToolSpec struct {
	Name   string
	Desc   string
	Params map[string]*schema.ParameterInfo
}

// Info converts the spec into the Eino tool schema used by Gemini binding.
func (t ToolSpec) Info() *schema.ToolInfo {
	return &schema.ToolInfo{
		Name:        t.Name,
		Desc:        t.Desc,
		ParamsOneOf: schema.NewParamsOneOfByParams(t.Params),
	}
}

// Infos maps a tool list to Eino tool schemas.
func Infos(specs []ToolSpec) []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(specs))
	for _, s := range specs {
		infos = append(infos, s.Info())
	}
	return infos
}
