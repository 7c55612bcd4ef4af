package webhook

import (
	"context"

	"github.com/cloudwego/eino/schema"

	"github.com/LucasNeuro/menogeo/internal/agent"
	"github.com/LucasNeuro/menogeo/internal/history"
	"github.com/LucasNeuro/menogeo/internal/identity"
	"github.com/LucasNeuro/menogeo/internal/intent"
	"github.com/LucasNeuro/menogeo/internal/ixc"
	"github.com/LucasNeuro/menogeo/internal/rules"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

// Turn outcome statuses reported to the webhook caller.
const (
	StatusSent         = "enviado"
	StatusAwaitingCPF  = "aguardando_cpf"
	StatusModelFailure = "falha_modelo"
	StatusSendFailure  = "falha_envio"
)

const (
	askCPFMessage = "Olá! Eu sou a Geovana, assistente virtual da G4 Telecom. 😊\n\n" +
		"Para te atender, preciso do seu CPF (apenas números). Pode me enviar, por favor?"
	modelFailureMessage = "Desculpe, estou com uma instabilidade no momento. 🙏\n\n" +
		"Pode tentar novamente em instantes ou pedir para falar com um atendente."
)

// Sender delivers the final reply to the customer.
type Sender interface {
	SendText(ctx context.Context, to, text string) error
}

// IdentityStore resolves and maintains conversation identity state.
// Implemented by identity.Store.
type IdentityStore interface {
	ResolveCPF(ctx context.Context, remoteJid string) (string, bool, error)
	BindCPF(ctx context.Context, remoteJid, cpf string) error
	Greeted(ctx context.Context, remoteJid string) bool
	MarkGreeted(ctx context.Context, remoteJid string) error
}

// HistoryStore reads and appends conversation turns. Implemented by
// history.Store.
type HistoryStore interface {
	Recent(ctx context.Context, remoteJid, cpf string, limit int) ([]*schema.Message, error)
	Append(ctx context.Context, remoteJid, cpf string, msg *schema.Message) error
}

// CustomerFetcher loads the backend snapshot. Implemented by ixc.Client.
type CustomerFetcher interface {
	FetchCustomer(ctx context.Context, remoteJid, cpf string) *ixc.CustomerRecord
}

// Classifier labels the inbound text. Implemented by intent.Classifier.
type Classifier interface {
	Classify(ctx context.Context, text string) (intent.Label, bool)
}

// Responder produces the model-driven reply. Implemented by
// agent.Orchestrator.
type Responder interface {
	Run(ctx context.Context, sess agent.Session, replay []*schema.Message, rec *ixc.CustomerRecord) (string, error)
}

// Service runs the full pipeline for one inbound message: identity
// resolution, backend snapshot, intent, rule gating, the tool loop and the
// outbound send.
type Service struct {
	identity     IdentityStore
	history      HistoryStore
	crm          CustomerFetcher
	classifier   Classifier
	orchestrator Responder
	sender       Sender
	replayWindow int
}

func NewService(
	ident IdentityStore,
	hist HistoryStore,
	crm CustomerFetcher,
	classifier Classifier,
	orchestrator Responder,
	sender Sender,
	replayWindow int,
) *Service {
	return &Service{
		identity:     ident,
		history:      hist,
		crm:          crm,
		classifier:   classifier,
		orchestrator: orchestrator,
		sender:       sender,
		replayWindow: replayWindow,
	}
}

// HandleTurn processes one customer message end to end and returns the turn
// status. Errors that already produced a customer-facing reply are not
// propagated; the webhook must acknowledge the event either way.
func (s *Service) HandleTurn(ctx context.Context, msg Inbound) string {
	log := logx.With().Str("remote_jid", msg.RemoteJid).Logger()

	cpf, ok := s.resolveCPF(ctx, msg)
	if !ok {
		if err := s.sender.SendText(ctx, msg.RemoteJid, askCPFMessage); err != nil {
			log.Error().Err(err).Msg("failed to ask for cpf")
			return StatusSendFailure
		}
		if err := s.identity.MarkGreeted(ctx, msg.RemoteJid); err != nil {
			log.Warn().Err(err).Msg("could not mark greeted")
		}
		return StatusAwaitingCPF
	}

	greeted := s.identity.Greeted(ctx, msg.RemoteJid)
	rec := s.crm.FetchCustomer(ctx, msg.RemoteJid, cpf)
	label, _ := s.classifier.Classify(ctx, msg.Text)

	reply, status := s.compose(ctx, msg, cpf, rec, label)

	final := agent.Finalize(reply, greeted, label, rec.DisplayName())

	if err := s.sender.SendText(ctx, msg.RemoteJid, final); err != nil {
		log.Error().Err(err).Msg("failed to send reply")
		return StatusSendFailure
	}
	if !greeted {
		if err := s.identity.MarkGreeted(ctx, msg.RemoteJid); err != nil {
			log.Warn().Err(err).Msg("could not mark greeted")
		}
	}

	s.remember(ctx, msg, cpf, final)
	log.Info().Str("intent", string(label)).Str("status", status).Msg("turn completed")
	return status
}

// compose picks the reply source: rule-gated canned text or the tool loop.
func (s *Service) compose(ctx context.Context, msg Inbound, cpf string, rec *ixc.CustomerRecord, label intent.Label) (string, string) {
	if canned, gated := rules.Evaluate(rec, label); gated {
		logx.Debug().Str("intent", string(label)).Msg("reply gated by contract status")
		return canned, StatusSent
	}

	turns, err := s.history.Recent(ctx, msg.RemoteJid, cpf, s.replayWindow)
	if err != nil {
		logx.Warn().Err(err).Msg("history unavailable, replying without context")
		turns = nil
	}
	replay := history.ReplayWindow(history.FilterForIntent(turns, label), msg.Text, s.replayWindow)

	sess := agent.Session{RemoteJid: msg.RemoteJid, CPF: cpf, Message: msg.Text}
	reply, err := s.orchestrator.Run(ctx, sess, replay, rec)
	if err != nil {
		return modelFailureMessage, StatusModelFailure
	}
	return reply, StatusSent
}

// resolveCPF applies the binding rules: a CPF in the message always wins and
// rebinds the conversation; otherwise the active binding is used.
func (s *Service) resolveCPF(ctx context.Context, msg Inbound) (string, bool) {
	if extracted := identity.ExtractCPF(msg.Text); extracted != "" {
		if err := s.identity.BindCPF(ctx, msg.RemoteJid, extracted); err != nil {
			logx.Error().Err(err).Str("remote_jid", msg.RemoteJid).Msg("failed to bind cpf")
		}
		return extracted, true
	}

	cpf, bound, err := s.identity.ResolveCPF(ctx, msg.RemoteJid)
	if err != nil {
		logx.Error().Err(err).Str("remote_jid", msg.RemoteJid).Msg("binding lookup failed")
		return "", false
	}
	return cpf, bound
}

// remember appends the turn pair. The store's denylist decides what survives.
func (s *Service) remember(ctx context.Context, msg Inbound, cpf, reply string) {
	if err := s.history.Append(ctx, msg.RemoteJid, cpf, schema.UserMessage(msg.Text)); err != nil {
		logx.Warn().Err(err).Msg("could not store user turn")
	}
	if err := s.history.Append(ctx, msg.RemoteJid, cpf, schema.AssistantMessage(reply, nil)); err != nil {
		logx.Warn().Err(err).Msg("could not store assistant turn")
	}
}
