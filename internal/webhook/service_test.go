package webhook

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"

	"github.com/LucasNeuro/menogeo/internal/agent"
	"github.com/LucasNeuro/menogeo/internal/intent"
	"github.com/LucasNeuro/menogeo/internal/ixc"
)

type fakeIdentity struct {
	cpf     string
	greeted bool

	boundCPF      string
	markedGreeted bool
}

func (f *fakeIdentity) ResolveCPF(context.Context, string) (string, bool, error) {
	return f.cpf, f.cpf != "", nil
}
func (f *fakeIdentity) BindCPF(_ context.Context, _, cpf string) error {
	f.boundCPF = cpf
	return nil
}
func (f *fakeIdentity) Greeted(context.Context, string) bool { return f.greeted }
func (f *fakeIdentity) MarkGreeted(context.Context, string) error {
	f.markedGreeted = true
	return nil
}

type fakeHistory struct {
	turns    []*schema.Message
	appended []*schema.Message
}

func (f *fakeHistory) Recent(context.Context, string, string, int) ([]*schema.Message, error) {
	return f.turns, nil
}
func (f *fakeHistory) Append(_ context.Context, _, _ string, msg *schema.Message) error {
	f.appended = append(f.appended, msg)
	return nil
}

type fakeFetcher struct{ rec *ixc.CustomerRecord }

func (f *fakeFetcher) FetchCustomer(context.Context, string, string) *ixc.CustomerRecord {
	return f.rec
}

type fakeClassifier struct{ label intent.Label }

func (f *fakeClassifier) Classify(context.Context, string) (intent.Label, bool) {
	return f.label, f.label != ""
}

type fakeResponder struct {
	reply string
	err   error

	sess   agent.Session
	replay []*schema.Message
}

func (f *fakeResponder) Run(_ context.Context, sess agent.Session, replay []*schema.Message, _ *ixc.CustomerRecord) (string, error) {
	f.sess = sess
	f.replay = replay
	return f.reply, f.err
}

type fakeSender struct {
	sent []string
	err  error
}

func (f *fakeSender) SendText(_ context.Context, _, text string) error {
	f.sent = append(f.sent, text)
	return f.err
}

func activeRecord() *ixc.CustomerRecord {
	return &ixc.CustomerRecord{
		Cliente: ixc.Cliente{RazaoSocial: "Maria Silva"},
		Contratos: ixc.Contratos{ContratosAtivos: []ixc.Contrato{{
			StatusContrato: "Ativo",
			StatusInternet: "Ativo",
		}}},
	}
}

type pipeline struct {
	identity  *fakeIdentity
	history   *fakeHistory
	responder *fakeResponder
	sender    *fakeSender
	svc       *Service
}

func newPipeline(ident *fakeIdentity, rec *ixc.CustomerRecord, label intent.Label, responder *fakeResponder) *pipeline {
	p := &pipeline{
		identity:  ident,
		history:   &fakeHistory{},
		responder: responder,
		sender:    &fakeSender{},
	}
	p.svc = NewService(ident, p.history, &fakeFetcher{rec: rec}, &fakeClassifier{label: label}, responder, p.sender, 10)
	return p
}

var inbound = Inbound{RemoteJid: "5511999998888@s.whatsapp.net", Text: "quero meu boleto"}

func TestHandleTurnHappyPath(t *testing.T) {
	p := newPipeline(
		&fakeIdentity{cpf: "12345678901", greeted: true},
		activeRecord(),
		intent.ConsultaBoleto,
		&fakeResponder{reply: "Seu boleto vence dia 10."},
	)

	status := p.svc.HandleTurn(context.Background(), inbound)
	if status != StatusSent {
		t.Fatalf("status = %q", status)
	}
	if len(p.sender.sent) != 1 || !strings.Contains(p.sender.sent[0], "Seu boleto vence dia 10.") {
		t.Fatalf("sent = %v", p.sender.sent)
	}
	if p.responder.sess.CPF != "12345678901" {
		t.Fatalf("session cpf = %q", p.responder.sess.CPF)
	}
	if len(p.history.appended) != 2 {
		t.Fatalf("appended %d turns, want user+assistant", len(p.history.appended))
	}
}

func TestHandleTurnAsksForCPF(t *testing.T) {
	p := newPipeline(&fakeIdentity{}, activeRecord(), "", &fakeResponder{})

	msg := Inbound{RemoteJid: inbound.RemoteJid, Text: "oi, tudo bem?"}
	status := p.svc.HandleTurn(context.Background(), msg)
	if status != StatusAwaitingCPF {
		t.Fatalf("status = %q", status)
	}
	if len(p.sender.sent) != 1 || !strings.Contains(p.sender.sent[0], "CPF") {
		t.Fatalf("sent = %v", p.sender.sent)
	}
	if !p.identity.markedGreeted {
		t.Fatal("the cpf request doubles as the greeting")
	}
	if p.responder.sess.CPF != "" {
		t.Fatal("responder must not run without a cpf")
	}
}

func TestHandleTurnBindsCPFFromMessage(t *testing.T) {
	ident := &fakeIdentity{cpf: "00000000000", greeted: true}
	p := newPipeline(ident, activeRecord(), "", &fakeResponder{reply: "Pronto!"})

	msg := Inbound{RemoteJid: inbound.RemoteJid, Text: "meu cpf é 123.456.789-01"}
	if status := p.svc.HandleTurn(context.Background(), msg); status != StatusSent {
		t.Fatalf("status = %q", status)
	}
	if ident.boundCPF != "12345678901" {
		t.Fatalf("bound cpf = %q, message cpf must rebind", ident.boundCPF)
	}
	if p.responder.sess.CPF != "12345678901" {
		t.Fatalf("session cpf = %q", p.responder.sess.CPF)
	}
}

func TestHandleTurnRuleGateSkipsModel(t *testing.T) {
	rec := activeRecord()
	rec.Contratos.ContratosAtivos[0].StatusContrato = "Bloqueado"
	responder := &fakeResponder{reply: "nunca"}
	p := newPipeline(&fakeIdentity{cpf: "12345678901", greeted: true}, rec, intent.ConsultaBoleto, responder)

	if status := p.svc.HandleTurn(context.Background(), inbound); status != StatusSent {
		t.Fatalf("status = %q", status)
	}
	if responder.sess.CPF != "" {
		t.Fatal("gated turn must not reach the model")
	}
	if len(p.sender.sent) != 1 || !strings.Contains(p.sender.sent[0], "pendência") {
		t.Fatalf("sent = %v", p.sender.sent)
	}
}

func TestHandleTurnModelFailure(t *testing.T) {
	p := newPipeline(
		&fakeIdentity{cpf: "12345678901", greeted: true},
		activeRecord(),
		intent.ConsultaBoleto,
		&fakeResponder{err: errors.New("transport down")},
	)

	if status := p.svc.HandleTurn(context.Background(), inbound); status != StatusModelFailure {
		t.Fatalf("status = %q", status)
	}
	if len(p.sender.sent) != 1 || !strings.Contains(p.sender.sent[0], "instabilidade") {
		t.Fatalf("an apology must still go out, sent = %v", p.sender.sent)
	}
}

func TestHandleTurnSendFailure(t *testing.T) {
	p := newPipeline(
		&fakeIdentity{cpf: "12345678901"},
		activeRecord(),
		intent.ConsultaBoleto,
		&fakeResponder{reply: "ok"},
	)
	p.sender.err = errors.New("gateway down")

	if status := p.svc.HandleTurn(context.Background(), inbound); status != StatusSendFailure {
		t.Fatalf("status = %q", status)
	}
	if p.identity.markedGreeted {
		t.Fatal("greeted flag must not be set when the greeting never went out")
	}
}

func TestHandleTurnFirstContactGreetsOnce(t *testing.T) {
	ident := &fakeIdentity{cpf: "12345678901", greeted: false}
	p := newPipeline(ident, activeRecord(), intent.Cumprimento, &fakeResponder{reply: "Tudo bem!"})

	if status := p.svc.HandleTurn(context.Background(), inbound); status != StatusSent {
		t.Fatalf("status = %q", status)
	}
	if !strings.Contains(p.sender.sent[0], "Geovana") {
		t.Fatalf("first contact must introduce the assistant: %q", p.sender.sent[0])
	}
	if !ident.markedGreeted {
		t.Fatal("greeted flag must be set after the greeting goes out")
	}
}

func TestHandleTurnFiltersReplay(t *testing.T) {
	p := newPipeline(
		&fakeIdentity{cpf: "12345678901", greeted: true},
		activeRecord(),
		intent.ConsultaBoleto,
		&fakeResponder{reply: "ok"},
	)
	p.history.turns = []*schema.Message{
		schema.UserMessage("minha internet caiu"),
		schema.UserMessage("quero o boleto de setembro"),
	}

	p.svc.HandleTurn(context.Background(), inbound)

	for _, turn := range p.responder.replay {
		if strings.Contains(turn.Content, "internet caiu") {
			t.Fatalf("off-intent turn leaked into replay: %q", turn.Content)
		}
	}
	last := p.responder.replay[len(p.responder.replay)-1]
	if last.Role != schema.User || last.Content != inbound.Text {
		t.Fatalf("replay must end with the current message, got %+v", last)
	}
}
