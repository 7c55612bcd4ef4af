package rules

import (
	"strings"
	"testing"

	"github.com/LucasNeuro/menogeo/internal/intent"
	"github.com/LucasNeuro/menogeo/internal/ixc"
)

func record(statusContrato, statusInternet string) *ixc.CustomerRecord {
	return &ixc.CustomerRecord{
		Contratos: ixc.Contratos{ContratosAtivos: []ixc.Contrato{{
			StatusContrato: statusContrato,
			StatusInternet: statusInternet,
		}}},
	}
}

func TestEvaluateBoletoGating(t *testing.T) {
	if _, gated := Evaluate(record("Ativo", "Ativo"), intent.ConsultaBoleto); gated {
		t.Fatal("active contract must not be gated")
	}

	msg, gated := Evaluate(record("Bloqueado", "Bloqueado"), intent.ConsultaBoleto)
	if !gated {
		t.Fatal("blocked contract must be gated for boleto")
	}
	if !strings.Contains(msg, "pendência") {
		t.Errorf("unexpected gated message: %q", msg)
	}
}

func TestEvaluateValorPlanoGating(t *testing.T) {
	if _, gated := Evaluate(record("Inativo", ""), intent.ConsultaValorPlano); !gated {
		t.Fatal("inactive contract must be gated for valor_plano")
	}
}

func TestEvaluateSemInternet(t *testing.T) {
	msg, gated := Evaluate(record("Bloqueado", "Desativado"), intent.EstouSemInternet)
	if !gated || !strings.Contains(msg, "bloqueado") {
		t.Fatalf("blocked contract: (%q, %v)", msg, gated)
	}

	msg, gated = Evaluate(record("Ativo", "Desativado"), intent.EstouSemInternet)
	if !gated || !strings.Contains(msg, "ordem de serviço") {
		t.Fatalf("inactive connection: (%q, %v)", msg, gated)
	}

	if _, gated = Evaluate(record("Ativo", "Ativo"), intent.EstouSemInternet); gated {
		t.Fatal("healthy connection must not be gated")
	}
}

func TestEvaluateUngatedIntents(t *testing.T) {
	rec := record("Bloqueado", "Bloqueado")
	for _, label := range []intent.Label{intent.ConsultaStatusPlano, intent.ConsultaDadosCadastro, intent.AbrirOS, intent.Cumprimento, ""} {
		if _, gated := Evaluate(rec, label); gated {
			t.Errorf("intent %q must never be gated", label)
		}
	}
}

func TestEvaluateSkipsFailedRecords(t *testing.T) {
	if _, gated := Evaluate(&ixc.CustomerRecord{Erro: "Timeout ao consultar IXC"}, intent.ConsultaBoleto); gated {
		t.Fatal("failed record must not be gated")
	}
	if _, gated := Evaluate(nil, intent.ConsultaBoleto); gated {
		t.Fatal("nil record must not be gated")
	}
}
