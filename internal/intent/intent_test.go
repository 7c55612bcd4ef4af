package intent

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		raw    string
		want   Label
		wantOK bool
	}{
		{"consulta_boleto", ConsultaBoleto, true},
		{" Consulta_Boleto \n", ConsultaBoleto, true},
		{"o cliente quer o boleto", ConsultaBoleto, true},
		{"estou_sem_internet", EstouSemInternet, true},
		{"cliente sem internet", EstouSemInternet, true},
		{"consulta_valor_plano", ConsultaValorPlano, true},
		{"consulta_status_plano", ConsultaStatusPlano, true},
		{"consulta_dados_cadastro", ConsultaDadosCadastro, true},
		{"abrir_os", AbrirOS, true},
		{"transferir_para_humano", TransferirParaHumano, true},
		{"cumprimento", Cumprimento, true},
		{"outra", "", false},
		{"", "", false},
		{"nada a ver", "", false},
	}
	for _, tc := range cases {
		got, ok := Normalize(tc.raw)
		if got != tc.want || ok != tc.wantOK {
			t.Errorf("Normalize(%q) = (%q, %v), want (%q, %v)", tc.raw, got, ok, tc.want, tc.wantOK)
		}
	}
}

// sem_internet must win over status/plano keywords appearing in the same tag.
func TestNormalizePriority(t *testing.T) {
	got, ok := Normalize("status do plano: sem internet")
	if !ok || got != EstouSemInternet {
		t.Fatalf("Normalize = (%q, %v), want (%q, true)", got, ok, EstouSemInternet)
	}
}
