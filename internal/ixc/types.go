// Package ixc is the gateway to the IXC CRM/billing backend. Records are
// fetched by CPF, cached as point-in-time snapshots and replaced whole on
// refetch, never merged.
package ixc

// Cliente holds the customer profile as returned by the IXC consultation.
type Cliente struct {
	ID                string `json:"id,omitempty"`
	RazaoSocial       string `json:"razao_social,omitempty"`
	Celular           string `json:"celular,omitempty"`
	Whatsapp          string `json:"whatsapp,omitempty"`
	Endereco          string `json:"endereco,omitempty"`
	Obs               string `json:"obs,omitempty"`
	UltimaAtualizacao string `json:"ultima_atualizacao,omitempty"`
}

// Contrato is one contract row. Status fields drive the business rules.
type Contrato struct {
	ID                        string `json:"id,omitempty"`
	Contrato                  string `json:"contrato,omitempty"`
	StatusContrato            string `json:"status_contrato,omitempty"`
	StatusInternet            string `json:"status_internet,omitempty"`
	DesbloqueioConfiancaAtivo bool   `json:"desbloqueio_confianca_ativo,omitempty"`
	Endereco                  string `json:"endereco,omitempty"`
	Numero                    string `json:"numero,omitempty"`
	Bairro                    string `json:"bairro,omitempty"`
	CEP                       string `json:"cep,omitempty"`
}

// Contratos groups the active contracts, matching the backend payload shape.
type Contratos struct {
	ContratosAtivos []Contrato `json:"contratosAtivos,omitempty"`
}

// Boleto is one billing statement with its payment handles.
type Boleto struct {
	ID             string `json:"id,omitempty"`
	Valor          string `json:"valor,omitempty"`
	DataVencimento string `json:"data_vencimento,omitempty"`
	LinhaDigitavel string `json:"linha_digitavel,omitempty"`
	URLPDF         string `json:"url_pdf,omitempty"`
	PixCopiaCola   string `json:"pix_copia_cola,omitempty"`
}

// Login carries session telemetry for the customer's connection.
type Login struct {
	Online               bool   `json:"online,omitempty"`
	TempoConectado       string `json:"tempo_conectado,omitempty"`
	UltimaConexaoInicial string `json:"ultima_conexao_inicial,omitempty"`
}

// OS is an open service ticket.
type OS struct {
	ID       string `json:"id,omitempty"`
	Assunto  string `json:"assunto,omitempty"`
	Status   string `json:"status,omitempty"`
	Abertura string `json:"abertura,omitempty"`
}

// CustomerRecord is the whole backend snapshot for one CPF. Erro is set in
// place of data when the backend call failed; callers treat it as "no data",
// never as a fatal condition.
type CustomerRecord struct {
	Cliente   Cliente   `json:"cliente,omitempty"`
	Contratos Contratos `json:"contratos,omitempty"`
	Boletos   []Boleto  `json:"boletos,omitempty"`
	Login     Login     `json:"login,omitempty"`
	OS        []OS      `json:"OS,omitempty"`

	Erro string `json:"erro,omitempty"`
}

// Failed reports whether the record carries a structured error instead of data.
func (r *CustomerRecord) Failed() bool {
	return r != nil && r.Erro != ""
}

// PrimaryContract returns the first active contract, or a zero value when the
// backend returned none.
func (r *CustomerRecord) PrimaryContract() Contrato {
	if r == nil || len(r.Contratos.ContratosAtivos) == 0 {
		return Contrato{}
	}
	return r.Contratos.ContratosAtivos[0]
}

// DisplayName returns the customer's name for greetings, empty when unknown.
func (r *CustomerRecord) DisplayName() string {
	if r == nil {
		return ""
	}
	return r.Cliente.RazaoSocial
}
