package ixc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"

	"github.com/LucasNeuro/menogeo/internal/config"
	logx "github.com/LucasNeuro/menogeo/pkg/logger"
)

// RecordCache is the snapshot cache consulted before any network call.
// Implemented by identity.Store.
type RecordCache interface {
	LoadRecord(ctx context.Context, remoteJid, cpf string) (*CustomerRecord, bool, error)
	SaveRecord(ctx context.Context, remoteJid, cpf string, rec *CustomerRecord) error
}

// Client fetches customer records from the IXC consultation endpoint.
// All failures come back as records with Erro set; the tool-calling loop must
// keep running on backend trouble, so nothing here returns a user-fatal error.
type Client struct {
	cfg   config.IXCConfig
	cache RecordCache
	http  *http.Client
}

func NewClient(cfg config.IXCConfig, cache RecordCache) *Client {
	return &Client{
		cfg:   cfg,
		cache: cache,
		// Per-call deadlines come from contexts; the client timeout is the
		// hard upper bound for the full-record fetch.
		http: &http.Client{Timeout: cfg.FetchTimeout},
	}
}

// FetchCustomer returns the snapshot for cpf, consulting the cache first and
// populating it on a successful network fetch. Repeated tool calls within one
// conversation turn therefore hit the backend at most once.
func (c *Client) FetchCustomer(ctx context.Context, remoteJid, cpf string) *CustomerRecord {
	if rec, ok, err := c.cache.LoadRecord(ctx, remoteJid, cpf); err == nil && ok {
		logx.Debug().Str("remote_jid", remoteJid).Msg("ixc cache hit")
		return rec
	}

	rec := c.post(ctx, c.cfg.URL, map[string]string{"cpf": cpf})
	if rec.Failed() {
		return rec
	}

	if err := c.cache.SaveRecord(ctx, remoteJid, cpf, rec); err != nil {
		logx.Warn().Err(err).Str("remote_jid", remoteJid).Msg("could not cache ixc record")
	}
	return rec
}

// post performs one backend call and normalizes every failure mode into a
// structured Erro record.
func (c *Client) post(ctx context.Context, url string, payload any) *CustomerRecord {
	body, err := json.Marshal(payload)
	if err != nil {
		return &CustomerRecord{Erro: fmt.Sprintf("erro ao montar consulta: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &CustomerRecord{Erro: fmt.Sprintf("erro ao montar consulta: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			logx.Warn().Str("url", url).Msg("ixc request timed out")
			return &CustomerRecord{Erro: "Timeout ao consultar IXC"}
		}
		logx.Error().Err(err).Str("url", url).Msg("ixc request failed")
		return &CustomerRecord{Erro: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &CustomerRecord{Erro: fmt.Sprintf("IXC respondeu %d", resp.StatusCode)}
	}

	var rec CustomerRecord
	if err := json.NewDecoder(resp.Body).Decode(&rec); err != nil {
		return &CustomerRecord{Erro: fmt.Sprintf("resposta IXC inválida: %v", err)}
	}
	return &rec
}

func isTimeout(err error) bool {
	type timeouter interface{ Timeout() bool }
	var t timeouter
	return errors.As(err, &t) && t.Timeout()
}

// BoletosResult is the narrow billing projection: the next statements to come
// due, with contract status for rule gating.
type BoletosResult struct {
	StatusContrato string   `json:"status_contrato,omitempty"`
	LoginOnline    bool     `json:"login_online,omitempty"`
	Boletos        []Boleto `json:"boletos,omitempty"`
	Erro           string   `json:"erro,omitempty"`
}

// Boletos returns the three next statements by due date. When the snapshot
// carries no billing sub-key the whole record is handed to the model instead,
// keeping the caller resilient to backend schema drift.
func (c *Client) Boletos(ctx context.Context, remoteJid, cpf string) any {
	rec := c.FetchCustomer(ctx, remoteJid, cpf)
	if rec.Failed() {
		return &BoletosResult{Erro: rec.Erro}
	}
	if len(rec.Boletos) == 0 {
		return rec
	}

	boletos := make([]Boleto, len(rec.Boletos))
	copy(boletos, rec.Boletos)
	sort.SliceStable(boletos, func(i, j int) bool {
		return boletos[i].DataVencimento < boletos[j].DataVencimento
	})
	if len(boletos) > 3 {
		boletos = boletos[:3]
	}

	return &BoletosResult{
		StatusContrato: rec.PrimaryContract().StatusContrato,
		LoginOnline:    rec.Login.Online,
		Boletos:        boletos,
	}
}

// StatusPlanoResult is the narrow plan-status projection.
type StatusPlanoResult struct {
	StatusContrato            string `json:"status_contrato,omitempty"`
	StatusInternet            string `json:"status_internet,omitempty"`
	DesbloqueioConfiancaAtivo bool   `json:"desbloqueio_confianca_ativo,omitempty"`
	Obs                       string `json:"obs,omitempty"`
	LoginOnline               bool   `json:"login_online,omitempty"`
	TempoConectado            string `json:"tempo_conectado,omitempty"`
	UltimaConexaoInicial      string `json:"ultima_conexao_inicial,omitempty"`
	Erro                      string `json:"erro,omitempty"`
}

// StatusPlano returns contract and connection status for the customer.
func (c *Client) StatusPlano(ctx context.Context, remoteJid, cpf string) any {
	rec := c.FetchCustomer(ctx, remoteJid, cpf)
	if rec.Failed() {
		return &StatusPlanoResult{Erro: rec.Erro}
	}
	if len(rec.Contratos.ContratosAtivos) == 0 {
		return rec
	}

	contrato := rec.PrimaryContract()
	return &StatusPlanoResult{
		StatusContrato:            contrato.StatusContrato,
		StatusInternet:            contrato.StatusInternet,
		DesbloqueioConfiancaAtivo: contrato.DesbloqueioConfiancaAtivo,
		Obs:                       rec.Cliente.Obs,
		LoginOnline:               rec.Login.Online,
		TempoConectado:            rec.Login.TempoConectado,
		UltimaConexaoInicial:      rec.Login.UltimaConexaoInicial,
	}
}

// CadastroResult is the narrow registration projection.
type CadastroResult struct {
	RazaoSocial       string `json:"razao_social,omitempty"`
	Celular           string `json:"celular,omitempty"`
	Whatsapp          string `json:"whatsapp,omitempty"`
	UltimaAtualizacao string `json:"ultima_atualizacao,omitempty"`
	Endereco          string `json:"endereco,omitempty"`
	Numero            string `json:"numero,omitempty"`
	Bairro            string `json:"bairro,omitempty"`
	CEP               string `json:"cep,omitempty"`
	Erro              string `json:"erro,omitempty"`
}

// Cadastro returns the registration data projection.
func (c *Client) Cadastro(ctx context.Context, remoteJid, cpf string) any {
	rec := c.FetchCustomer(ctx, remoteJid, cpf)
	if rec.Failed() {
		return &CadastroResult{Erro: rec.Erro}
	}
	if rec.Cliente.RazaoSocial == "" {
		return rec
	}

	contrato := rec.PrimaryContract()
	return &CadastroResult{
		RazaoSocial:       rec.Cliente.RazaoSocial,
		Celular:           rec.Cliente.Celular,
		Whatsapp:          rec.Cliente.Whatsapp,
		UltimaAtualizacao: rec.Cliente.UltimaAtualizacao,
		Endereco:          contrato.Endereco,
		Numero:            contrato.Numero,
		Bairro:            contrato.Bairro,
		CEP:               contrato.CEP,
	}
}

// ValorPlanoResult is the narrow plan-value projection.
type ValorPlanoResult struct {
	Contrato       string `json:"contrato,omitempty"`
	Valor          string `json:"valor,omitempty"`
	StatusContrato string `json:"status_contrato,omitempty"`
	LoginOnline    bool   `json:"login_online,omitempty"`
	Erro           string `json:"erro,omitempty"`
}

// ValorPlano returns the plan name and its billed value.
func (c *Client) ValorPlano(ctx context.Context, remoteJid, cpf string) any {
	rec := c.FetchCustomer(ctx, remoteJid, cpf)
	if rec.Failed() {
		return &ValorPlanoResult{Erro: rec.Erro}
	}
	if len(rec.Contratos.ContratosAtivos) == 0 && len(rec.Boletos) == 0 {
		return rec
	}

	valor := ""
	if len(rec.Boletos) > 0 {
		valor = rec.Boletos[0].Valor
	}
	return &ValorPlanoResult{
		Contrato:       rec.PrimaryContract().Contrato,
		Valor:          valor,
		StatusContrato: rec.PrimaryContract().StatusContrato,
		LoginOnline:    rec.Login.Online,
	}
}

// TicketResult reports a service-ticket creation.
type TicketResult struct {
	Status string `json:"status,omitempty"`
	Motivo string `json:"motivo,omitempty"`
	Erro   string `json:"erro,omitempty"`
}

// OpenTicket opens a service order for the customer. The narrow timeout
// applies; failures are structured, not raised.
func (c *Client) OpenTicket(ctx context.Context, cpf, motivo string) *TicketResult {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.NarrowTimeout)
	defer cancel()

	rec := c.post(ctx, c.cfg.URL+"/abrirOS", map[string]string{"cpf": cpf, "motivo": motivo})
	if rec.Failed() {
		return &TicketResult{Erro: rec.Erro}
	}
	return &TicketResult{Status: "os_aberta", Motivo: motivo}
}
