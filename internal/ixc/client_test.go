package ixc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LucasNeuro/menogeo/internal/config"
)

type memCache struct {
	recs map[string]*CustomerRecord
}

func newMemCache() *memCache { return &memCache{recs: map[string]*CustomerRecord{}} }

func (c *memCache) LoadRecord(_ context.Context, remoteJid, cpf string) (*CustomerRecord, bool, error) {
	rec, ok := c.recs[remoteJid+":"+cpf]
	return rec, ok, nil
}

func (c *memCache) SaveRecord(_ context.Context, remoteJid, cpf string, rec *CustomerRecord) error {
	c.recs[remoteJid+":"+cpf] = rec
	return nil
}

func activeRecord() *CustomerRecord {
	return &CustomerRecord{
		Cliente: Cliente{RazaoSocial: "Maria Silva"},
		Contratos: Contratos{ContratosAtivos: []Contrato{{
			Contrato:       "Fibra 500MB",
			StatusContrato: "Ativo",
			StatusInternet: "Ativo",
		}}},
		Boletos: []Boleto{
			{Valor: "99,90", DataVencimento: "2026-10-10"},
			{Valor: "99,90", DataVencimento: "2026-09-10"},
			{Valor: "99,90", DataVencimento: "2026-12-10"},
			{Valor: "99,90", DataVencimento: "2026-11-10"},
		},
		Login: Login{Online: true},
	}
}

func TestFetchCustomerCachesSnapshot(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Error(err)
		}
		if req["cpf"] != "12345678901" {
			t.Errorf("backend received cpf %q", req["cpf"])
		}
		json.NewEncoder(w).Encode(activeRecord())
	}))
	defer srv.Close()

	c := NewClient(config.IXCConfig{URL: srv.URL, FetchTimeout: 5 * time.Second, NarrowTimeout: time.Second}, newMemCache())

	rec := c.FetchCustomer(context.Background(), "jid", "12345678901")
	if rec.Failed() {
		t.Fatalf("fetch failed: %s", rec.Erro)
	}
	if rec.DisplayName() != "Maria Silva" {
		t.Fatalf("unexpected record: %+v", rec)
	}

	c.FetchCustomer(context.Background(), "jid", "12345678901")
	if hits.Load() != 1 {
		t.Fatalf("backend hit %d times, cache must absorb the second call", hits.Load())
	}
}

func TestFetchCustomerTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	c := NewClient(config.IXCConfig{URL: srv.URL, FetchTimeout: 20 * time.Millisecond}, newMemCache())

	rec := c.FetchCustomer(context.Background(), "jid", "12345678901")
	if !rec.Failed() {
		t.Fatal("expected a failed record")
	}
	if rec.Erro != "Timeout ao consultar IXC" {
		t.Fatalf("unexpected erro: %q", rec.Erro)
	}
}

func TestFetchCustomerBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cache := newMemCache()
	c := NewClient(config.IXCConfig{URL: srv.URL, FetchTimeout: time.Second}, cache)

	rec := c.FetchCustomer(context.Background(), "jid", "12345678901")
	if !rec.Failed() {
		t.Fatal("expected a failed record")
	}
	if len(cache.recs) != 0 {
		t.Fatal("failed records must never be cached")
	}
}

func TestBoletosProjection(t *testing.T) {
	cache := newMemCache()
	cache.SaveRecord(context.Background(), "jid", "12345678901", activeRecord())
	c := NewClient(config.IXCConfig{URL: "http://ixc.invalid"}, cache)

	out := c.Boletos(context.Background(), "jid", "12345678901")
	res, ok := out.(*BoletosResult)
	if !ok {
		t.Fatalf("unexpected projection type %T", out)
	}
	if len(res.Boletos) != 3 {
		t.Fatalf("projection has %d boletos, want 3", len(res.Boletos))
	}
	want := []string{"2026-09-10", "2026-10-10", "2026-11-10"}
	for i, due := range want {
		if res.Boletos[i].DataVencimento != due {
			t.Errorf("boletos[%d] due %q, want %q", i, res.Boletos[i].DataVencimento, due)
		}
	}
	if res.StatusContrato != "Ativo" {
		t.Errorf("status = %q", res.StatusContrato)
	}
}

func TestBoletosFallsBackToWholeRecord(t *testing.T) {
	rec := activeRecord()
	rec.Boletos = nil
	cache := newMemCache()
	cache.SaveRecord(context.Background(), "jid", "12345678901", rec)
	c := NewClient(config.IXCConfig{URL: "http://ixc.invalid"}, cache)

	out := c.Boletos(context.Background(), "jid", "12345678901")
	if _, ok := out.(*CustomerRecord); !ok {
		t.Fatalf("missing sub-key must return the whole record, got %T", out)
	}
}

func TestStatusPlanoProjection(t *testing.T) {
	cache := newMemCache()
	cache.SaveRecord(context.Background(), "jid", "12345678901", activeRecord())
	c := NewClient(config.IXCConfig{URL: "http://ixc.invalid"}, cache)

	out := c.StatusPlano(context.Background(), "jid", "12345678901")
	res, ok := out.(*StatusPlanoResult)
	if !ok {
		t.Fatalf("unexpected projection type %T", out)
	}
	if res.StatusContrato != "Ativo" || res.StatusInternet != "Ativo" || !res.LoginOnline {
		t.Fatalf("unexpected projection: %+v", res)
	}
}

func TestOpenTicket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/abrirOS" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req map[string]string
		json.NewDecoder(r.Body).Decode(&req)
		if req["cpf"] != "12345678901" || req["motivo"] == "" {
			t.Errorf("unexpected ticket payload: %v", req)
		}
		w.Write([]byte("{}"))
	}))
	defer srv.Close()

	c := NewClient(config.IXCConfig{URL: srv.URL, FetchTimeout: time.Second, NarrowTimeout: time.Second}, newMemCache())

	res := c.OpenTicket(context.Background(), "12345678901", "internet lenta")
	if res.Status != "os_aberta" || res.Erro != "" {
		t.Fatalf("unexpected result: %+v", res)
	}
}
