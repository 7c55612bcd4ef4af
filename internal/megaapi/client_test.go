package megaapi

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

func testClient(url string, retries int) *Client {
	c := NewClient(config.MegaAPIConfig{
		URL:          url,
		Token:        "tok-123",
		InstanceKey:  "inst-1",
		Timeout:      time.Second,
		MaxRetries:   retries,
		RetryBackoff: 2 * time.Second,
	})
	c.sleep = func(time.Duration) {}
	return c
}

func TestSendText(t *testing.T) {
	var got sendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sendMessage/inst-1/text" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer tok-123" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Error(err)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	if err := c.SendText(context.Background(), "5511999998888@s.whatsapp.net", "Olá!"); err != nil {
		t.Fatal(err)
	}

	if got.MessageData.To != "5511999998888" {
		t.Errorf("channel suffix not stripped: %q", got.MessageData.To)
	}
	if got.MessageData.Text != "Olá!" {
		t.Errorf("text = %q", got.MessageData.Text)
	}
	if got.MessageData.LinkPreview {
		t.Error("link preview must stay disabled")
	}
}

func TestSendTextRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	if err := c.SendText(context.Background(), "5511999998888", "oi"); err != nil {
		t.Fatal(err)
	}
	if hits.Load() != 3 {
		t.Fatalf("gateway hit %d times, want 3", hits.Load())
	}
}

func TestSendTextGivesUpAfterMaxRetries(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(srv.URL, 3)
	if err := c.SendText(context.Background(), "5511999998888", "oi"); err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if hits.Load() != 3 {
		t.Fatalf("gateway hit %d times, want 3", hits.Load())
	}
}
