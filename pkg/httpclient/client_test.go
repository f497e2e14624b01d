package httpclient

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"stream-scout-go/pkg/config"
	"stream-scout-go/pkg/logging"
)

func newTestClient(proxy string) *Client {
	log := logging.New("debug", false, io.Discard)
	cfg := &config.Config{Proxy: proxy}
	return New(cfg, log)
}

func TestDo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient("")

	req, err := http.NewRequest(http.MethodHead, srv.URL, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	resp, err := c.Do(req)
	if err != nil {
		t.Fatalf("Do() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusNoContent)
	}
}

func TestDoBrowserLikeFallsBackForHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient("")

	// Plain HTTP never goes through the utls transport.
	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}

	resp, err := c.DoBrowserLike(req)
	if err != nil {
		t.Fatalf("DoBrowserLike() error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
}

func TestApplyProxy(t *testing.T) {
	tests := []struct {
		name      string
		proxy     string
		wantProxy bool
	}{
		{"no proxy", "", false},
		{"http proxy", "http://127.0.0.1:8080", true},
		{"invalid proxy ignored", "://bad", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := logging.New("debug", false, io.Discard)
			transport := &http.Transport{}
			applyProxy(transport, tt.proxy, log)
			if (transport.Proxy != nil) != tt.wantProxy {
				t.Errorf("transport.Proxy set = %v, want %v", transport.Proxy != nil, tt.wantProxy)
			}
		})
	}
}
