package venue

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRemoteSignerReturnsBodyVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"action":{},"nonce":1,"signature":"abc"}`))
	}))
	defer srv.Close()

	s := NewRemoteSigner(srv.URL)
	out, err := s.SignL1Action(context.Background(), []byte(`{"type":"order"}`), false)
	if err != nil {
		t.Fatalf("SignL1Action: %v", err)
	}
	if string(out) != `{"action":{},"nonce":1,"signature":"abc"}` {
		t.Errorf("unexpected envelope: %s", out)
	}
}

func TestRemoteSignerErrorsOnNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewRemoteSigner(srv.URL)
	if _, err := s.SignL1Action(context.Background(), []byte(`{}`), false); err == nil {
		t.Fatal("expected error on 500 response")
	}
}
