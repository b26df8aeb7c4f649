// Package httptransport carries typewire exchanges over HTTP: one POST per
// send, request/response pairing for free. The body is the opaque envelope;
// no protocol detail leaks into the HTTP layer.
package httptransport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/typewire-dev/typewire/pkg/peer"
)

// ContentType is the media type for envelope bodies.
const ContentType = "application/octet-stream"

// MaxRequestBytes caps accepted request bodies on the server side.
const MaxRequestBytes = 8 * 1024 * 1024

// New returns a transport that POSTs each envelope to url. A nil client
// uses http.DefaultClient.
func New(url string, client *http.Client) peer.Transport {
	if client == nil {
		client = http.DefaultClient
	}
	return func(ctx context.Context, req []byte) ([]byte, error) {
		hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(req))
		if err != nil {
			return nil, err
		}
		hreq.Header.Set("Content-Type", ContentType)

		hresp, err := client.Do(hreq)
		if err != nil {
			return nil, err
		}
		defer hresp.Body.Close()

		if hresp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("httptransport: unexpected status %s", hresp.Status)
		}
		return io.ReadAll(hresp.Body)
	}
}

// Handler serves a Receiver: each POST body is dispatched and the encoded
// response written back. Handler errors are already converted to wire
// responses by the Receiver; an HTTP error status means the exchange itself
// failed.
func Handler(r *peer.Receiver) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		body, err := io.ReadAll(io.LimitReader(req.Body, MaxRequestBytes))
		if err != nil {
			http.Error(w, "read body", http.StatusBadRequest)
			return
		}
		out, err := r.ServeBytes(req.Context(), body)
		if err != nil {
			http.Error(w, "dispatch failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", ContentType)
		w.Write(out)
	})
}

// Router returns a chi router with the Receiver mounted at POST /. Callers
// embedding typewire into a larger service can instead Mount(Handler(r))
// wherever it fits.
func Router(r *peer.Receiver) chi.Router {
	mux := chi.NewRouter()
	mux.Method(http.MethodPost, "/", Handler(r))
	return mux
}
