package fetcher

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type mockTransport struct {
	body       string
	statusCode int
	err        error
	req        *http.Request
}

func (m *mockTransport) Do(req *http.Request) (*http.Response, error) {
	m.req = req
	if m.err != nil {
		return nil, m.err
	}
	return &http.Response{
		StatusCode: m.statusCode,
		Body:       io.NopCloser(bytes.NewBufferString(m.body)),
	}, nil
}

func TestFetch(t *testing.T) {
	tests := []struct {
		name      string
		transport *mockTransport
		want      string
		wantErr   bool
	}{
		{
			name:      "successful fetch",
			transport: &mockTransport{body: "subscriptions: []\n", statusCode: 200},
			want:      "subscriptions: []\n",
		},
		{
			name:      "http error status",
			transport: &mockTransport{body: "not found", statusCode: 404},
			wantErr:   true,
		},
		{
			name:      "network error",
			transport: &mockTransport{err: io.ErrUnexpectedEOF},
			wantErr:   true,
		},
		{
			name:      "oversized body",
			transport: &mockTransport{body: strings.Repeat("x", maxBodySize+1), statusCode: 200},
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.transport)
			got, err := f.Fetch(context.Background(), "https://registry.example/subscriptions.yaml")
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, string(got)); diff != "" {
				t.Errorf("body mismatch (-want +got):\n%s", diff)
			}
			if ua := tt.transport.req.Header.Get("User-Agent"); ua == "" {
				t.Error("request sent without User-Agent")
			}
		})
	}
}

func TestFetchInvalidURL(t *testing.T) {
	f := New(&mockTransport{statusCode: 200})
	if _, err := f.Fetch(context.Background(), "://bad"); err == nil {
		t.Error("expected error for invalid url")
	}
}
