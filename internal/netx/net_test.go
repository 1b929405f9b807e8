package netx

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestDownloadPresignedURL(t *testing.T) {
	doc := []byte(`{"notes":[]}`)

	t.Run("success 200 OK", func(t *testing.T) {
		var gotMethod, gotQuery string
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotMethod = r.Method
			gotQuery = r.URL.RawQuery
			_, _ = w.Write(doc)
		}))
		defer ts.Close()

		var buf bytes.Buffer
		n, err := DownloadPresignedURL(context.Background(), ts.URL+"/exports/u1/x.json?X-Amz-Signature=abc", &buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotMethod != http.MethodGet {
			t.Fatalf("method = %q, want GET", gotMethod)
		}
		if gotQuery != "X-Amz-Signature=abc" {
			t.Fatalf("query = %q", gotQuery)
		}
		if n != int64(len(doc)) || !bytes.Equal(buf.Bytes(), doc) {
			t.Fatalf("body = %q (%d bytes), want %q", buf.String(), n, doc)
		}
	})

	t.Run("non-200 -> error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte("SignatureDoesNotMatch"))
		}))
		defer ts.Close()

		var buf bytes.Buffer
		_, err := DownloadPresignedURL(context.Background(), ts.URL, &buf)
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if !strings.Contains(err.Error(), "download failed: 403") || !strings.Contains(err.Error(), "SignatureDoesNotMatch") {
			t.Fatalf("error = %q", err.Error())
		}
		if buf.Len() != 0 {
			t.Fatalf("nothing should be written on failure, got %q", buf.String())
		}
	})

	t.Run("network error", func(t *testing.T) {
		ts := httptest.NewServer(http.NotFoundHandler())
		ts.Close()

		_, err := DownloadPresignedURL(context.Background(), ts.URL, &bytes.Buffer{})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if strings.Contains(err.Error(), "download failed") {
			t.Fatalf("got wrong kind of error: %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := DownloadPresignedURL(ctx, "http://127.0.0.1:1/x", &bytes.Buffer{})
		if err == nil {
			t.Fatal("expected error, got nil")
		}
	})
}
