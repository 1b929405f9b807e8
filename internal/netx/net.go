// Package netx holds small HTTP helpers for talking to object storage
// through presigned URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// DownloadPresignedURL fetches url with GET and copies the body to w. It
// returns the number of bytes written.
func DownloadPresignedURL(ctx context.Context, url string, w io.Writer) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(b))
	}
	return io.Copy(w, resp.Body)
}
