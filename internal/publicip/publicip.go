// Package publicip discovers the relay's public IPv4 address at
// startup when none is configured. The result is meant to be captured
// once into immutable configuration, not polled as mutable global
// state.
package publicip

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// defaultEndpoints mirrors the plain-text IP echo services the source
// tool queried.
var defaultEndpoints = []string{
	"https://ifconfig.co/ip",
	"https://icanhazip.com",
}

// Discover queries endpoints in order and returns the first plain-text
// IPv4 address one of them returns, bounded by a 3 second timeout per
// request.
func Discover(ctx context.Context) (string, error) {
	return discover(ctx, defaultEndpoints)
}

func discover(ctx context.Context, endpoints []string) (string, error) {
	client := &http.Client{Timeout: 3 * time.Second}

	var lastErr error
	for _, endpoint := range endpoints {
		ip, err := fetchOne(ctx, client, endpoint)
		if err != nil {
			lastErr = err
			continue
		}
		return ip, nil
	}
	return "", fmt.Errorf("publicip: all endpoints failed: %w", lastErr)
}

func fetchOne(ctx context.Context, client *http.Client, endpoint string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%s returned status %d", endpoint, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 256))
	if err != nil {
		return "", fmt.Errorf("read response from %s: %w", endpoint, err)
	}

	ip := strings.TrimSpace(string(body))
	if ip == "" {
		return "", fmt.Errorf("%s returned an empty body", endpoint)
	}
	return ip, nil
}
