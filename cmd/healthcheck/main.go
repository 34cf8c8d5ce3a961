package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"
)

const defaultProbeAddr = "127.0.0.1:80"

func main() {
	os.Exit(check())
}

func check() int {
	addr := normalizeAddr(os.Getenv("ATOMIC_LISTEN_ADDR"))

	client := &http.Client{Timeout: 2 * time.Second}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	return probe(ctx, client, fmt.Sprintf("http://%s/api/health", addr))
}

// probe returns 0 when url answers 200 and 1 otherwise.
func probe(ctx context.Context, client *http.Client, url string) int {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 1
	}

	resp, err := client.Do(req)
	if err != nil {
		return 1
	}
	_ = resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 1
	}

	return 0
}

// normalizeAddr points the probe at loopback when the server binds all
// interfaces. The probe runs on the device itself.
func normalizeAddr(raw string) string {
	if raw == "" {
		return defaultProbeAddr
	}

	host, port, err := net.SplitHostPort(raw)
	if err != nil {
		return defaultProbeAddr
	}

	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}

	return net.JoinHostPort(host, port)
}
