// Package invoice talks to the external invoice generator.
package invoice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"tutorbill/internal/core"
	"tutorbill/internal/middleware/trace"
)

// GeneratePath is the generator endpoint, relative to its base URL.
const GeneratePath = "/api/invoices/download-pdf"

const defaultMaxArtifactBytes = 20 << 20

// HTTPGenerator posts invoice requests to the generator and returns the PDF.
type HTTPGenerator struct {
	endpoint string
	client   *http.Client
	maxBytes int64
}

func NewHTTPGenerator(baseURL string, timeout time.Duration) *HTTPGenerator {
	return &HTTPGenerator{
		endpoint: strings.TrimRight(baseURL, "/") + GeneratePath,
		client:   &http.Client{Transport: newTransport(), Timeout: timeout},
		maxBytes: defaultMaxArtifactBytes,
	}
}

// newTransport keeps a few idle connections to the generator, which is
// usually a single host.
func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}
}

func (g *HTTPGenerator) Generate(ctx context.Context, req core.InvoiceRequest) ([]byte, error) {
	data, err := g.generate(ctx, req)
	return data, core.NewNetworkError("generate invoice", req.PrimaryStudentID, err)
}

func (g *HTTPGenerator) generate(ctx context.Context, req core.InvoiceRequest) ([]byte, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/pdf")
	if id := trace.RequestID(ctx); id != "" {
		httpReq.Header.Set(trace.HeaderRequestID, id)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("generator returned %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, g.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	if int64(len(data)) > g.maxBytes {
		return nil, fmt.Errorf("artifact exceeds %d bytes", g.maxBytes)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("generator returned an empty artifact")
	}
	return data, nil
}
