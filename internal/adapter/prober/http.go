package prober

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// maxDrain bounds how much of a response body is read to keep the
// connection reusable.
const maxDrain = 64 << 10

// HTTPProber implements domain.LinkProber with a GET request.
type HTTPProber struct {
	client    *http.Client
	userAgent string
	logger    *zap.Logger
}

// NewClient returns an HTTP client for probing. When followRedirects is
// false a 3xx response is returned as is.
func NewClient(timeout time.Duration, followRedirects bool) *http.Client {
	client := &http.Client{Timeout: timeout}
	if !followRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

// New creates an HTTPProber. A nil client uses http.DefaultClient and a
// nil logger discards output.
func New(client *http.Client, userAgent string, logger *zap.Logger) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPProber{client: client, userAgent: userAgent, logger: logger}
}

// Probe issues a GET to url and returns the response status code.
func (p *HTTPProber) Probe(ctx context.Context, url string) (int, error) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		p.logger.Debug("probe rejected", zap.String("url", url), zap.Error(err))
		return 0, err
	}
	if p.userAgent != "" {
		req.Header.Set("User-Agent", p.userAgent)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		fields := []zap.Field{
			zap.String("url", url),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		}
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Info("probe timed out", fields...)
		} else {
			p.logger.Debug("probe failed", fields...)
		}
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrain))

	p.logger.Debug("probe",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))
	return resp.StatusCode, nil
}
