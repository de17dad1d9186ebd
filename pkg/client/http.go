package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/chenglch/xcat3client/pkg"
	log "github.com/sirupsen/logrus"
)

// Config holds the connection settings of the xCAT3 service
type Config struct {
	Endpoint      string
	MaxRetries    int
	RetryInterval time.Duration
	Timeout       time.Duration

	CAFile   string
	CertFile string
	KeyFile  string
	Insecure bool

	// Timings records the duration of every request.
	Timings bool
}

// Timing is the duration of one request
type Timing struct {
	Label string
	Start time.Time
	End   time.Time
}

// Duration returns the elapsed time of the request
func (t Timing) Duration() time.Duration {
	return t.End.Sub(t.Start)
}

// HTTPClient sends JSON requests to the xCAT3 service and retries the ones
// rejected with a conflict, an unavailable service or a refused connection.
// It is safe for concurrent use.
type HTTPClient struct {
	endpoint      *Endpoint
	client        *http.Client
	maxRetries    int
	retryInterval time.Duration
	insecure      bool

	timings bool
	mu      sync.Mutex
	times   []Timing
}

// NewHTTPClient creates a new HTTPClient
func NewHTTPClient(cfg Config) (*HTTPClient, error) {
	endpoint, err := ParseEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}

	if cfg.MaxRetries < 0 {
		return nil, pkg.NewInvalidArgument("max-retries", fmt.Errorf("must be >= 0, got %d", cfg.MaxRetries))
	}
	if cfg.RetryInterval == 0 {
		cfg.RetryInterval = pkg.DefaultRetryInterval
	}
	if cfg.RetryInterval < time.Second {
		return nil, pkg.NewInvalidArgument("retry-interval", fmt.Errorf("must be >= 1s, got %s", cfg.RetryInterval))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = pkg.DefaultRequestTimeout
	}

	tlsConfig, err := newTLSConfig(cfg)
	if err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = tlsConfig
	transport.MaxIdleConnsPerHost = 64

	return &HTTPClient{
		endpoint:      endpoint,
		client:        &http.Client{Timeout: cfg.Timeout, Transport: transport},
		maxRetries:    cfg.MaxRetries,
		retryInterval: cfg.RetryInterval,
		insecure:      cfg.Insecure,
		timings:       cfg.Timings,
	}, nil
}

func newTLSConfig(cfg Config) (*tls.Config, error) {
	tlsConfig := &tls.Config{MinVersion: tls.VersionTLS12}
	if cfg.Insecure {
		tlsConfig.InsecureSkipVerify = true
		return tlsConfig, nil
	}

	if cfg.CAFile != "" {
		pem, err := os.ReadFile(cfg.CAFile)
		if err != nil {
			return nil, pkg.NewInvalidArgument("os-cacert", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, pkg.NewInvalidArgument("os-cacert", fmt.Errorf("no certificate found in %s", cfg.CAFile))
		}
		tlsConfig.RootCAs = pool
	}

	if cfg.CertFile != "" || cfg.KeyFile != "" {
		cert, err := tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
		if err != nil {
			return nil, pkg.NewInvalidArgument("os-cert", err)
		}
		tlsConfig.Certificates = []tls.Certificate{cert}
	}
	return tlsConfig, nil
}

// Endpoint returns the service endpoint
func (c *HTTPClient) Endpoint() *Endpoint {
	return c.endpoint
}

// Get sends a GET request. body may be nil, the service reads node lists
// from the body of GET requests.
func (c *HTTPClient) Get(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodGet, path, body, out)
}

// Post sends a POST request
func (c *HTTPClient) Post(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Put sends a PUT request
func (c *HTTPClient) Put(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPut, path, body, out)
}

// Patch sends a PATCH request
func (c *HTTPClient) Patch(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodPatch, path, body, out)
}

// Delete sends a DELETE request
func (c *HTTPClient) Delete(ctx context.Context, path string, body, out interface{}) error {
	return c.Do(ctx, http.MethodDelete, path, body, out)
}

// Do sends a request to path relative to the API root, decodes the JSON
// response into out when it is not nil, and retries retryable failures
// MaxRetries times with a fixed delay.
func (c *HTTPClient) Do(ctx context.Context, method, path string, body, out interface{}) error {
	url := c.endpoint.Resolve(path)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return err
		}
	}

	attempts := uint(c.maxRetries + 1)
	start := time.Now()

	err := retry.Do(
		func() error {
			return c.send(ctx, method, url, payload, out)
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(c.retryInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			if n+1 < attempts {
				log.Debugf("Error contacting xcat3 server: %v. Attempt %d of %d", err, n+1, attempts)
			}
		}),
	)

	if c.timings {
		c.record(method+" "+url, start, time.Now())
	}

	if err != nil && IsRetryable(err) {
		log.Errorf("Error contacting xcat3 server: %v. Giving up after %d attempts", err, attempts)
	}
	return err
}

func (c *HTTPClient) send(ctx context.Context, method, url string, payload []byte, out interface{}) error {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if log.IsLevelEnabled(log.DebugLevel) {
		log.Debugf("REQ: %s", c.curl(req, payload))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fromTransport(err, method, url)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fromTransport(err, method, url)
	}

	log.Debugf("RESP: [%d] %s", resp.StatusCode, truncate(data, 512))

	if resp.StatusCode >= 400 {
		return fromResponse(resp.StatusCode, data, method, url)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("could not decode response of %s %s: %w", method, url, err)
	}
	return nil
}

// curl renders the request as an equivalent curl command line
func (c *HTTPClient) curl(req *http.Request, payload []byte) string {
	parts := []string{"curl -g -i"}
	if c.insecure {
		parts = append(parts, "--insecure")
	}
	parts = append(parts, "-X "+req.Method, req.URL.String())
	for name, values := range req.Header {
		for _, v := range values {
			parts = append(parts, fmt.Sprintf("-H %q", name+": "+v))
		}
	}
	if payload != nil {
		parts = append(parts, fmt.Sprintf("-d '%s'", truncate(payload, 512)))
	}
	return strings.Join(parts, " ")
}

func truncate(data []byte, n int) string {
	if len(data) <= n {
		return string(data)
	}
	return string(data[:n]) + "..."
}

func (c *HTTPClient) record(label string, start, end time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.times = append(c.times, Timing{Label: label, Start: start, End: end})
}

// Timings returns the recorded request durations
func (c *HTTPClient) Timings() []Timing {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Timing(nil), c.times...)
}

// ResetTimings drops the recorded request durations
func (c *HTTPClient) ResetTimings() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.times = nil
}
