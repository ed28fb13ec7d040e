// Package analysis talks to the external speech analysis backend.
package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/supdatta/verbiq/internal/model"
)

// DefaultBaseURL is used when no endpoint has been configured.
const DefaultBaseURL = "http://127.0.0.1:5000"

const (
	defaultAnalyzeTimeout = 60 * time.Second
	defaultProbeTimeout   = 5 * time.Second

	// tunnelSkipHeader tells an ngrok tunnel to skip its interstitial page.
	// Harmless against backends that are not behind a tunnel.
	tunnelSkipHeader = "ngrok-skip-browser-warning"
)

// Failure categories for one backend call.
var (
	// ErrUnreachable covers transport failures: the host could not be reached.
	ErrUnreachable = errors.New("analysis backend unreachable")
	// ErrServer covers 5xx responses from the backend.
	ErrServer = errors.New("analysis backend error")
	// ErrUnavailable covers everything else, including timeouts.
	ErrUnavailable = errors.New("analysis service unavailable")
)

// Client posts recordings to the analysis backend. One client is bound to one
// normalized base URL.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	probeClient *http.Client
	log         zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithTimeouts overrides the analyze and probe timeouts. Intended for tests.
func WithTimeouts(analyze, probe time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = analyze
		c.probeClient.Timeout = probe
	}
}

// New builds a client for the given base URL. The URL is normalized before
// use, so a pasted full endpoint or a trailing slash is accepted.
func New(baseURL string, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:     NormalizeBaseURL(baseURL),
		httpClient:  &http.Client{Timeout: defaultAnalyzeTimeout},
		probeClient: &http.Client{Timeout: defaultProbeTimeout},
		log:         log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the normalized endpoint in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Analyze uploads one finished recording with its practice context and returns
// the backend's verdict. Single attempt, no retry; the client timeout is the
// only cancellation. Optional response fields may be absent, that is not an
// error.
func (c *Client) Analyze(ctx context.Context, payload []byte, contextLabel string) (model.AnalysisResult, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "recording.wav")
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := part.Write(payload); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.WriteField("context", contextLabel); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("failed to build upload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("failed to build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &body)
	if err != nil {
		return model.AnalysisResult{}, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(tunnelSkipHeader, "true")

	c.log.Debug().Str("url", req.URL.String()).Int("payload_bytes", len(payload)).
		Str("context", contextLabel).Msg("uploading recording")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.AnalysisResult{}, c.categorize(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()

	if resp.StatusCode >= 500 {
		return model.AnalysisResult{}, fmt.Errorf("%w: status %d", ErrServer, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		return model.AnalysisResult{}, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var result model.AnalysisResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return model.AnalysisResult{}, fmt.Errorf("%w: malformed response: %v", ErrUnavailable, err)
	}
	c.log.Debug().Str("emotion", result.DetectedEmotion).Str("confidence", result.ConfidenceScore).
		Msg("analysis complete")
	return result, nil
}

// TestConnection probes the backend root with a short timeout. Any HTTP
// response, regardless of status, counts as reachable. The probe never
// touches the free-use counter or history.
func (c *Client) TestConnection(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set(tunnelSkipHeader, "true")

	resp, err := c.probeClient.Do(req)
	if err != nil {
		return c.categorize(err)
	}
	if cerr := resp.Body.Close(); cerr != nil {
		// Best-effort body close.
		_ = cerr
	}
	return nil
}

func (c *Client) categorize(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		if urlErr.Timeout() {
			return fmt.Errorf("%w: request timed out: %v", ErrUnavailable, err)
		}
		return fmt.Errorf("%w: could not connect to %s: %v", ErrUnreachable, c.baseURL, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

// NormalizeBaseURL cleans a user-supplied endpoint: trims whitespace, drops
// trailing slashes, drops a trailing /analyze segment when the full endpoint
// was pasted, and assumes http:// when no scheme is given. Applying it twice
// gives the same result as applying it once.
func NormalizeBaseURL(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, "/analyze")
	s = strings.TrimRight(s, "/")
	if s != "" && !strings.Contains(s, "://") {
		s = "http://" + s
	}
	return s
}

// FailureMessage maps an analysis failure to the short title and detail shown
// to the user. Connectivity failures echo the configured base URL so the user
// can spot a stale endpoint.
func FailureMessage(err error, baseURL string) (title, detail string) {
	title = "AI Coach is sleeping"
	switch {
	case errors.Is(err, ErrUnreachable):
		detail = fmt.Sprintf("Network Error: Could not connect to %s. Ensure your backend is running and the API URL (verbiq api set) is correct.", baseURL)
	case errors.Is(err, ErrServer):
		detail = "Server Error: The backend is experiencing issues."
	default:
		detail = "Please try again later. The analysis service is temporarily unavailable."
	}
	return title, detail
}
