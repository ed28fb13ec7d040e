package analysis

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func testClient(baseURL string, opts ...Option) *Client {
	return New(baseURL, zerolog.Nop(), opts...)
}

func TestNormalizeBaseURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"http://127.0.0.1:5000", "http://127.0.0.1:5000"},
		{"http://127.0.0.1:5000/", "http://127.0.0.1:5000"},
		{"https://x.ngrok-free.app/analyze/", "https://x.ngrok-free.app"},
		{"https://x.ngrok-free.app/analyze", "https://x.ngrok-free.app"},
		{"  https://x.ngrok-free.app//  ", "https://x.ngrok-free.app"},
		{"x.ngrok-free.app", "http://x.ngrok-free.app"},
		{"localhost:5000/analyze", "http://localhost:5000"},
		{"", ""},
	}
	for _, tc := range cases {
		got := NormalizeBaseURL(tc.in)
		if got != tc.want {
			t.Fatalf("NormalizeBaseURL(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if again := NormalizeBaseURL(got); again != got {
			t.Fatalf("normalization not idempotent: %q -> %q -> %q", tc.in, got, again)
		}
	}
}

func TestAnalyzeSendsMultipart(t *testing.T) {
	payload := []byte("RIFF fake audio")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/analyze" {
			t.Errorf("path = %s, want /analyze", r.URL.Path)
		}
		if got := r.Header.Get("ngrok-skip-browser-warning"); got != "true" {
			t.Errorf("tunnel skip header = %q, want \"true\"", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("failed to parse multipart form: %v", err)
		}
		if got := r.FormValue("context"); got != "Interview" {
			t.Errorf("context field = %q, want Interview", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("missing file field: %v", err)
		} else {
			defer func() {
				_ = file.Close()
			}()
			if header.Filename != "recording.wav" {
				t.Errorf("filename = %q, want recording.wav", header.Filename)
			}
			buf := make([]byte, len(payload))
			if _, err := file.Read(buf); err != nil || string(buf) != string(payload) {
				t.Errorf("file payload mismatch")
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if _, err := w.Write([]byte(`{"detected_emotion":"Confident","confidence_score":"92","grade":"S","feedback":["Great pacing"]}`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	client := testClient(server.URL)
	result, err := client.Analyze(context.Background(), payload, "Interview")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.DetectedEmotion != "Confident" || result.ConfidenceScore != "92" || result.Grade != "S" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.Feedback) != 1 || result.Feedback[0] != "Great pacing" {
		t.Fatalf("unexpected feedback: %v", result.Feedback)
	}
}

func TestAnalyzeToleratesPartialResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if _, err := w.Write([]byte(`{"detected_emotion":"Calm","confidence_score":"85","feedback":[]}`)); err != nil {
			t.Errorf("failed to write response: %v", err)
		}
	}))
	defer server.Close()

	result, err := testClient(server.URL).Analyze(context.Background(), []byte("x"), "Debate")
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if result.Grade != "" || result.Metrics != nil || result.PauseRatio != "" {
		t.Fatalf("optional fields should stay zero, got %+v", result)
	}
}

func TestAnalyzeServerFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Analyze(context.Background(), []byte("x"), "Interview")
	if !errors.Is(err, ErrServer) {
		t.Fatalf("expected ErrServer, got %v", err)
	}
}

func TestAnalyzeClientErrorIsGeneric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := testClient(server.URL).Analyze(context.Background(), []byte("x"), "Interview")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestAnalyzeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := server.URL
	server.Close()

	client := testClient(url)
	_, err := client.Analyze(context.Background(), []byte("x"), "Interview")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
	if !strings.Contains(err.Error(), client.BaseURL()) {
		t.Fatalf("connectivity error should echo base URL, got %v", err)
	}
}

func TestAnalyzeTimeoutIsGeneric(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	client := testClient(server.URL, WithTimeouts(50*time.Millisecond, 50*time.Millisecond))
	_, err := client.Analyze(context.Background(), []byte("x"), "Interview")
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("timeout should map to ErrUnavailable, got %v", err)
	}
	if errors.Is(err, ErrUnreachable) {
		t.Fatalf("timeout must not be reported as connectivity failure")
	}
}

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			t.Errorf("probe path = %s, want /", r.URL.Path)
		}
		if got := r.Header.Get("ngrok-skip-browser-warning"); got != "true" {
			t.Errorf("tunnel skip header = %q, want \"true\"", got)
		}
		http.Error(w, "teapot", http.StatusTeapot)
	}))
	defer server.Close()

	if err := testClient(server.URL).TestConnection(context.Background()); err != nil {
		t.Fatalf("any HTTP response should count as reachable, got %v", err)
	}

	down := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	url := down.URL
	down.Close()
	if err := testClient(url).TestConnection(context.Background()); !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable for closed server, got %v", err)
	}
}

func TestFailureMessage(t *testing.T) {
	title, detail := FailureMessage(ErrUnreachable, "http://10.0.0.1:5000")
	if title != "AI Coach is sleeping" {
		t.Fatalf("unexpected title %q", title)
	}
	if !strings.Contains(detail, "http://10.0.0.1:5000") {
		t.Fatalf("connectivity detail should reference base URL, got %q", detail)
	}

	_, serverDetail := FailureMessage(ErrServer, "")
	if !strings.Contains(serverDetail, "experiencing issues") {
		t.Fatalf("unexpected server detail %q", serverDetail)
	}

	_, genericDetail := FailureMessage(ErrUnavailable, "")
	if !strings.Contains(genericDetail, "temporarily unavailable") {
		t.Fatalf("unexpected generic detail %q", genericDetail)
	}
}
