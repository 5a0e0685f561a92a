package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"contentgen/internal/infra"
)

// ErrNoDocument is returned when no source text exists for a subject.
var ErrNoDocument = errors.New("sources: no document for subject")

const defaultUserAgent = "contentgen/1.0 (biographical content pipeline)"

// FileDocuments reads <Dir>/<subject>.txt.
type FileDocuments struct {
	Dir string
}

// Document implements DocumentSource.
func (f FileDocuments) Document(ctx context.Context, subject string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := strings.TrimSpace(subject)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("sources: invalid subject %q", subject)
	}
	data, err := os.ReadFile(filepath.Join(f.Dir, name+".txt"))
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: %s", ErrNoDocument, name)
	}
	if err != nil {
		return "", fmt.Errorf("sources: read document: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoDocument, name)
	}
	return text, nil
}

// WikipediaOptions configures the Wikipedia extract source.
type WikipediaOptions struct {
	BaseURL      string
	UserAgent    string
	RequestDelay time.Duration
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Wikipedia fetches the plain-text extract of a subject's article.
type Wikipedia struct {
	baseURL    string
	userAgent  string
	delay      time.Duration
	httpClient *http.Client
	logger     *infra.Logger
}

type extractResponse struct {
	Query struct {
		Pages []struct {
			Title   string `json:"title"`
			Extract string `json:"extract"`
			Missing bool   `json:"missing"`
		} `json:"pages"`
	} `json:"query"`
}

// NewWikipedia constructs a Wikipedia document source.
func NewWikipedia(opts WikipediaOptions) *Wikipedia {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org"
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = defaultUserAgent
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.DiscardLogger()
	}
	return &Wikipedia{
		baseURL:    baseURL,
		userAgent:  ua,
		delay:      max(opts.RequestDelay, 0),
		httpClient: httpClient,
		logger:     logger,
	}
}

// Document implements DocumentSource. It waits the configured delay before
// each request.
func (w *Wikipedia) Document(ctx context.Context, subject string) (string, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return "", ErrNoSubject
	}
	if w.delay > 0 {
		timer := time.NewTimer(w.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	q := url.Values{}
	q.Set("action", "query")
	q.Set("prop", "extracts")
	q.Set("explaintext", "1")
	q.Set("redirects", "1")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	q.Set("titles", subject)
	endpoint := w.baseURL + "/w/api.php?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("sources: build wikipedia request: %w", err)
	}
	req.Header.Set("User-Agent", w.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sources: wikipedia request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("sources: read wikipedia response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("sources: wikipedia status %d", resp.StatusCode)
	}
	var decoded extractResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("sources: decode wikipedia response: %w", err)
	}
	for _, page := range decoded.Query.Pages {
		if page.Missing {
			continue
		}
		if text := strings.TrimSpace(page.Extract); text != "" {
			w.logger.Info().
				Str("subject", subject).
				Str("title", page.Title).
				Int("chars", len(text)).
				Msg("sources: wikipedia extract fetched")
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrNoDocument, subject)
}
