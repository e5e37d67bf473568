// Package portal implements the stateful crawl session against the
// planning-application portal: token extraction, the paginated search
// protocol, and the case page scrapers.
package portal

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/civicgrid/planportal-crawler/internal/ratelimit"
)

// Config carries the portal-facing knobs. Values come from the application
// configuration; the session never reads environment state itself.
type Config struct {
	// BaseURL is the portal origin, e.g. https://publicaccess.example.gov.uk.
	BaseURL string
	// ListingPath is the weekly-list search page, relative to BaseURL.
	ListingPath string
	// Council tags every record written by this crawler.
	Council string
	// ActorID is the audit identity stamped on created/updated records.
	ActorID string
	UserAgent      string
	Timeout        time.Duration
	ResultsPerPage int
}

// Session owns one crawl's portal state: the cookie jar and the in-flight
// request pacing. It issues one request at a time and is not safe for
// concurrent use.
type Session struct {
	client  *resty.Client
	baseURL string
	cfg     Config
	gate    *ratelimit.Gate
	logger  *zap.Logger
}

// NewSession builds a session with a fresh cookie jar.
func NewSession(cfg Config, gate *ratelimit.Gate, logger *zap.Logger) (*Session, error) {
	if _, err := url.Parse(cfg.BaseURL); err != nil || cfg.BaseURL == "" {
		return nil, fmt.Errorf("invalid portal base url %q: %w", cfg.BaseURL, err)
	}
	if gate == nil {
		gate = ratelimit.NewGate(0)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultsPerPage <= 0 {
		cfg.ResultsPerPage = 100
	}
	client := resty.New()
	if cfg.UserAgent != "" {
		client.SetHeader("User-Agent", cfg.UserAgent)
	}
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	return &Session{
		client:  client,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:     cfg,
		gate:    gate,
		logger:  logger,
	}, nil
}

// Council returns the jurisdiction tag records are written under.
func (s *Session) Council() string { return s.cfg.Council }

// Bootstrap primes the session cookie jar with an initial GET against the
// portal origin. The portal refuses search submissions without it.
func (s *Session) Bootstrap(ctx context.Context) error {
	if _, err := s.get(ctx, s.baseURL); err != nil {
		return fmt.Errorf("bootstrap session: %w", err)
	}
	return nil
}

// AbsoluteURL resolves a portal-relative href against the base URL.
func (s *Session) AbsoluteURL(href string) string {
	if strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://") {
		return href
	}
	if !strings.HasPrefix(href, "/") {
		href = "/" + href
	}
	return s.baseURL + href
}

// Download fetches raw bytes (a case document) through the session's cookie
// jar and returns the body with the reported content type.
func (s *Session) Download(ctx context.Context, rawURL string) ([]byte, string, error) {
	if err := s.gate.Wait(ctx); err != nil {
		return nil, "", err
	}
	res, err := s.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("download %s: %w", rawURL, err)
	}
	if res.IsError() {
		return nil, "", fmt.Errorf("download %s: unexpected status %d", rawURL, res.StatusCode())
	}
	return res.Body(), res.Header().Get("Content-Type"), nil
}

func (s *Session) get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := s.gate.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := s.client.R().SetContext(ctx).Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("GET %s: unexpected status %d", rawURL, res.StatusCode())
	}
	return res.Body(), nil
}

func (s *Session) postForm(ctx context.Context, rawURL string, form map[string]string) ([]byte, error) {
	if err := s.gate.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := s.client.R().SetContext(ctx).SetFormData(form).Post(rawURL)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %w", rawURL, err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("POST %s: unexpected status %d", rawURL, res.StatusCode())
	}
	return res.Body(), nil
}
