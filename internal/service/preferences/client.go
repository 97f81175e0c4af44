package preferences

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Result is the outcome of a preference lookup. All failure modes collapse
// into the zero value so preference availability can never block chat.
type Result struct {
	// Labels holds the resolved preference labels when the collaborator
	// answered with a recognized shape.
	Labels []string
	// Raw holds the decoded body when the shape was unrecognized; the prompt
	// builder stringifies it as-is.
	Raw any
}

// Empty reports whether the lookup produced nothing usable.
func (r Result) Empty() bool {
	return len(r.Labels) == 0 && r.Raw == nil
}

// Client resolves a caller's preference labels from the catalog backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *logrus.Logger
}

// NewClient creates a preference lookup client rooted at baseURL.
func NewClient(baseURL string, log *logrus.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		log:        log,
	}
}

// Resolve fetches preference labels for a phone number. Transport failures,
// non-2xx statuses and malformed bodies all degrade to an empty Result; the
// chat path must never see an error from here.
func (c *Client) Resolve(ctx context.Context, phone string) Result {
	if strings.TrimSpace(phone) == "" {
		return Result{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/preferences/"+url.PathEscape(phone), nil)
	if err != nil {
		return Result{}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.WithError(err).Debug("[preferences] lookup failed")
		return Result{}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.WithField("status", resp.StatusCode).Debug("[preferences] lookup returned non-success status")
		return Result{}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		c.log.WithError(err).Debug("[preferences] reading lookup response failed")
		return Result{}
	}

	var shaped struct {
		Labels      []string `json:"labels"`
		Preferences []string `json:"preferences"`
	}
	if err := json.Unmarshal(body, &shaped); err == nil {
		if len(shaped.Labels) > 0 {
			return Result{Labels: shaped.Labels}
		}
		if len(shaped.Preferences) > 0 {
			return Result{Labels: shaped.Preferences}
		}
	}

	// Unexpected shape: keep whatever decoded so the prompt builder can
	// stringify it.
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		c.log.WithError(err).Debug("[preferences] lookup returned malformed body")
		return Result{}
	}
	if raw == nil {
		return Result{}
	}
	return Result{Raw: raw}
}
