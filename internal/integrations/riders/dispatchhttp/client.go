package dispatchhttp

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/BearBump/QuoteBox/internal/models"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Client asks the dispatch service for rider counters of a zone.
type Client struct {
	baseURL string
	apiKey  string
	httpc   *http.Client
}

func New(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:9100"
	}
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpc: &http.Client{
			Timeout: timeout,
		},
	}
}

type respBody struct {
	Zone         string `json:"zone"`
	ActiveRiders int    `json:"active_riders"`
	QueuedJobs   int    `json:"queued_jobs"`
}

func (c *Client) Snapshot(ctx context.Context, zoneCode string) (models.RiderSnapshot, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return models.RiderSnapshot{}, errors.Wrap(err, "parse base url")
	}
	u := base.JoinPath("v1", "zones", url.PathEscape(zoneCode), "riders")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.RiderSnapshot{}, errors.Wrap(err, "new request")
	}
	if c.apiKey != "" {
		req.Header.Set("X-Api-Key", c.apiKey)
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return models.RiderSnapshot{}, errors.Wrap(err, "do request")
	}
	defer resp.Body.Close()

	// зона без райдеров: диспетчерская отвечает 404
	if resp.StatusCode == http.StatusNotFound {
		return models.RiderSnapshot{}, nil
	}
	if resp.StatusCode/100 != 2 {
		return models.RiderSnapshot{}, errors.Errorf("dispatch http %d", resp.StatusCode)
	}

	var rb respBody
	if err := json.NewDecoder(resp.Body).Decode(&rb); err != nil {
		return models.RiderSnapshot{}, errors.Wrap(err, "decode")
	}
	if rb.ActiveRiders < 0 || rb.QueuedJobs < 0 {
		return models.RiderSnapshot{}, errors.Errorf("dispatch returned negative counters for %s", zoneCode)
	}
	return models.RiderSnapshot{ActiveRiders: rb.ActiveRiders, QueuedJobs: rb.QueuedJobs}, nil
}
