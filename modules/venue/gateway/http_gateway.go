package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-event-roster/core/constants"
	"go-event-roster/core/logger"
	"go-event-roster/modules/venue/view"

	"github.com/gosimple/slug"
	"golang.org/x/time/rate"
)

// HTTPGateway drives a venue bridge over JSON/HTTP.
//
//	POST   /venues                          {name, title}    -> {id}
//	PUT    /venues/{id}/members/{pid}
//	DELETE /venues/{id}/members/{pid}
//	DELETE /venues/{id}
//	POST   /venues/{id}/roster              RosterView        -> {message_id}
//	PUT    /venues/{id}/roster/{messageID}  RosterView
type HTTPGateway struct {
	baseURL string
	token   string
	client  *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

type HTTPGatewayConfig struct {
	BaseURL       string
	Token         string
	RatePerSecond float64
	Timeout       time.Duration
}

func NewHTTPGateway(cfg HTTPGatewayConfig) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.ExternalCallTimeout
	}
	limit := rate.Inf
	burst := 1
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
		burst = int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
	}
	return &HTTPGateway{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
	}
}

// statusError carries a non-2xx response from the bridge.
type statusError struct {
	Status int
	Body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("venue bridge returned status %d: %s", e.Status, e.Body)
}

func (g *HTTPGateway) do(ctx context.Context, method, path string, body any, out any) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	if err := g.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("venue rate limit: %w", err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		logger.Warn("HTTPGateway:do", "method", method, "path", path, "error", err)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrVenueNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return &statusError{Status: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (g *HTTPGateway) CreateVenue(ctx context.Context, title string) (string, error) {
	var out struct {
		ID string `json:"id"`
	}
	body := map[string]string{"name": slug.Make(title), "title": title}
	if err := g.do(ctx, http.MethodPost, "/venues", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("venue bridge returned an empty venue id")
	}
	return out.ID, nil
}

func (g *HTTPGateway) AddMember(ctx context.Context, venueID, participantID string) error {
	path := fmt.Sprintf("/venues/%s/members/%s", url.PathEscape(venueID), url.PathEscape(participantID))
	err := g.do(ctx, http.MethodPut, path, nil, nil)
	var se *statusError
	if errors.As(err, &se) && se.Status == http.StatusConflict {
		return nil
	}
	return err
}

func (g *HTTPGateway) RemoveMember(ctx context.Context, venueID, participantID string) error {
	path := fmt.Sprintf("/venues/%s/members/%s", url.PathEscape(venueID), url.PathEscape(participantID))
	err := g.do(ctx, http.MethodDelete, path, nil, nil)
	if errors.Is(err, ErrVenueNotFound) {
		// absent member, or the venue is already gone
		return nil
	}
	return err
}

func (g *HTTPGateway) CloseVenue(ctx context.Context, venueID string) error {
	return g.do(ctx, http.MethodDelete, "/venues/"+url.PathEscape(venueID), nil, nil)
}

func (g *HTTPGateway) PostRosterSnapshot(ctx context.Context, venueID string, roster view.RosterView) (string, error) {
	var out struct {
		MessageID string `json:"message_id"`
	}
	if err := g.do(ctx, http.MethodPost, "/venues/"+url.PathEscape(venueID)+"/roster", roster, &out); err != nil {
		return "", err
	}
	return out.MessageID, nil
}

func (g *HTTPGateway) UpdateRosterSnapshot(ctx context.Context, venueID, messageID string, roster view.RosterView) error {
	path := fmt.Sprintf("/venues/%s/roster/%s", url.PathEscape(venueID), url.PathEscape(messageID))
	return g.do(ctx, http.MethodPut, path, roster, nil)
}
