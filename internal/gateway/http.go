package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rshade/freightdash/internal/drill"
	"github.com/rshade/freightdash/internal/kpi"
	"github.com/rshade/freightdash/internal/logging"
)

// DefaultTimeout bounds a single level fetch.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of an error response is read.
const maxErrorBody = 64 << 10

// HTTPConfig configures an HTTPGateway.
type HTTPConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Client  *http.Client
}

// HTTPGateway fetches levels from the analytics API:
//
//	GET {base}/api/analytics/{module}/{view}/levels/{level}?{parent keys}&{filters}
type HTTPGateway struct {
	base     *url.URL
	token    string
	timeout  time.Duration
	client   *http.Client
	registry *drill.Registry
	catalog  *kpi.Catalog
}

// levelPayload is the success body.
type levelPayload struct {
	Rows   []json.RawMessage          `json:"rows"`
	Total  int                        `json:"total"`
	Totals map[string]decimal.Decimal `json:"totals"`
}

// errorPayload is the failure body.
type errorPayload struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// NewHTTPGateway validates cfg and returns a gateway.
func NewHTTPGateway(cfg HTTPConfig, reg *drill.Registry, cat *kpi.Catalog) (*HTTPGateway, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("gateway base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing gateway base URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway base URL must be http or https, got %q", cfg.BaseURL)
	}

	g := &HTTPGateway{
		base:     base,
		token:    cfg.Token,
		timeout:  cfg.Timeout,
		client:   cfg.Client,
		registry: reg,
		catalog:  cat,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.client == nil {
		g.client = &http.Client{}
	}
	return g, nil
}

// FetchLevel implements drill.Gateway.
func (g *HTTPGateway) FetchLevel(ctx context.Context, q drill.Query) (drill.Result, error) {
	log := logging.FromContext(ctx)

	endpoint, err := g.endpoint(q)
	if err != nil {
		return drill.Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return drill.Result{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}
	if traceID := logging.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set("X-Trace-Id", traceID)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return drill.Result{}, &drill.GatewayError{
			Module:  q.ModuleID,
			View:    q.View,
			Level:   q.Level,
			Message: "request failed",
			Err:     err,
		}
	}
	defer resp.Body.Close()

	log.Debug().
		Ctx(ctx).
		Str("component", "gateway").
		Str("operation", "fetch_level").
		Str("module", q.ModuleID).
		Int("level", q.Level).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("analytics response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return drill.Result{}, g.statusError(q, resp)
	}

	var payload levelPayload
	if err = json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return drill.Result{}, &drill.GatewayError{
			Module:  q.ModuleID,
			View:    q.View,
			Level:   q.Level,
			Status:  resp.StatusCode,
			Message: "malformed response",
			Err:     err,
		}
	}

	rows, err := g.catalog.DecodeRows(q.ModuleID, q.View, q.Level, payload.Rows)
	if err != nil {
		return drill.Result{}, &drill.GatewayError{
			Module:  q.ModuleID,
			View:    q.View,
			Level:   q.Level,
			Status:  resp.StatusCode,
			Message: "unexpected row shape",
			Err:     err,
		}
	}

	total := payload.Total
	if total == 0 {
		total = len(rows)
	}
	return drill.Result{Rows: rows, Total: total, Totals: payload.Totals}, nil
}

// endpoint builds the level URL. Path keys are sent under the key fields the
// level requires, so the server never has to know the drill order.
func (g *HTTPGateway) endpoint(q drill.Query) (string, error) {
	m, err := g.registry.Module(q.ModuleID)
	if err != nil {
		return "", err
	}
	level, ok := m.SchemaFor(q.View).Level(q.Level)
	if !ok || len(q.Path) != q.Level {
		return "", fmt.Errorf("%w: %s/%s level %d with path %v",
			drill.ErrPreconditionFailed, q.ModuleID, q.View, q.Level, q.Path)
	}

	values := url.Values{}
	for k, v := range q.Filters.Flatten() {
		values.Set(k, v)
	}
	for i, key := range q.Path {
		field := level.RequiresParentKeys[i]
		if v, set := values[field]; set && v[0] != key {
			return "", fmt.Errorf("%w: %s=%q conflicts with drill key %q",
				drill.ErrInvalidFilter, field, v[0], key)
		}
		values.Set(field, key)
	}
	if q.Page.Enabled() {
		values.Set("page", strconv.Itoa(q.Page.Page))
		values.Set("page_size", strconv.Itoa(q.Page.PageSize))
		if q.Page.SortField != "" {
			values.Set("sort", q.Page.SortField+":"+q.Page.SortOrder)
		}
	}

	u := *g.base
	u.Path = u.Path + "/api/analytics/" + url.PathEscape(q.ModuleID) + "/" +
		url.PathEscape(q.View) + "/levels/" + strconv.Itoa(q.Level)
	u.RawQuery = values.Encode()
	return u.String(), nil
}

func (g *HTTPGateway) statusError(q drill.Query, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := http.StatusText(resp.StatusCode)
	var payload errorPayload
	if json.Unmarshal(body, &payload) == nil {
		switch {
		case payload.Message != "":
			msg = payload.Message
		case payload.Error != "":
			msg = payload.Error
		}
	} else if text := strings.TrimSpace(string(body)); text != "" {
		msg = text
	}

	return &drill.GatewayError{
		Module:  q.ModuleID,
		View:    q.View,
		Level:   q.Level,
		Status:  resp.StatusCode,
		Message: msg,
	}
}
