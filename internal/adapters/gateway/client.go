// Package gateway is the terminal's client for the check-in service.
//
// Scan and ManualCheck never fail: any network or decoding problem becomes a
// TransportError outcome so the operator always gets a result panel.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/okian/turnstile/internal/domain/model"
	"github.com/okian/turnstile/pkg/checkinapi"
	"github.com/okian/turnstile/pkg/logger"
	"github.com/okian/turnstile/pkg/metrics"
)

const (
	defaultTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client talks to the check-in service over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
	logger  logger.Logger
}

// New creates a client for the service rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.logger == nil {
		c.logger = logger.Get().Named("gateway")
	}
	return c
}

// Resolve submits an accepted candidate. Manual candidates go to the
// manual-check endpoint, everything else to scan.
func (c *Client) Resolve(ctx context.Context, cand model.Candidate) model.Outcome {
	if cand.Source == model.SourceManual {
		return c.ManualCheck(ctx, cand.Text)
	}
	return c.resolve(ctx, "scan", checkinapi.PathScan, checkinapi.ScanRequest{RawQR: cand.Text}, cand.Text, cand.Source)
}

// Scan resolves a raw decoded code.
func (c *Client) Scan(ctx context.Context, raw string) model.Outcome {
	return c.resolve(ctx, "scan", checkinapi.PathScan, checkinapi.ScanRequest{RawQR: raw}, raw, model.SourceCamera)
}

// ManualCheck resolves a typed ticket number.
func (c *Client) ManualCheck(ctx context.Context, ticket string) model.Outcome {
	return c.resolve(ctx, "manual", checkinapi.PathManualCheck,
		checkinapi.ManualCheckRequest{TicketNumber: ticket}, ticket, model.SourceManual)
}

func (c *Client) resolve(ctx context.Context, endpoint, path string, body any, raw string, src model.Source) model.Outcome {
	start := time.Now()
	var resp checkinapi.ScanResponse
	err := c.do(ctx, http.MethodPost, path, body, &resp)
	latency := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		metrics.RecordGatewayCall(endpoint, "transport_error", latency)
		c.logger.Warn(ctx, "check-in call failed",
			logger.String("endpoint", endpoint),
			logger.Error(err))
		return model.Outcome{
			Status: model.StatusTransportError,
			Raw:    raw,
			Source: src,
			Detail: err.Error(),
		}
	}

	o := ToOutcome(resp, raw, src)
	metrics.RecordGatewayCall(endpoint, o.Status.String(), latency)
	return o
}

// ToOutcome maps a service response to an outcome. Unknown status tags are
// reported as transport errors.
func ToOutcome(resp checkinapi.ScanResponse, raw string, src model.Source) model.Outcome {
	o := model.Outcome{
		Raw:      raw,
		Source:   src,
		TicketID: resp.TicketNumber,
		Detail:   resp.Error,
	}
	if resp.Attendee != nil {
		o.AttendeeName = resp.Attendee.Name
	}
	if t, ok := checkinapi.ParseScanTime(resp.FirstScanTimeUTC); ok {
		o.FirstScanAt = t
	}

	switch resp.Status {
	case checkinapi.StatusOK:
		o.Status = model.StatusSuccess
	case checkinapi.StatusDuplicate:
		o.Status = model.StatusAlreadyCheckedIn
	case checkinapi.StatusNotFound:
		o.Status = model.StatusUnknownTicket
	case checkinapi.StatusInvalidFormat:
		o.Status = model.StatusMalformed
	case checkinapi.StatusError:
		o.Status = model.StatusTransportError
	default:
		status := resp.Status
		if status == "" {
			status = "NONE"
		}
		o.Status = model.StatusTransportError
		o.Detail = "Unknown status: " + status
	}
	return o
}

// Ping checks that the service answers.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, checkinapi.PathPing, nil, nil)
}

// Stats reads the aggregate attendance count.
func (c *Client) Stats(ctx context.Context) (model.Stats, error) {
	var resp checkinapi.StatsResponse
	if err := c.do(ctx, http.MethodGet, checkinapi.PathStats, nil, &resp); err != nil {
		return model.Stats{}, err
	}
	return model.Stats{PresentCount: resp.PresentCount}, nil
}

// Recent lists the latest check-ins, newest first.
func (c *Client) Recent(ctx context.Context, limit int) ([]model.CheckIn, error) {
	path := checkinapi.PathRecent + "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	var resp checkinapi.RecentResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	out := make([]model.CheckIn, 0, len(resp.Items))
	for _, it := range resp.Items {
		out = append(out, model.CheckIn{
			TicketNumber: it.TicketNumber,
			AttendeeName: it.AttendeeName,
			ScanTime:     it.ScanTimeUTC,
		})
	}
	return out, nil
}

// Export streams the attendance CSV into w and returns the bytes written.
func (c *Client) Export(ctx context.Context, w io.Writer) (int64, error) {
	req, err := c.newRequest(ctx, http.MethodGet, checkinapi.PathExport, nil)
	if err != nil {
		return 0, err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: %d", ErrBadStatus, res.StatusCode)
	}
	n, err := io.Copy(w, res.Body)
	if err != nil {
		return n, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return n, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(checkinapi.RequestIDHeader, uuid.NewString())
	return req, nil
}

// do performs a JSON round trip. Scan responses are decoded even on 4xx
// since the service reports rejected requests as an ERROR status payload.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	_, scan := out.(*checkinapi.ScanResponse)
	if res.StatusCode >= http.StatusInternalServerError ||
		(res.StatusCode >= http.StatusBadRequest && !scan) {
		return fmt.Errorf("%w: %d", ErrBadStatus, res.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: %w", ErrBadPayload, err)
	}
	return nil
}
