package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	platformotel "github.com/louisbranch/spabooking/internal/platform/otel"
	apperrors "github.com/louisbranch/spabooking/internal/services/web/platform/errors"
	"github.com/louisbranch/spabooking/internal/services/web/platform/metrics"
)

const tracerName = "github.com/louisbranch/spabooking/internal/services/web/backend"

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 4 << 10

// Client calls the spa REST API on behalf of one browser session.
type Client struct {
	base   *url.URL
	http   *http.Client
	logger *zap.Logger
	tracer trace.Tracer
}

// call describes one backend request. route is the templated path used for
// span names and metric labels; path is the concrete one.
type call struct {
	method string
	route  string
	path   string
	query  url.Values
	body   any
}

func (c *Client) do(ctx context.Context, req call, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, span := c.tracer.Start(ctx, "backend "+req.method+" "+req.route, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.request.method", req.method),
		attribute.String("url.template", req.route),
	)

	started := time.Now()
	err := c.roundTrip(ctx, span, req, out)
	result := "ok"
	if err != nil {
		result = string(apperrors.KindOf(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.logger.Debug("backend call failed",
			zap.String("method", req.method),
			zap.String("route", req.route),
			zap.Error(err),
		)
	}
	metrics.ObserveBackendRequest(req.method, req.route, result, time.Since(started))
	return err
}

func (c *Client) roundTrip(ctx context.Context, span trace.Span, req call, out any) error {
	target := c.resolve(req.path, req.query)

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", req.method, req.route, err)
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", req.method, req.route, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	platformotel.InjectHeaders(ctx, httpReq.Header)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%s %s: %w", req.method, req.route, ctxErr)
		}
		return fmt.Errorf("%s %s: %w", req.method, req.route, errors.Join(
			apperrors.EK(apperrors.KindUnavailable, "error.backend.unavailable", "backend unavailable"),
			err,
		))
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%s %s: %w", req.method, req.route, decodeError(resp))
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.route, errors.Join(
			apperrors.EK(apperrors.KindUnavailable, "error.backend.unavailable", "backend returned an unreadable response"),
			err,
		))
	}
	return nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	u.RawQuery = ""
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type errorBody struct {
	Message string            `json:"message"`
	Error   string            `json:"error"`
	Errors  map[string]string `json:"errors"`
}

// decodeError classifies a non-2xx response. Validation messages from the
// body are kept so forms can show them.
func decodeError(resp *http.Response) error {
	kind := apperrors.FromStatus(resp.StatusCode)
	if kind == apperrors.KindUnknown {
		kind = apperrors.KindUnavailable
	}

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	message := errorMessage(raw)
	if message == "" {
		message = strings.ToLower(http.StatusText(resp.StatusCode))
	}
	return apperrors.Error{Kind: kind, Key: errorKey(kind), Message: message}
}

func errorMessage(raw []byte) string {
	var body errorBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if len(body.Errors) > 0 {
		fields := make([]string, 0, len(body.Errors))
		for field := range body.Errors {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		parts := make([]string, 0, len(fields))
		for _, field := range fields {
			parts = append(parts, field+": "+body.Errors[field])
		}
		return strings.Join(parts, "; ")
	}
	if message := strings.TrimSpace(body.Message); message != "" {
		return message
	}
	return strings.TrimSpace(body.Error)
}

func errorKey(kind apperrors.Kind) string {
	switch kind {
	case apperrors.KindUnauthorized:
		return "error.backend.unauthenticated"
	case apperrors.KindForbidden:
		return "error.backend.forbidden"
	case apperrors.KindUnavailable:
		return "error.backend.unavailable"
	default:
		return ""
	}
}
