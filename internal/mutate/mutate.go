// Package mutate issues the authenticated calls that change remote LMS
// state: topic and activity reorganization, embedded-content page creation,
// and access-restriction updates. The endpoints are an undocumented mix of
// form posts, AJAX services, and query-string toggles; every state change
// needs a sesskey derived shortly before the call, and the LMS signals
// rejection through redirects and error envelopes rather than status codes.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/paatshala-go-api/internal/observability"
	"github.com/noah-isme/paatshala-go-api/internal/parser"
	"github.com/noah-isme/paatshala-go-api/internal/session"
)

// ErrRejected tags mutations the LMS refused: permission walls, stale
// sesskeys, and validation failures all land here. Callers surface it as an
// applied=false outcome, not as a transport fault.
var ErrRejected = errors.New("mutation rejected by lms")

// Client performs state-changing calls against the LMS.
type Client struct {
	session *session.Manager
	tracer  trace.Tracer
	logger  zerolog.Logger
}

// New builds a mutation client on top of an authenticated session manager.
func New(sess *session.Manager, logger zerolog.Logger) *Client {
	observability.RegisterMetrics()
	return &Client{
		session: sess,
		tracer:  otel.Tracer("github.com/noah-isme/paatshala-go-api/internal/mutate"),
		logger:  logger.With().Str("component", "mutate").Logger(),
	}
}

// FreshSesskey derives a sesskey for an upcoming batch of mutations. The
// token outlives single calls but not whole sessions, so batches derive one
// immediately before their first call instead of caching it.
func (c *Client) FreshSesskey(ctx context.Context, courseID int) (string, error) {
	return c.session.Sesskey(ctx, courseID)
}

func (c *Client) baseURL() string {
	return c.session.BaseURL()
}

// do wraps one mutation with its span, outcome metric, and log line.
func (c *Client) do(ctx context.Context, op string, fn func(ctx context.Context, client *http.Client) error) error {
	ctx, span := c.tracer.Start(ctx, "mutate."+op)
	defer span.End()

	client, err := c.session.Client(ctx)
	if err != nil {
		observability.Mutations().WithLabelValues(op, "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_unavailable")
		return err
	}

	err = fn(ctx, client)
	switch {
	case err == nil:
		observability.Mutations().WithLabelValues(op, "ok").Inc()
		c.logger.Info().Str("op", op).Msg("mutation applied")
	case errors.Is(err, ErrRejected):
		observability.Mutations().WithLabelValues(op, "rejected").Inc()
		c.logger.Warn().Err(err).Str("op", op).Msg("mutation rejected")
		span.RecordError(err)
		span.SetStatus(codes.Error, "rejected")
	default:
		observability.Mutations().WithLabelValues(op, "error").Inc()
		c.logger.Error().Err(err).Str("op", op).Msg("mutation failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "transport_error")
	}
	return err
}

// getOK fires a query-string mutation and accepts any 200 answer.
func (c *Client) getOK(ctx context.Context, client *http.Client, rawURL string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("mutation call: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: answered %d", ErrRejected, resp.StatusCode)
	}
	return nil
}

// postForm submits an urlencoded form and returns the final URL after
// redirects plus the status, the two signals the form endpoints carry
// success in.
func (c *Client) postForm(ctx context.Context, client *http.Client, action string, fields url.Values) (finalURL string, status int, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, strings.NewReader(fields.Encode()))
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("form post: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.Request.URL.String(), resp.StatusCode, nil
}

// restCall posts one drag-drop editor command. The endpoint answers 200
// with a JSON payload on success and a bare error status on refusal.
func (c *Client) restCall(ctx context.Context, client *http.Client, fields url.Values) error {
	endpoint := c.baseURL() + "/course/rest.php"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(fields.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("editor call: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: editor answered %d", ErrRejected, resp.StatusCode)
	}
	return nil
}

// inplaceEdit renames a named entity through the inline-edit service.
func (c *Client) inplaceEdit(ctx context.Context, client *http.Client, sesskey, component, itemType string, itemID int, value string) error {
	payload := fmt.Sprintf(
		`[{"index":0,"methodname":"core_update_inplace_editable","args":{"component":%q,"itemtype":%q,"itemid":%d,"value":%q}}]`,
		component, itemType, itemID, value,
	)
	endpoint := fmt.Sprintf("%s/lib/ajax/service.php?sesskey=%s&info=core_update_inplace_editable", c.baseURL(), sesskey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("inline edit: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read inline edit response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: inline edit answered %d", ErrRejected, resp.StatusCode)
	}
	if _, err := parser.ServiceData(body); err != nil {
		return fmt.Errorf("%w: %s", ErrRejected, err)
	}
	return nil
}

// fetchForm GETs an edit form and harvests every field's current value, so
// the follow-up post keeps the hidden and required fields the caller never
// heard of.
func (c *Client) fetchForm(ctx context.Context, client *http.Client, formURL string) (url.Values, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, formURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch form: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("%w: form answered %d", ErrRejected, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read form: %w", err)
	}

	fields, action, err := parser.ParseFormFields(string(body), "form")
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s", ErrRejected, err)
	}
	if action == "" {
		action = formURL
	} else if strings.HasPrefix(action, "/") {
		action = c.baseURL() + action
	}
	return fields, action, nil
}
