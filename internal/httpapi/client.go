package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
)

const (
	contentType      = "application/json"
	defaultUserAgent = "spigell/interview-coach"
)

// Client talks to a remote session API. It satisfies Sessions, so the CLI can
// drive either a local service or a server the same way.
type Client struct {
	baseURL    string
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
}

var _ Sessions = (*Client)(nil)

func NewClient(baseURL string, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger.WithFields(log),
		HTTPClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		UserAgent: defaultUserAgent,
	}
}

func (c *Client) Start(ctx context.Context, id string) (*interview.Prompt, error) {
	var prompt interview.Prompt
	if err := c.postJSON(ctx, "/v1/sessions", StartRequest{SessionID: id}, http.StatusCreated, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (c *Client) Submit(ctx context.Context, id, text string) (*interview.Turn, error) {
	var turn interview.Turn
	if err := c.postJSON(ctx, sessionPath(id, "responses"), AnswerRequest{Answer: text}, http.StatusOK, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

func (c *Client) Skip(ctx context.Context, id string) (*interview.Turn, error) {
	var turn interview.Turn
	if err := c.postJSON(ctx, sessionPath(id, "skip"), nil, http.StatusOK, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

func (c *Client) ForceTransition(ctx context.Context, id string, target interview.Phase, justification string) (*interview.Turn, error) {
	var turn interview.Turn
	body := TransitionRequest{Phase: target, Justification: justification}
	if err := c.postJSON(ctx, sessionPath(id, "transition"), body, http.StatusOK, &turn); err != nil {
		return nil, err
	}
	return &turn, nil
}

func (c *Client) Abandon(ctx context.Context, id string) (*interview.FeedbackReport, error) {
	var rep interview.FeedbackReport
	if err := c.postJSON(ctx, sessionPath(id, "abandon"), nil, http.StatusOK, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func (c *Client) Current(ctx context.Context, id string) (*interview.Prompt, error) {
	var prompt interview.Prompt
	if err := c.getJSON(ctx, sessionPath(id, "prompt"), nil, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

func (c *Client) State(ctx context.Context, id string) (*interview.SessionState, error) {
	var resp StateResponse
	if err := c.getJSON(ctx, sessionPath(id, ""), nil, &resp); err != nil {
		return nil, err
	}
	return resp.State, nil
}

func (c *Client) Report(ctx context.Context, id string) (*interview.FeedbackReport, error) {
	var rep interview.FeedbackReport
	if err := c.getJSON(ctx, sessionPath(id, "report"), url.Values{"format": {"json"}}, &rep); err != nil {
		return nil, err
	}
	return &rep, nil
}

func sessionPath(id, action string) string {
	p := "/v1/sessions/" + url.PathEscape(id)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	if q != nil {
		req.URL.RawQuery = q.Encode()
	}
	return c.do(c.setHeaders(req), http.StatusOK, target)
}

func (c *Client) postJSON(ctx context.Context, path string, body any, want int, target any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req = c.setHeaders(req)
	req.Header.Set("Content-Type", contentType)
	return c.do(req, want, target)
}

func (c *Client) do(req *http.Request, want int, target any) error {
	c.logger.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != want {
		return decodeError(resp, data)
	}
	if target == nil {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// decodeError restores the sentinel error named by the server when there is one.
func decodeError(resp *http.Response, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil || body.Error == "" {
		return fmt.Errorf("bad status: %s", resp.Status)
	}
	if sentinelErr := sentinel(body.Code); sentinelErr != nil {
		return fmt.Errorf("%s: %w", body.Error, sentinelErr)
	}
	return fmt.Errorf("bad status: %s: %s", resp.Status, body.Error)
}

func (c *Client) setHeaders(req *http.Request) *http.Request {
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	return req
}
