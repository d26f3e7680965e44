package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

// CompletionRequest holds the parameters for a gateway completion call.
type CompletionRequest struct {
	Task        TaskType
	Model       string   // empty uses the task model
	Messages    []Message
	Temperature *float64 // nil uses task default
	MaxTokens   *int     // nil uses task default
}

// CompletionResponse holds the result of a gateway completion call.
type CompletionResponse struct {
	Text         string
	Model        string
	FinishReason string
	LatencyMs    int64
}

// Truncated reports whether the model stopped on its token budget.
func (r *CompletionResponse) Truncated() bool {
	return r != nil && r.FinishReason == "length"
}

// Gateway provides text and vision completions from a language model.
type Gateway interface {
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
}

// gatewayClient implements Gateway against an OpenAI-compatible
// chat-completions endpoint.
type gatewayClient struct {
	cfg      LLMConfig
	http     *http.Client
	tokens   oauth2.TokenSource
	observer Observer
}

// NewGatewayClient creates a Gateway. tokens supplies the bearer credential
// issued by the identity provider; when nil, cfg.APIKey is used as a static
// token.
func NewGatewayClient(cfg LLMConfig, tokens oauth2.TokenSource, observer Observer) Gateway {
	if observer == nil {
		observer = NoopObserver{}
	}
	if tokens == nil && cfg.APIKey != "" {
		tokens = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.APIKey, TokenType: "Bearer"})
	}
	return &gatewayClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		tokens:   tokens,
		observer: observer,
	}
}

// chatRequest is the JSON body sent to POST /chat/completions.
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}

// chatResponse is the JSON body returned by POST /chat/completions.
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *gatewayClient) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	start := time.Now()

	taskCfg := c.cfg.Tasks[req.Task]
	temp := taskCfg.Temperature
	if req.Temperature != nil {
		temp = *req.Temperature
	}
	maxTok := taskCfg.MaxTokens
	if req.MaxTokens != nil {
		maxTok = *req.MaxTokens
	}
	model := req.Model
	if model == "" {
		model = c.cfg.TaskModel(req.Task)
	}

	timeoutMs := c.cfg.TaskTimeout(req.Task)
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutMs)*time.Millisecond)
	defer cancel()

	body := chatRequest{
		Model:       model,
		Messages:    req.Messages,
		Temperature: temp,
		MaxTokens:   maxTok,
	}

	var lastErr error
	attempts := 1 + c.cfg.MaxRetries
	tried := 0

	for i := 0; i < attempts; i++ {
		tried++
		resp, err := c.doRequest(ctx, body)
		if err == nil {
			latency := time.Since(start).Milliseconds()
			c.observer.OnCallComplete(LLMCallEvent{
				Task:      req.Task,
				Model:     model,
				LatencyMs: latency,
				Attempts:  i + 1,
				Success:   true,
			})
			resp.LatencyMs = latency
			return resp, nil
		}
		lastErr = err

		// Only server errors and dropped connections are worth another try.
		if ctx.Err() != nil || !retryable(err) {
			break
		}
	}

	finalErr := c.classify(ctx, lastErr)
	c.observer.OnCallComplete(LLMCallEvent{
		Task:      req.Task,
		Model:     model,
		LatencyMs: time.Since(start).Milliseconds(),
		Attempts:  tried,
		Success:   false,
		ErrorCode: errorCode(finalErr),
	})
	return nil, finalErr
}

func (c *gatewayClient) classify(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ErrTimeout
	}
	if isConnectionError(err) {
		return ErrUnavailable
	}
	if errors.Is(err, ErrServer) && c.cfg.MaxRetries > 0 {
		return fmt.Errorf("%w: %w", ErrRetryExhausted, err)
	}
	return err
}

func (c *gatewayClient) doRequest(ctx context.Context, body chatRequest) (*CompletionResponse, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := strings.TrimRight(c.cfg.Endpoint, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		tok, err := c.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("fetching bearer token: %w", err)
		}
		tok.SetAuthHeader(httpReq)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, statusError(httpResp, respBody)
	}

	var resp chatResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrInvalidOutput, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response (no choices)", ErrInvalidOutput)
	}

	return &CompletionResponse{
		Text:         resp.Choices[0].Message.Content,
		Model:        resp.Model,
		FinishReason: resp.Choices[0].FinishReason,
	}, nil
}

func statusError(resp *http.Response, body []byte) error {
	gwErr := &GatewayError{
		StatusCode: resp.StatusCode,
		Body:       truncate(string(body), 512),
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		gwErr.Err = ErrRateLimited
		gwErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	case resp.StatusCode >= 500:
		gwErr.Err = ErrServer
		gwErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	default:
		gwErr.Err = ErrRejected
	}
	return gwErr
}

// parseRetryAfter understands the delay-seconds form of Retry-After.
func parseRetryAfter(v string) time.Duration {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return 0
	}
	return time.Duration(n) * time.Second
}

func retryable(err error) bool {
	return errors.Is(err, ErrServer) || isConnectionError(err)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

func errorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return "TIMEOUT"
	case errors.Is(err, ErrUnavailable):
		return "UNAVAILABLE"
	case errors.Is(err, ErrRateLimited):
		return "RATE_LIMITED"
	case errors.Is(err, ErrServer):
		return "SERVER"
	case errors.Is(err, ErrRejected):
		return "REJECTED"
	case errors.Is(err, ErrInvalidOutput):
		return "INVALID_OUTPUT"
	default:
		return "UNKNOWN"
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
