package vkapi

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

	"vkscraper/pkg/config"
	"vkscraper/pkg/errtable"
	"vkscraper/pkg/logger"
	"vkscraper/pkg/ratelimit"
	"vkscraper/pkg/retry"
)

// funcV is the execute-method code version VK expects.
const funcV = "1"

// Client is a synchronous VK API client. Every call fully completes,
// including all retries, before control returns. The error table is the only
// state shared across calls and is read-only after construction.
type Client struct {
	httpClient  *http.Client
	endpoint    *url.URL
	accessToken string
	apiVersion  string
	table       *errtable.Table
	backoff     retry.BackoffStrategy
	maxAttempts int
	limiter     ratelimit.Limiter
	logger      logger.Logger

	// sleep is swappable so tests can observe retry delays.
	sleep func(ctx context.Context, delay time.Duration) error
}

// New creates a VK API client from configuration and a loaded error table.
func New(cfg *config.Config, table *errtable.Table, log logger.Logger) (*Client, error) {
	if table == nil {
		return nil, fmt.Errorf("error table is required")
	}
	if log == nil {
		log = logger.GetLogger()
	}

	endpoint, err := url.Parse(cfg.VK.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}

	var limiter ratelimit.Limiter
	if rps := cfg.RateLimit.RequestsPerSecond; rps > 0 {
		limiter = ratelimit.NewTokenBucket(rps, time.Second)
	}

	return &Client{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		endpoint:    endpoint,
		accessToken: cfg.VK.AccessToken,
		apiVersion:  cfg.VK.APIVersion,
		table:       table,
		backoff: &retry.ExponentialBackoff{
			BaseDelay:  time.Duration(cfg.Retry.BackoffFactor * float64(time.Second)),
			Multiplier: 2,
		},
		maxAttempts: cfg.Retry.MaxAttempts,
		limiter:     limiter,
		logger:      log,
		sleep:       retry.Wait,
	}, nil
}

// baseParams returns the query values every VK method call carries.
func (c *Client) baseParams(extra map[string]string) url.Values {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	params.Set("v", c.apiVersion)
	for k, v := range extra {
		params.Set(k, v)
	}
	return params
}

// methodURL joins the endpoint with a method name and attaches the query.
func (c *Client) methodURL(method string, params url.Values) string {
	u := c.endpoint.JoinPath(method)
	u.RawQuery = params.Encode()
	return u.String()
}

// get performs one HTTP GET attempt and consumes the body.
func (c *Client) get(ctx context.Context, target string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Type: ErrorTypeTransport, Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"url":      req.URL.Redacted(),
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &Error{Type: ErrorTypeTransport, Message: fmt.Sprintf("network error: %v", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Type: ErrorTypeTransport, Message: fmt.Sprintf("failed to read response body: %v", err), Code: resp.StatusCode}
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return newResponse(resp.StatusCode, body), nil
}

// classifyExecuteErrors is the first classification pass: a body carrying an
// execute_errors list has its effective status and reason replaced by the
// tiered-scan winner. Bodies without the field pass through untouched.
func (c *Client) classifyExecuteErrors(r *Response, env *envelope) (*Response, error) {
	if len(env.ExecuteErrors) == 0 {
		return r, nil
	}

	match, rule, err := c.table.Pick(env.ExecuteErrors)
	if err != nil {
		code := 0
		var unclassified *errtable.UnclassifiedError
		if errors.As(err, &unclassified) {
			code = unclassified.Code
		}
		return nil, &Error{Type: ErrorTypeUnclassified, Message: err.Error(), Code: code}
	}

	out := *r
	out.StatusCode = rule.HTTPStatus
	out.Reason = match.Message
	c.logger.DebugWithFields("status rewritten from execute_errors", map[string]interface{}{
		"error_code": match.Code,
		"status":     rule.HTTPStatus,
	})
	return &out, nil
}

// classifyAPIError is the second classification pass: a body carrying a
// top-level error object has its effective status and reason replaced by the
// matching rule. Bodies without the key pass through untouched.
func (c *Client) classifyAPIError(r *Response, env *envelope) (*Response, error) {
	if env.Error == nil {
		return r, nil
	}

	rule, err := c.table.Classify(env.Error.Code)
	if err != nil {
		return nil, &Error{Type: ErrorTypeUnclassified, Message: env.Error.Message, Code: env.Error.Code}
	}

	out := *r
	out.StatusCode = rule.HTTPStatus
	out.Reason = env.Error.Message
	c.logger.DebugWithFields("status rewritten from error payload", map[string]interface{}{
		"error_code": env.Error.Code,
		"status":     rule.HTTPStatus,
	})
	return &out, nil
}

// effective runs both classification passes in order, deriving the effective
// response the retry loop inspects. Non-JSON bodies are a silent no-op.
func (c *Client) effective(r *Response) (*Response, error) {
	var env envelope
	if err := json.Unmarshal(r.Body, &env); err != nil {
		return r, nil
	}

	out, err := c.classifyExecuteErrors(r, &env)
	if err != nil {
		return nil, err
	}
	return c.classifyAPIError(out, &env)
}

// call dispatches one logical VK method call through the retry loop.
//
// The outcome is one of: a successful response; an absent result (nil
// response and nil error) when a skip-classified error occurred; or a typed
// error, fatal for break, unclassified and transport classes. Retries are
// invisible to the caller; the delay before the nth retry is
// backoffFactor * 2^n and retries are unbounded unless max_attempts is set.
func (c *Client) call(ctx context.Context, method string, params url.Values) (*Response, error) {
	target := c.methodURL(method, params)

	attempt := 0
	for {
		if c.limiter != nil {
			c.limiter.Wait()
		}

		resp, err := c.get(ctx, target)
		if err != nil {
			return nil, err
		}

		eff, err := c.effective(resp)
		if err != nil {
			return nil, err
		}

		if eff.success() {
			return eff, nil
		}

		c.logger.InfoWithFields("response api code", map[string]interface{}{
			"method": method,
			"status": eff.StatusCode,
		})

		action, ok := c.table.ActionForStatus(eff.StatusCode)
		if !ok {
			return nil, &Error{
				Type:    ErrorTypeUnclassified,
				Message: fmt.Sprintf("status %d matches no rule: %s", eff.StatusCode, eff.Reason),
				Code:    eff.StatusCode,
			}
		}

		switch action {
		case errtable.ActionSkip:
			c.logger.InfoWithFields("skip", map[string]interface{}{
				"method": method,
				"reason": eff.Reason,
			})
			return nil, nil

		case errtable.ActionBreak:
			c.logger.ErrorWithFields("break", map[string]interface{}{
				"method": method,
				"reason": eff.Reason,
			})
			return nil, &Error{Type: ErrorTypeBreak, Message: eff.Reason, Code: eff.StatusCode}

		case errtable.ActionRetry:
			attempt++
			if c.maxAttempts > 0 && attempt > c.maxAttempts {
				return nil, &Error{
					Type:    ErrorTypeExhausted,
					Message: fmt.Sprintf("max attempts (%d) exceeded: %s", c.maxAttempts, eff.Reason),
					Code:    eff.StatusCode,
				}
			}

			delay := c.backoff.NextDelay(attempt)
			c.logger.InfoWithFields("retry", map[string]interface{}{
				"method":  method,
				"reason":  eff.Reason,
				"attempt": attempt,
				"wait":    delay.String(),
			})
			if err := c.sleep(ctx, delay); err != nil {
				return nil, fmt.Errorf("retry wait: %w", err)
			}
		}
	}
}

// Execute runs a VKScript code fragment via the execute method and returns
// the raw payload under "response". A skip outcome returns a nil payload and
// nil error.
func (c *Client) Execute(ctx context.Context, code string) (json.RawMessage, error) {
	params := c.baseParams(nil)
	params.Set("code", code)
	params.Set("func_v", funcV)

	c.logger.InfoWithFields("run method", map[string]interface{}{"method": "execute"})

	resp, err := c.call(ctx, "execute", params)
	if err != nil || resp == nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil || env.Response == nil {
		return nil, &Error{Type: ErrorTypeShape, Message: "`response` expected in execute reply"}
	}
	return env.Response, nil
}

// ResolveUserIDs resolves screen names to numeric user ids via users.get.
// A skip outcome returns a nil slice and nil error.
func (c *Client) ResolveUserIDs(ctx context.Context, screenNames []string, extra map[string]string) ([]int64, error) {
	params := c.baseParams(extra)
	params.Set("user_ids", strings.Join(screenNames, ","))

	c.logger.InfoWithFields("run method", map[string]interface{}{
		"method":       "users.get",
		"screen_names": strings.Join(screenNames, ","),
	})

	resp, err := c.call(ctx, "users.get", params)
	if err != nil || resp == nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil || env.Response == nil {
		return nil, &Error{Type: ErrorTypeShape, Message: "`response` expected in users.get reply"}
	}

	var users []userEntry
	if err := json.Unmarshal(env.Response, &users); err != nil {
		return nil, &Error{Type: ErrorTypeShape, Message: fmt.Sprintf("unexpected users.get payload: %v", err)}
	}

	ids := make([]int64, 0, len(users))
	for _, user := range users {
		ids = append(ids, user.ID)
	}
	return ids, nil
}

// GetFriends fetches the friend ids of a user via friends.get. A skip
// outcome returns a nil slice and nil error; a genuinely empty friend list
// returns a non-nil empty slice.
func (c *Client) GetFriends(ctx context.Context, userID int64, extra map[string]string) ([]int64, error) {
	params := c.baseParams(extra)
	params.Set("user_id", strconv.FormatInt(userID, 10))

	c.logger.InfoWithFields("run method", map[string]interface{}{
		"method":  "friends.get",
		"user_id": userID,
	})

	resp, err := c.call(ctx, "friends.get", params)
	if err != nil || resp == nil {
		return nil, err
	}

	var env envelope
	if err := json.Unmarshal(resp.Body, &env); err != nil || env.Response == nil {
		return nil, &Error{Type: ErrorTypeShape, Message: "`response.items` expected in friends.get reply"}
	}

	var payload friendsPayload
	if err := json.Unmarshal(env.Response, &payload); err != nil || payload.Items == nil {
		return nil, &Error{Type: ErrorTypeShape, Message: "`response.items` expected in friends.get reply"}
	}

	c.logger.InfoWithFields("fetched friends", map[string]interface{}{
		"user_id": userID,
		"count":   len(*payload.Items),
	})
	return *payload.Items, nil
}
