package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"quizclient/internal/credentials"
)

const DefaultRetryLimit = 3

type Options struct {
	BaseURL        string
	RetryLimit     int
	RequestTimeout time.Duration
	RefreshTimeout time.Duration
	// RequestsPerSecond paces outbound requests; zero disables pacing.
	RequestsPerSecond float64
	HTTPClient        *http.Client
}

// Client performs API requests, attaching bearer credentials and recovering
// from expired access tokens through a shared RefreshCoordinator.
type Client struct {
	baseURL    string
	httpClient *http.Client
	store      credentials.Store
	refresher  *RefreshCoordinator
	retryLimit int
	limiter    *rate.Limiter

	mu       sync.RWMutex
	onLogout []func()
	logoutMu sync.Mutex
}

func New(store credentials.Store, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 15 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	retryLimit := opts.RetryLimit
	if retryLimit <= 0 {
		retryLimit = DefaultRetryLimit
	}

	c := &Client{
		baseURL:    opts.BaseURL,
		httpClient: httpClient,
		store:      store,
		refresher:  NewRefreshCoordinator(store, httpClient, opts.BaseURL, opts.RefreshTimeout),
		retryLimit: retryLimit,
	}
	c.refresher.onFailure = c.notifyLogout
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}
	return c
}

// Refresher exposes the coordinator so callers can observe its state.
func (c *Client) Refresher() *RefreshCoordinator {
	return c.refresher
}

// OnLogout registers fn to run whenever credentials are cleared because
// authentication could not be recovered.
func (c *Client) OnLogout(fn func()) {
	c.mu.Lock()
	c.onLogout = append(c.onLogout, fn)
	c.mu.Unlock()
}

// Request performs ep and decodes a successful response into a T.
func Request[T any](ctx context.Context, c *Client, ep Endpoint) (T, error) {
	var out T
	err := c.Do(ctx, ep, &out)
	return out, err
}

// Do performs ep and decodes a successful response body into out (if non-nil).
// A 401 on an authenticated endpoint triggers a coordinated refresh and a retry
// of the same request; at most RetryLimit such retries happen per call.
func (c *Client) Do(ctx context.Context, ep Endpoint, out any) error {
	target, err := resolveURL(c.baseURL, ep.Path)
	if err != nil {
		return err
	}

	retries := 0
	for {
		token := ""
		if ep.RequiresAuth {
			pair, err := c.store.Load(ctx)
			if err != nil {
				return fmt.Errorf("%w: %w", ErrTokenNotFound, err)
			}
			if pair.AccessToken == "" {
				return ErrTokenNotFound
			}
			token = pair.AccessToken
		}

		status, body, err := c.send(ctx, ep, target, token)
		if err != nil {
			return err
		}

		switch {
		case status >= 200 && status < 300:
			if out == nil || len(body) == 0 {
				return nil
			}
			if err := json.Unmarshal(body, out); err != nil {
				return fmt.Errorf("%w: %v", ErrDecodingFailed, err)
			}
			return nil

		case status == http.StatusUnauthorized && ep.RequiresAuth:
			if retries >= c.retryLimit {
				log.Warn().Str("path", ep.Path).Int("retries", retries).Msg("Retry limit reached after repeated 401s, logging out")
				c.forceLogout(ctx)
				return ErrTokenNotFound
			}
			retries++
			// A failed refresh has already cleared the store and told the
			// logout listeners.
			if _, err := c.refresher.Refresh(ctx, token); err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				return fmt.Errorf("%w: %w", ErrTokenNotFound, err)
			}

		case status >= 400 && status < 500:
			return &ClientError{Status: status, Detail: parseDetail(body, genericClientMessage)}

		case status >= 500 && status < 600:
			return &ServerError{Status: status, Detail: parseDetail(body, genericServerMessage)}

		default:
			return fmt.Errorf("%w: unexpected status %d", ErrUnknown, status)
		}
	}
}

func (c *Client) send(ctx context.Context, ep Endpoint, target, token string) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, err
		}
	}

	var body io.Reader
	contentType := ""
	if ep.Body != nil {
		r, ct, err := ep.Body.encode()
		if err != nil {
			return 0, nil, err
		}
		body, contentType = r, ct
	}

	method := ep.Method
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, nil, ctxErr
		}
		return 0, nil, fmt.Errorf("%s %s: %w", method, ep.Path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, data, nil
}

// forceLogout clears credentials and notifies logout listeners. Callers that
// find the store already empty were logged out by someone else and stay quiet.
func (c *Client) forceLogout(ctx context.Context) {
	c.logoutMu.Lock()
	defer c.logoutMu.Unlock()

	ctx = context.WithoutCancel(ctx)
	if pair, err := c.store.Load(ctx); err == nil && pair.AccessToken == "" && pair.RefreshToken == "" {
		return
	}
	if err := c.store.Clear(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to clear credentials")
	}
	c.notifyLogout()
}

func (c *Client) notifyLogout() {
	c.mu.RLock()
	listeners := append([]func(){}, c.onLogout...)
	c.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}
