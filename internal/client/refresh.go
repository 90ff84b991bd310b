package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"quizclient/internal/credentials"
	"quizclient/internal/models"
)

type RefreshState int32

const (
	RefreshIdle RefreshState = iota
	RefreshRefreshing
	RefreshFailed
)

func (s RefreshState) String() string {
	switch s {
	case RefreshRefreshing:
		return "refreshing"
	case RefreshFailed:
		return "failed"
	}
	return "idle"
}

const maxResponseBytes = 4 << 20

// RefreshCoordinator collapses concurrent refresh attempts into a single
// network call and hands its outcome to every waiter.
type RefreshCoordinator struct {
	store      credentials.Store
	httpClient *http.Client
	baseURL    string
	timeout    time.Duration
	group      singleflight.Group
	state      atomic.Int32

	// onFailure runs once per failed flight, after credentials are cleared.
	onFailure func()
}

func NewRefreshCoordinator(store credentials.Store, httpClient *http.Client, baseURL string, timeout time.Duration) *RefreshCoordinator {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &RefreshCoordinator{
		store:      store,
		httpClient: httpClient,
		baseURL:    baseURL,
		timeout:    timeout,
	}
}

func (rc *RefreshCoordinator) State() RefreshState {
	return RefreshState(rc.state.Load())
}

// Refresh exchanges the stored refresh token for a new pair. staleAccess is
// the access token the caller's rejected request carried; if the store already
// holds a different one, a refresh has completed in the meantime and the stored
// pair is returned without a network call.
//
// The exchange is not tied to ctx: if the caller gives up, Refresh returns
// ctx.Err() while the exchange finishes for the remaining waiters.
func (rc *RefreshCoordinator) Refresh(ctx context.Context, staleAccess string) (models.CredentialPair, error) {
	// A failed load is retried inside the flight, which clears on failure.
	if current, err := rc.store.Load(ctx); err == nil {
		if current.RefreshToken == "" {
			return models.CredentialPair{}, ErrNoRefreshToken
		}
		if staleAccess != "" && current.AccessToken != staleAccess {
			return current, nil
		}
	}

	detached := context.WithoutCancel(ctx)
	ch := rc.group.DoChan("refresh", func() (interface{}, error) {
		return rc.run(detached, staleAccess)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return models.CredentialPair{}, res.Err
		}
		return res.Val.(models.CredentialPair), nil
	case <-ctx.Done():
		return models.CredentialPair{}, ctx.Err()
	}
}

func (rc *RefreshCoordinator) run(ctx context.Context, staleAccess string) (models.CredentialPair, error) {
	ctx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	rc.state.Store(int32(RefreshRefreshing))

	// Re-check under the flight: an earlier flight may have finished between
	// the caller's check and joining this one.
	current, err := rc.store.Load(ctx)
	if err != nil {
		return rc.fail(ctx, fmt.Errorf("%w: %w", ErrRefreshFailed, err))
	}
	if current.RefreshToken == "" {
		rc.state.Store(int32(RefreshIdle))
		return models.CredentialPair{}, ErrNoRefreshToken
	}
	if staleAccess != "" && current.AccessToken != staleAccess {
		rc.state.Store(int32(RefreshIdle))
		return current, nil
	}

	pair, err := rc.exchange(ctx, current.RefreshToken)
	if err != nil {
		return rc.fail(ctx, err)
	}
	if err := rc.store.Save(ctx, pair); err != nil {
		return rc.fail(ctx, fmt.Errorf("%w: %w", ErrRefreshFailed, err))
	}

	rc.state.Store(int32(RefreshIdle))
	log.Debug().Msg("Access token refreshed")
	return pair, nil
}

func (rc *RefreshCoordinator) fail(ctx context.Context, cause error) (models.CredentialPair, error) {
	rc.state.Store(int32(RefreshFailed))
	log.Warn().Err(cause).Msg("Token refresh failed, clearing credentials")

	// ctx may be the expired exchange deadline.
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rc.timeout)
	defer cancel()
	if err := rc.store.Clear(cctx); err != nil {
		log.Error().Err(err).Msg("Failed to clear credentials after refresh failure")
	}
	rc.state.Store(int32(RefreshIdle))
	if rc.onFailure != nil {
		rc.onFailure()
	}
	return models.CredentialPair{}, cause
}

func (rc *RefreshCoordinator) exchange(ctx context.Context, refreshToken string) (models.CredentialPair, error) {
	target, err := resolveURL(rc.baseURL, pathRefresh)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	payload, _ := json.Marshal(models.RefreshRequest{RefreshToken: refreshToken})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := rc.httpClient.Do(req)
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return models.CredentialPair{}, fmt.Errorf("%w: status %d: %s",
			ErrRefreshFailed, resp.StatusCode, parseDetail(body, http.StatusText(resp.StatusCode)))
	}

	var tokens models.AuthTokens
	if err := json.Unmarshal(body, &tokens); err != nil {
		return models.CredentialPair{}, fmt.Errorf("%w: %w: %v", ErrRefreshFailed, ErrDecodingFailed, err)
	}
	pair := tokens.Pair()
	if !pair.Valid() {
		return models.CredentialPair{}, fmt.Errorf("%w: response missing tokens", ErrRefreshFailed)
	}
	return pair, nil
}
