// internal/adapters/backend/client.go
package backend

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"condo_calendar/internal/adapters/observability"
	"condo_calendar/internal/domain"
)

// expirySkew refreshes a little before the token actually lapses.
const expirySkew = 30 * time.Second

const maxAttempts = 4

// Client talks to the condominium REST backend with bearer auth.
type Client struct {
	base string
	hc   *http.Client
	rl   *rate.Limiter

	mu     sync.Mutex
	tokens domain.Tokens

	refreshMu sync.Mutex
}

func New(base string, rps int) *Client {
	if rps <= 0 {
		rps = 5
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: 20 * time.Second},
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}
}

func (c *Client) SetTokens(t domain.Tokens) {
	c.mu.Lock()
	c.tokens = t
	c.mu.Unlock()
}

func (c *Client) Tokens() domain.Tokens {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tokens
}

// ---- Auth ----

func (c *Client) Login(ctx context.Context, username, password string) (domain.Tokens, error) {
	var t domain.Tokens
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "token", c.base+"/api/token/", body, &t, ""); err != nil {
		return domain.Tokens{}, fmt.Errorf("login: %w", err)
	}
	c.SetTokens(t)
	return t, nil
}

// Authenticate uses a pre-issued token when given, otherwise logs in.
func (c *Client) Authenticate(ctx context.Context, token, username, password string) error {
	if token != "" {
		c.SetTokens(domain.Tokens{Access: token})
		return nil
	}
	if username == "" {
		return fmt.Errorf("login: %w: no token or username configured", domain.ErrUnauthorized)
	}
	_, err := c.Login(ctx, username, password)
	return err
}

// Refresh exchanges the refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context) error { return c.refresh(ctx, "") }

// refresh swaps tokens unless another caller already replaced the access
// token; rejected is the token the server just refused, if any. The shared
// token is never blanked, so concurrent callers keep sending a bearer.
func (c *Client) refresh(ctx context.Context, rejected string) error {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	cur := c.Tokens()
	if cur.Refresh == "" {
		return domain.ErrTokenExpired
	}
	if cur.Access != "" && cur.Access != rejected && !expired(cur.Access, time.Now()) {
		return nil
	}
	var out domain.Tokens
	if err := c.do(ctx, http.MethodPost, "token_refresh", c.base+"/api/token/refresh/",
		map[string]string{"refresh": cur.Refresh}, &out, ""); err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			return domain.ErrTokenExpired
		}
		return err
	}
	if out.Refresh == "" {
		out.Refresh = cur.Refresh
	}
	c.SetTokens(out)
	return nil
}

// expired reports whether a JWT access token's exp has passed. Tokens that are
// not JWTs, or carry no exp, are left for the server to judge.
func expired(tok string, now time.Time) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !now.Add(expirySkew).Before(claims.ExpiresAt.Time)
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	t := c.Tokens()
	if t.Access == "" || !expired(t.Access, time.Now()) {
		return t.Access, nil
	}
	if err := c.Refresh(ctx); err != nil {
		return "", err
	}
	return c.Tokens().Access, nil
}

// ---- Public API ----

func (c *Client) ListReservations(ctx context.Context, condominiumID string) ([]map[string]any, error) {
	var out []map[string]any
	return out, c.authed(ctx, http.MethodGet, "reservations", c.listURL("/api/reservations/", condominiumID), nil, &out)
}

func (c *Client) ListApartments(ctx context.Context, condominiumID string) ([]domain.Apartment, error) {
	var raw []map[string]any
	if err := c.authed(ctx, http.MethodGet, "apartments", c.listURL("/api/apartments/", condominiumID), nil, &raw); err != nil {
		return nil, err
	}
	out := make([]domain.Apartment, 0, len(raw))
	for _, m := range raw {
		out = append(out, domain.Apartment{
			ID:            idString(m["id"]),
			CondominiumID: idString(m["condominium"]),
			Type:          domain.ApartmentType(intOf(m["type"])),
			MaxOccupation: intOf(m["max_occupation"]),
			Status:        domain.ApartmentStatus(intOf(m["status"])),
		})
	}
	return out, nil
}

func (c *Client) CreateReservation(ctx context.Context, d domain.ReservationDraft) error {
	return c.authed(ctx, http.MethodPost, "reservations_create", c.base+"/api/reservations/", d, nil)
}

func (c *Client) ExtractDates(ctx context.Context, pdfBase64 string) (map[string]any, error) {
	var out map[string]any
	body := map[string]string{"pdf_base64": pdfBase64}
	return out, c.authed(ctx, http.MethodPost, "extract_dates", c.base+"/api/reservations/extract-dates/", body, &out)
}

func (c *Client) listURL(path, condominiumID string) string {
	u := c.base + path
	if condominiumID != "" {
		u += "?" + url.Values{"condominium": {condominiumID}}.Encode()
	}
	return u
}

// ---- Internals ----

// authed runs an authenticated call; a 401 triggers one refresh and retry.
func (c *Client) authed(ctx context.Context, method, endpoint, u string, body, out any) error {
	tok, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	err = c.do(ctx, method, endpoint, u, body, out, tok)
	if !errors.Is(err, domain.ErrUnauthorized) || c.Tokens().Refresh == "" {
		return err
	}
	if rerr := c.refresh(ctx, tok); rerr != nil {
		return err
	}
	return c.do(ctx, method, endpoint, u, body, out, c.Tokens().Access)
}

// retryable reports whether a status may be retried for the given method.
// Non-GET calls are only retried when the server refused them outright (429).
func retryable(method string, status int) bool {
	switch status {
	case http.StatusTooManyRequests:
		return true
	case http.StatusInternalServerError, http.StatusBadGateway,
		http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return method == http.MethodGet
	}
	return false
}

// do performs one logical call with client-side rate limiting, retries, and
// JSON encode/decode. Retries honour Retry-After when provided. An empty
// bearer sends no Authorization header.
func (c *Client) do(ctx context.Context, method, endpoint, u string, body, out any, bearer string) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		payload = b
	}

	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		var rd io.Reader
		if payload != nil {
			rd = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rd)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "condo-calendar/1.0")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if bearer != "" {
			req.Header.Set("Authorization", "Bearer "+bearer)
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			observability.ObserveBackend(endpoint, 0, time.Since(start))
			if ctx.Err() != nil {
				return ctx.Err()
			}
			lastErr = err
			// a dropped connection may have applied a POST; only GETs retry
			if method == http.MethodGet && i < maxAttempts-1 && sleepCtx(ctx, backoff(i)) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr
		}
		observability.ObserveBackend(endpoint, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNoContent:
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			return nil

		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			defer resp.Body.Close()
			if out == nil {
				io.Copy(io.Discard, resp.Body)
				return nil
			}
			if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
				return fmt.Errorf("decode %s: %w", endpoint, err)
			}
			return nil

		case resp.StatusCode == http.StatusNotFound:
			resp.Body.Close()
			return domain.ErrNotFound

		case resp.StatusCode == http.StatusUnauthorized:
			resp.Body.Close()
			return domain.ErrUnauthorized

		case resp.StatusCode == http.StatusForbidden:
			resp.Body.Close()
			return domain.ErrForbidden

		case retryable(method, resp.StatusCode):
			wait := retryAfter(resp)
			resp.Body.Close()
			if wait == 0 {
				wait = backoff(i)
			}
			lastErr = fmt.Errorf("%s: remote %d", endpoint, resp.StatusCode)
			if i < maxAttempts-1 && sleepCtx(ctx, wait) {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return lastErr

		default:
			// read a small error body for diagnostics
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
			resp.Body.Close()
			return fmt.Errorf("%s: bad status %d: %s", endpoint, resp.StatusCode, strings.TrimSpace(string(b)))
		}
	}

	return lastErr
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles from 200ms per attempt with up to +50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return base
	}
	f := float64(b[0]) / 255.0
	return base + time.Duration(0.5*f*float64(base))
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func intOf(v any) int {
	switch t := v.(type) {
	case float64:
		return int(t)
	case string:
		n, _ := strconv.Atoi(strings.TrimSpace(t))
		return n
	}
	return 0
}
