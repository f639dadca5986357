// internal/adapters/triposo/client.go
package triposo

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"triposo/internal/adapters/observability"
	"triposo/internal/domain"
	"triposo/internal/query"
)

const (
	DefaultBaseURL = "https://www.triposo.com/api/20220705"

	headerAccount = "X-Triposo-Account"
	headerToken   = "X-Triposo-Token"
)

// Config is the explicit connection record. There are no ambient defaults for
// credentials.
type Config struct {
	BaseURL   string
	AccountID string
	Token     string
	RPS       int
	Timeout   time.Duration
}

type Option func(*Client)

// WithHTTPClient replaces the default *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// WithCache serves repeated successful GETs from cache for ttl.
func WithCache(cache domain.Cache, ttl time.Duration) Option {
	return func(c *Client) { c.cache, c.ttl = cache, ttl }
}

// WithBuilder swaps the query string builder (query.Raw by default).
func WithBuilder(b query.Builder) Option {
	return func(c *Client) { c.qb = b }
}

// Client performs GET <base>/<resource>.json?<query> with the account and
// token headers. It never retries; one Fetch is at most one request.
type Client struct {
	base    string
	account string
	token   string
	hc      *http.Client
	rl      *rate.Limiter
	qb      query.Builder
	cache   domain.Cache
	ttl     time.Duration
	scope   string // cache namespace per credential pair
}

func New(cfg Config, opts ...Option) (*Client, error) {
	if cfg.AccountID == "" || cfg.Token == "" {
		return nil, errors.New("triposo: account id and token are required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RPS <= 0 {
		cfg.RPS = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 20 * time.Second
	}
	c := &Client{
		base:    strings.TrimRight(cfg.BaseURL, "/"),
		account: cfg.AccountID,
		token:   cfg.Token,
		hc:      &http.Client{Timeout: cfg.Timeout},
		rl:      rate.NewLimiter(rate.Limit(cfg.RPS), cfg.RPS),
		qb:      query.Raw{},
	}
	for _, opt := range opts {
		opt(c)
	}
	sum := sha1.Sum([]byte(cfg.AccountID + "\x00" + cfg.Token))
	c.scope = hex.EncodeToString(sum[:8])
	return c, nil
}

// URL renders the absolute request URL for resource and p.
func (c *Client) URL(resource string, p query.Params) string {
	u := c.base + "/" + resource + ".json"
	if qs := c.qb.Build(p); qs != "" {
		u += "?" + qs
	}
	return u
}

// Fetch returns the decoded envelope, or:
//   - domain.ErrNotFound on 404
//   - domain.ErrUnauthorized on 401
//   - *domain.StatusError on any other non-200
//   - (nil, nil) when a 200 body is not a JSON envelope
func (c *Client) Fetch(ctx context.Context, resource string, p query.Params) (*domain.Envelope, error) {
	url := c.URL(resource, p)
	key := c.cacheKey(url)

	if c.cache != nil {
		var env domain.Envelope
		if ok, err := c.cache.Get(ctx, key, &env); err == nil && ok {
			return &env, nil
		} else if err != nil {
			log.Warn().Err(err).Str("url", url).Msg("cache get failed")
		}
	}

	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, wireURL(url), nil)
	if err != nil {
		return nil, errors.Wrapf(err, "build request for %s", resource)
	}
	req.Header.Set(headerAccount, c.account)
	req.Header.Set(headerToken, c.token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "triposo-go/1.0")

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("triposo", resource, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.Wrapf(err, "GET %s", resource)
	}
	defer resp.Body.Close()
	observability.ObserveExternal("triposo", resource, resp.StatusCode, time.Since(start))
	log.Debug().Str("url", url).Int("status", resp.StatusCode).Dur("duration", time.Since(start)).Msg("triposo fetch")

	switch resp.StatusCode {
	case http.StatusOK:
		var env domain.Envelope
		if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
			// Undecodable success bodies are reported as "no data", not as errors.
			log.Warn().Err(err).Str("url", url).Msg("triposo: undecodable response body")
			return nil, nil
		}
		if c.cache != nil {
			if err := c.cache.Set(ctx, key, env, int(c.ttl.Seconds())); err != nil {
				log.Warn().Err(err).Str("url", url).Msg("cache set failed")
			}
		}
		return &env, nil

	case http.StatusNotFound:
		io.Copy(io.Discard, resp.Body)
		return nil, domain.ErrNotFound

	case http.StatusUnauthorized:
		io.Copy(io.Discard, resp.Body)
		return nil, errors.WithDetailf(domain.ErrUnauthorized, "account %q", c.account)

	default:
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &domain.StatusError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
}

// cacheKey scopes entries to the account and token pair.
func (c *Client) cacheKey(url string) string { return "triposo:" + c.scope + ":" + url }

// CacheKey is the cache entry name Fetch uses for resource and p.
func (c *Client) CacheKey(resource string, p query.Params) string {
	return c.cacheKey(c.URL(resource, p))
}

// wireURL percent-encodes the bytes that cannot appear on a request line
// (space, controls, non-ASCII). Reserved characters such as & = : > , are
// sent as built.
func wireURL(u string) string {
	const hexDigits = "0123456789ABCDEF"
	var b strings.Builder
	for i := 0; i < len(u); i++ {
		ch := u[i]
		if ch <= ' ' || ch >= 0x7f {
			if b.Len() == 0 {
				b.Grow(len(u) + 8)
				b.WriteString(u[:i])
			}
			b.WriteByte('%')
			b.WriteByte(hexDigits[ch>>4])
			b.WriteByte(hexDigits[ch&0x0f])
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(ch)
		}
	}
	if b.Len() == 0 {
		return u
	}
	return b.String()
}
