package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/iliyamo/slot-booking-api/internal/config"
	"github.com/iliyamo/slot-booking-api/internal/model"
)

// captureWriter captures response body/status while forwarding to the client.
type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
	size   int64
	limit  int64
}

func (cw *captureWriter) WriteHeader(code int) {
	cw.status = code
	cw.ResponseWriter.WriteHeader(code)
}

func (cw *captureWriter) Write(b []byte) (int, error) {
	if cw.limit <= 0 {
		cw.buf.Write(b)
	} else if remain := cw.limit - cw.size; remain > 0 {
		if int64(len(b)) <= remain {
			cw.buf.Write(b)
		} else {
			cw.buf.Write(b[:remain])
		}
	}
	cw.size += int64(len(b))
	return cw.ResponseWriter.Write(b)
}

// Build a stable cache key honoring prefix/strategy.  gen is the purge
// generation; entries written under an older generation are never read.
func cacheKeyFrom(cfg config.CacheConfig, c echo.Context, gen int64) string {
	r := c.Request()
	method := r.Method
	route := c.Path()
	query := r.URL.RawQuery

	parts := []string{cfg.Prefix}
	switch strings.ToLower(cfg.KeyStrategy) {
	case "route":
		parts = append(parts, "route", route)
	case "method_route":
		parts = append(parts, "method", method, "route", route)
	case "method_route_query":
		parts = append(parts, "method", method, "route", route, "q", query)
	default: // "route_query"
		parts = append(parts, "route", route, "q", query)
	}

	parts = append(parts, "gen", strconv.FormatInt(gen, 10))
	tail := strings.Join(parts[1:], ":")
	sum := sha1.Sum([]byte(tail))
	return fmt.Sprintf("%s:%x", parts[0], sum[:])
}

// generationKey holds the purge counter.  It sits outside the prefix:*
// namespace so Purge does not delete it.
func generationKey(prefix string) string {
	return prefix + "-gen"
}

// perRequestHeaders are set by other middleware for each request and must
// not be replayed from a cached response.
var perRequestHeaders = []string{
	echo.HeaderXRequestID,
	echo.HeaderVary,
	echo.HeaderContentLength,
	echo.HeaderXXSSProtection,
	echo.HeaderXContentTypeOptions,
	echo.HeaderXFrameOptions,
	echo.HeaderStrictTransportSecurity,
	echo.HeaderContentSecurityPolicy,
	echo.HeaderReferrerPolicy,
	"X-Cache",
}

// cacheableHeader strips per-request headers (request id, CORS and
// security headers) from h.
func cacheableHeader(h http.Header) http.Header {
	out := h.Clone()
	for _, k := range perRequestHeaders {
		out.Del(k)
	}
	for k := range out {
		if strings.HasPrefix(http.CanonicalHeaderKey(k), "Access-Control-") {
			out.Del(k)
		}
	}
	return out
}

// encodePayload packs: [4 bytes status][4 bytes headerLen][headerJSON][body]
func encodePayload(status int, header http.Header, body []byte) ([]byte, error) {
	hdrJSON, err := json.Marshal(header)
	if err != nil {
		return nil, err
	}
	out := make([]byte, 8+len(hdrJSON)+len(body))
	binary.BigEndian.PutUint32(out[0:4], uint32(status))
	binary.BigEndian.PutUint32(out[4:8], uint32(len(hdrJSON)))
	copy(out[8:8+len(hdrJSON)], hdrJSON)
	copy(out[8+len(hdrJSON):], body)
	return out, nil
}

func decodePayload(bs []byte) (status int, header http.Header, body []byte, ok bool) {
	if len(bs) < 8 {
		return 0, nil, nil, false
	}
	status = int(binary.BigEndian.Uint32(bs[0:4]))
	hlen := int(binary.BigEndian.Uint32(bs[4:8]))
	if hlen < 0 || 8+hlen > len(bs) {
		return 0, nil, nil, false
	}
	hdr := make(http.Header)
	if hlen > 0 {
		if err := json.Unmarshal(bs[8:8+hlen], &hdr); err != nil {
			return 0, nil, nil, false
		}
	}
	return status, hdr, bs[8+hlen:], true
}

// NewRedisCache caches 200 responses (headers + body) of the wrapped routes.
// Only the slot listing is wrapped; CachePurger drops every entry when a
// booking changes availability.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	maxBody := int64(cfg.MaxBodyBytes)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			ctx := c.Request().Context()
			gen, err := rdb.Get(ctx, generationKey(cfg.Prefix)).Int64()
			if err != nil && !errors.Is(err, redis.Nil) {
				return next(c)
			}
			key := cacheKeyFrom(cfg, c, gen)

			if bs, err := rdb.Get(ctx, key).Bytes(); err == nil {
				if status, hdr, body, ok := decodePayload(bs); ok {
					out := c.Response().Header()
					for k, vals := range cacheableHeader(hdr) {
						// headers set for this request win
						if _, present := out[http.CanonicalHeaderKey(k)]; present {
							continue
						}
						for _, v := range vals {
							out.Add(k, v)
						}
					}
					c.Response().Header().Set("X-Cache", "HIT")
					c.Response().WriteHeader(status)
					if len(body) > 0 {
						_, _ = c.Response().Write(body)
					}
					return nil
				}
			}

			// Miss: capture
			cw := &captureWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: maxBody}
			c.Response().Writer = cw
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}
			if cw.status != http.StatusOK || (maxBody > 0 && cw.size > maxBody) {
				return nil
			}

			hdr := cacheableHeader(c.Response().Header())
			if payload, err := encodePayload(cw.status, hdr, cw.buf.Bytes()); err == nil {
				_ = rdb.Set(context.WithoutCancel(ctx), key, payload, ttl).Err()
			}
			return nil
		}
	}
}

// CachePurger deletes every cached slot listing after a booking or a
// cancellation.  It implements booking.Listener.
type CachePurger struct {
	rdb    *redis.Client
	prefix string
	logger zerolog.Logger
}

func NewCachePurger(cfg config.CacheConfig, rdb *redis.Client, logger zerolog.Logger) *CachePurger {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	return &CachePurger{rdb: rdb, prefix: cfg.Prefix, logger: logger}
}

func (p *CachePurger) AppointmentBooked(ctx context.Context, _ model.Appointment) { p.purge(ctx) }

func (p *CachePurger) AppointmentCancelled(ctx context.Context, _ model.Appointment) { p.purge(ctx) }

// Purge bumps the cache generation, then removes all keys under the cache
// prefix and returns how many were deleted.  The bump makes a listing that
// was read before the change, and stored after this call, unreachable.
func (p *CachePurger) Purge(ctx context.Context) (int, error) {
	if err := p.rdb.Incr(ctx, generationKey(p.prefix)).Err(); err != nil {
		return 0, err
	}
	deleted := 0
	iter := p.rdb.Scan(ctx, 0, p.prefix+":*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			n, err := p.rdb.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, err
			}
			deleted += int(n)
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, err
	}
	if len(batch) > 0 {
		n, err := p.rdb.Del(ctx, batch...).Result()
		if err != nil {
			return deleted, err
		}
		deleted += int(n)
	}
	return deleted, nil
}

func (p *CachePurger) purge(ctx context.Context) {
	if p == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := p.Purge(ctx); err != nil {
		p.logger.Warn().Err(err).Msg("slot cache purge failed")
	}
}
