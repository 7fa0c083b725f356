package supplier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/adapters/observability"
	"github.com/hatemcha4ut/api.hotel.com.tn-sub000/internal/domain"
)

const (
	defaultTimeout = 30 * time.Second
	maxRetries     = 2
	backoffBase    = 1 * time.Second
	backoffCap     = 5 * time.Second
)

// transport issues supplier HTTP calls: POST {base}/{service} with a bounded
// timeout. Idempotent calls are retried on transport failures with bounded
// exponential backoff; non-idempotent calls (BookingCreation) are never
// retried, since a blind retry could create a duplicate reservation.
type transport struct {
	base    string
	hc      *http.Client
	rl      *rate.Limiter
	timeout time.Duration
}

func newTransport(base string, timeout time.Duration, rps int) *transport {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if rps <= 0 {
		rps = 5
	}
	return &transport{
		base: base,
		// The per-call deadline lives on the request context, not the client.
		hc:      &http.Client{},
		rl:      rate.NewLimiter(rate.Limit(rps), rps),
		timeout: timeout,
	}
}

// call posts body to the named service and returns the raw response bytes.
func (t *transport) call(ctx context.Context, service, contentType string, body []byte, idempotent bool) ([]byte, error) {
	if err := t.rl.Wait(ctx); err != nil {
		return nil, &domain.TransportError{Service: service, Err: err}
	}

	attempts := 1
	if idempotent {
		attempts += maxRetries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		raw, err := t.once(ctx, service, contentType, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if !domain.IsRetryable(err) || i == attempts-1 {
			return nil, err
		}
		wait := backoffDelay(i)
		log.Warn().Str("service", service).Int("attempt", i+1).
			Dur("backoff", wait).Err(err).Msg("supplier call failed, retrying")
		if !sleepCtx(ctx, wait) {
			return nil, &domain.TransportError{Service: service, Err: ctx.Err()}
		}
	}
	return nil, lastErr
}

func (t *transport) once(ctx context.Context, service, contentType string, body []byte) ([]byte, error) {
	cctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	url := t.base + "/" + service
	req, err := http.NewRequestWithContext(cctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{Service: service, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("User-Agent", "hotel-tn/1.0")

	start := time.Now()
	resp, err := t.hc.Do(req)
	if err != nil {
		observability.ObserveExternal("supplier", service, 0, time.Since(start))
		return nil, &domain.TransportError{Service: service, Timeout: isTimeout(err), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	observability.ObserveExternal("supplier", service, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, &domain.TransportError{Service: service, Timeout: isTimeout(err), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Credentials are request-only; the supplier never echoes them, so a
		// bounded body preview is safe to carry.
		return nil, &domain.BusinessError{
			Service: service,
			Code:    fmt.Sprintf("http_%d", resp.StatusCode),
			Message: "supplier returned non-2xx status",
			Preview: domain.Preview(raw),
		}
	}
	return raw, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// backoffDelay returns min(base*2^i, cap) for retry i (0-based).
func backoffDelay(i int) time.Duration {
	d := backoffBase << uint(i)
	if d > backoffCap {
		return backoffCap
	}
	return d
}

// sleepCtx waits for d or returns false if ctx is done first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	tm := time.NewTimer(d)
	defer tm.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-tm.C:
		return true
	}
}
