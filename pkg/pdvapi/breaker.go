package pdvapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"
)

const breakerName = "pdv-api"

var errServerStatus = errors.New("pdv api server error")

// BreakerSettings trips the client after Failures consecutive transport errors or 5xx
// responses. While open, calls fail fast until Cooldown elapses.
type BreakerSettings struct {
	Failures      uint32
	Cooldown      time.Duration
	OnStateChange func(open bool)
}

// WithBreaker guards upstream round trips with a circuit breaker. Zero Failures disables it.
func WithBreaker(settings BreakerSettings) Option {
	return func(c *Client) {
		if settings.Failures == 0 {
			return
		}
		c.breaker = gobreaker.NewCircuitBreaker[*http.Response](gobreaker.Settings{
			Name:        breakerName,
			MaxRequests: 1,
			Timeout:     settings.Cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= settings.Failures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, context.Canceled)
			},
			OnStateChange: func(_ string, _ gobreaker.State, to gobreaker.State) {
				if settings.OnStateChange != nil {
					settings.OnStateChange(to == gobreaker.StateOpen)
				}
			},
		})
	}
}

// send performs the round trip. A 5xx comes back with both the response and errServerStatus
// so the breaker counts it while the caller still classifies the body.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	if c.breaker == nil {
		return c.httpClient.Do(req)
	}
	return c.breaker.Execute(func() (*http.Response, error) {
		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			return resp, errServerStatus
		}
		return resp, nil
	})
}

func breakerRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
