package api

import (
	"context"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// WaitReady blocks until the backend answers an HTTP request, retrying with
// exponential backoff up to maxElapsed. Any HTTP response counts as reachable;
// only transport failures are retried. Used in dev mode so the console can
// start before the backend container finishes booting.
func (c *Client) WaitReady(ctx context.Context, maxElapsed time.Duration) error {
	probe := func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api", nil)
		if err != nil {
			return struct{}{}, backoff.Permanent(err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			log.Debug().Err(err).Str("base", c.base).Msg("Backend not reachable yet, will retry")
			return struct{}{}, err
		}
		_ = resp.Body.Close()

		return struct{}{}, nil
	}

	_, err := backoff.Retry(ctx, probe,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(maxElapsed),
	)
	return err
}
