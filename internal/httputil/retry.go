// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides HTTP helpers shared across stages.
package httputil

import (
	"context"
	"io"
	"net/http"
	"time"
)

// DefaultRetryDelay is the fixed delay between retry attempts.
const DefaultRetryDelay = 2 * time.Second

const defaultMaxRetries = 3

// Retryable reports whether a response status is worth retrying:
// server-class (5xx) only. Client errors (4xx) are permanent.
func Retryable(status int) bool {
	return status >= 500
}

// DoWithRetry executes an HTTP request and retries transport failures
// and 5xx responses up to maxRetries times, sleeping a fixed delay
// between attempts. 4xx responses are returned immediately. When
// maxRetries is 0 the default (3) is used; a non-positive delay falls
// back to DefaultRetryDelay. Before each retry the previous response
// body, if any, is drained and closed. A cancelled context during the
// wait returns ctx.Err().
func DoWithRetry(ctx context.Context, client *http.Client, req *http.Request, maxRetries int, delay time.Duration) (*http.Response, error) {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}

	var lastErr error
	for attempt := 0; ; attempt++ {
		resp, err := client.Do(req.Clone(ctx))
		if err == nil && !Retryable(resp.StatusCode) {
			return resp, nil
		}

		if err != nil {
			lastErr = err
		} else {
			// On the last attempt the 5xx response is returned as-is
			// so the caller can report the status.
			if attempt >= maxRetries {
				return resp, nil
			}
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}

		if attempt >= maxRetries {
			return nil, lastErr
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
}
