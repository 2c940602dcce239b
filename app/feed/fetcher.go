package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/bluepython508/news-rss/app/cfg"
	"github.com/bluepython508/news-rss/app/sources"
	"github.com/cenkalti/backoff/v4"
)

const maxFetchAttempts = 3

type Fetcher struct {
	httpClient  *http.Client
	userAgent   string
	timeout     time.Duration
	maxBodySize int64
}

func NewFetcher(httpClient *http.Client) *Fetcher {
	c := cfg.Get()

	return &Fetcher{
		httpClient:  httpClient,
		userAgent:   c.UserAgent,
		timeout:     time.Duration(c.FetchTimeout) * time.Second,
		maxBodySize: c.MaxBodySize,
	}
}

// Run fetches a single source with a conditional GET. Transient failures are
// retried with jittered exponential backoff; 4xx responses and DNS failures
// are not retried within the cycle. The timeout bounds the whole fetch,
// retries included. The returned result always carries a FetchedAt timestamp.
func (f *Fetcher) Run(ctx context.Context, src sources.Source, validator Validator) FetchResult {
	result := FetchResult{
		SourceID:  src.ID,
		FetchedAt: time.Now().UTC(),
	}

	fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.Multiplier = 2
	policy.MaxElapsedTime = f.timeout

	attempt := 0
	err := backoff.Retry(func() error {
		attempt++
		status, body, newValidator, err := f.attempt(fetchCtx, src, validator)
		if err != nil {
			if IsTransient(err) && attempt < maxFetchAttempts {
				slog.Debug("Fetch attempt failed, retrying", "source", src.ID, "attempt", attempt, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}

		result.Status = status
		result.Body = body
		result.Validator = newValidator
		return nil
	}, backoff.WithContext(policy, fetchCtx))

	if err != nil {
		result.Status = StatusFailed
		result.Err = err
	}

	return result
}

func (f *Fetcher) attempt(ctx context.Context, src sources.Source, validator Validator) (FetchStatus, []byte, Validator, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", src.URL, nil)
	if err != nil {
		return StatusFailed, nil, Validator{}, permanentError(fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("User-Agent", f.userAgent)
	if validator.ETag != "" {
		req.Header.Set("If-None-Match", validator.ETag)
	}
	if validator.LastModified != "" {
		req.Header.Set("If-Modified-Since", validator.LastModified)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		// A dead hostname gets one attempt per cycle, like a 4xx.
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) {
			return StatusFailed, nil, Validator{}, permanentError(fmt.Errorf("request failed: %w", err))
		}
		// Covers timeouts, connection resets, and cancelled contexts.
		return StatusFailed, nil, Validator{}, transientError(fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return StatusNotModified, nil, validator, nil

	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := f.readBody(resp.Body)
		if errors.Is(err, ErrTooLarge) {
			return StatusFailed, nil, Validator{}, permanentError(err)
		}
		if err != nil {
			// A failure mid-body is a dropped connection
			return StatusFailed, nil, Validator{}, transientError(err)
		}
		newValidator := Validator{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		}
		return StatusFresh, body, newValidator, nil

	case resp.StatusCode >= 500:
		return StatusFailed, nil, Validator{}, transientError(fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status))

	default:
		return StatusFailed, nil, Validator{}, permanentError(fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status))
	}
}

func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > f.maxBodySize {
		return nil, ErrTooLarge
	}
	return body, nil
}
