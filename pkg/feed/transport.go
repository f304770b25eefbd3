package feed

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/parnurzeal/gorequest"
	"github.com/samber/oops"

	"github.com/aquasecurity/unt-scan/pkg/log"
	"github.com/aquasecurity/unt-scan/pkg/types"
)

type response struct {
	headers map[string]string
	body    []byte
}

type transport struct {
	userAgent     string
	timeout       time.Duration
	retries       uint64
	retryInterval time.Duration
	logger        *log.Logger
}

func (t transport) head(ctx context.Context, url string) (response, error) {
	return t.do(ctx, http.MethodHead, url)
}

func (t transport) get(ctx context.Context, url string) (response, error) {
	return t.do(ctx, http.MethodGet, url)
}

func (t transport) do(ctx context.Context, method, url string) (response, error) {
	eb := oops.Code(types.KindTransport).With("method", method).With("url", url)

	var res response
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		r, err := t.send(method, url)
		if err != nil {
			return err
		}
		res = r
		return nil
	}

	bo := backoff.WithContext(t.policy(), ctx)

	err := backoff.RetryNotify(operation, bo, func(err error, wait time.Duration) {
		t.logger.Warn("Request failed, retrying", log.URL(url), log.Err(err), log.String("wait", wait.String()))
	})
	if err != nil {
		return response{}, eb.Wrapf(err, "%s request error", method)
	}
	return res, nil
}

// policy returns the retry schedule. WithMaxRetries treats 0 as unlimited, so
// a zero retry budget maps to StopBackOff.
func (t transport) policy() backoff.BackOff {
	if t.retries == 0 {
		return &backoff.StopBackOff{}
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.retryInterval
	b.MaxElapsedTime = time.Duration(t.retries+1) * (t.timeout + b.MaxInterval)
	return backoff.WithMaxRetries(b, t.retries)
}

func (t transport) send(method, url string) (response, error) {
	// Get and Head reset headers, so the method has to be chosen first.
	req := gorequest.New()
	switch method {
	case http.MethodHead:
		req = req.Head(url)
	default:
		req = req.Get(url)
	}
	resp, body, errs := req.Timeout(t.timeout).Set("User-Agent", t.userAgent).EndBytes()
	if len(errs) > 0 {
		return response{}, errors.Join(errs...)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("unexpected status code %d", resp.StatusCode)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 {
			return response{}, backoff.Permanent(err)
		}
		return response{}, err
	}
	return response{
		headers: flatten(resp.Header),
		body:    body,
	}, nil
}
