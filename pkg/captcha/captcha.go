package captcha

import (
	"context"
	"fmt"

	"github.com/OpenReservation/reservation-service/config"
	"github.com/go-resty/resty/v2"
)

// Oracle answers "was this request submitted by a human". Verification
// happens before any lock is taken on the booking path.
type Oracle interface {
	Verify(ctx context.Context, kind, token string) (bool, error)
}

// verifyResponse is the common shape of the provider verify endpoints.
type verifyResponse struct {
	Success bool `json:"success"`
}

// HTTPOracle verifies tokens against per-kind provider endpoints.
type HTTPOracle struct {
	client      *resty.Client
	verifyURLs  map[string]string
	defaultKind string
	secret      string
}

func NewHTTPOracle(cfg config.CaptchaConfig) *HTTPOracle {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(1)

	return &HTTPOracle{
		client:      client,
		verifyURLs:  cfg.VerifyURLs,
		defaultKind: cfg.DefaultKind,
		secret:      cfg.Secret,
	}
}

func (o *HTTPOracle) Verify(ctx context.Context, kind, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	if kind == "" {
		kind = o.defaultKind
	}
	url, ok := o.verifyURLs[kind]
	if !ok {
		return false, fmt.Errorf("unknown captcha kind %q", kind)
	}

	var result verifyResponse
	resp, err := o.client.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"secret":   o.secret,
			"response": token,
		}).
		SetResult(&result).
		Post(url)
	if err != nil {
		return false, fmt.Errorf("captcha verify request: %w", err)
	}
	if resp.IsError() {
		return false, fmt.Errorf("captcha verify endpoint returned %s", resp.Status())
	}
	return result.Success, nil
}

// Static is an oracle with a fixed answer, used in tests and when
// verification is disabled.
type Static struct {
	Result bool
}

func (s Static) Verify(ctx context.Context, kind, token string) (bool, error) {
	return s.Result, nil
}
