package client

import (
	"beautypro-payments/internal/config"
	"beautypro-payments/internal/model"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type ProviderClient interface {
	GetPayment(ctx context.Context, paymentID string) (*model.ProviderPayment, error)
}

// ProviderError is returned when the provider answers with a non-2xx status.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error %d: %s", e.StatusCode, e.Body)
}

type providerClientImpl struct {
	httpClient  *http.Client
	baseApiURL  string
	accessToken string
}

func NewProviderClient(providerCfg *config.Provider) ProviderClient {
	timeout := providerCfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &providerClientImpl{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseApiURL:  strings.TrimRight(providerCfg.BaseApiURL, "/"),
		accessToken: providerCfg.AccessToken,
	}
}

func (c *providerClientImpl) GetPayment(ctx context.Context, paymentID string) (*model.ProviderPayment, error) {
	endpoint := fmt.Sprintf("%s/v1/payments/%s", c.baseApiURL, url.PathEscape(paymentID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create payment request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider payment request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read provider response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ProviderError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var payment model.ProviderPayment
	if err := json.Unmarshal(body, &payment); err != nil {
		return nil, fmt.Errorf("decode provider payment: %w", err)
	}
	payment.Raw = body

	return &payment, nil
}
