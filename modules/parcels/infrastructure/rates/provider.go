package rates

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Provider fetches a fresh exchange rate from an external source.
type Provider interface {
	FetchRate(ctx context.Context) (float64, error)
}

// CBRProvider reads the USD rate from the Central Bank daily JSON feed
// (Valute.USD.Value). One request, no retries; retry policy belongs to the
// broker redelivery loop upstream.
type CBRProvider struct {
	url    string
	client *http.Client
}

func NewCBRProvider(url string, client *http.Client) *CBRProvider {
	if client == nil {
		client = http.DefaultClient
	}
	return &CBRProvider{url: url, client: client}
}

type cbrResponse struct {
	Valute map[string]struct {
		Value *float64 `json:"Value"`
	} `json:"Valute"`
}

func (p *CBRProvider) FetchRate(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return 0, errors.Wrap(ErrRateUnavailable, err.Error())
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return 0, errors.Wrap(ErrRateUnavailable, err.Error())
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return 0, errors.Wrapf(ErrRateUnavailable, "unexpected status %d", resp.StatusCode)
	}

	var body cbrResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, errors.Wrap(ErrRateUnavailable, err.Error())
	}

	usd, ok := body.Valute["USD"]
	if !ok || usd.Value == nil {
		return 0, fmt.Errorf("%w: missing Valute.USD.Value", ErrRateUnavailable)
	}
	if *usd.Value <= 0 {
		return 0, fmt.Errorf("%w: non-positive rate %v", ErrRateUnavailable, *usd.Value)
	}
	return *usd.Value, nil
}
