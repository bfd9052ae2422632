// Package viacep is a postal.Client for ViaCEP-compatible endpoints
// (GET {base}/ws/{cep}/json/).
package viacep

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"agenda/internal/postal"
	"agenda/pkg/platform/sentinel"
	"agenda/pkg/requestcontext"
)

const defaultTimeout = 10 * time.Second

// Client queries a ViaCEP-compatible service.
type Client struct {
	baseURL string
	http    *http.Client
	timeout time.Duration
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    http.DefaultClient,
		timeout: defaultTimeout,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// flag accepts both true and "true".
type flag bool

func (f *flag) UnmarshalJSON(data []byte) error {
	switch strings.Trim(strings.ToLower(string(data)), `"`) {
	case "true":
		*f = true
	default:
		*f = false
	}
	return nil
}

// response covers the ViaCEP field names and the neutral ones served by the
// development mock.
type response struct {
	CEP        string `json:"cep"`
	Logradouro string `json:"logradouro"`
	Bairro     string `json:"bairro"`
	Localidade string `json:"localidade"`
	UF         string `json:"uf"`

	Street    string `json:"street"`
	District  string `json:"district"`
	City      string `json:"city"`
	StateCode string `json:"stateCode"`

	Erro flag `json:"erro"`
}

func (r response) address(cep string) postal.Address {
	return postal.Address{
		PostalCode: cep,
		Street:     strings.TrimSpace(firstNonEmpty(r.Logradouro, r.Street)),
		District:   strings.TrimSpace(firstNonEmpty(r.Bairro, r.District)),
		City:       strings.TrimSpace(firstNonEmpty(r.Localidade, r.City)),
		StateCode:  strings.ToUpper(strings.TrimSpace(firstNonEmpty(r.UF, r.StateCode))),
	}
}

// Lookup resolves an 8-digit CEP. Codes the service flags as unknown return
// sentinel.ErrNotFound; every other failure wraps sentinel.ErrUnavailable.
func (c *Client) Lookup(ctx context.Context, cep string) (postal.Address, error) {
	digits := postal.Digits(cep)
	if err := postal.ValidateFormat(digits); err != nil {
		return postal.Address{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/ws/"+digits+"/json/", nil)
	if err != nil {
		return postal.Address{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if id := requestcontext.RequestID(ctx); id != "" {
		req.Header.Set(requestcontext.HeaderRequestID, id)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return postal.Address{}, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return postal.Address{}, sentinel.ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return postal.Address{}, fmt.Errorf("%w: unexpected status %s", sentinel.ErrUnavailable, resp.Status)
	}

	var body response
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return postal.Address{}, fmt.Errorf("%w: decode response: %v", sentinel.ErrUnavailable, err)
	}
	if body.Erro {
		return postal.Address{}, sentinel.ErrNotFound
	}
	return body.address(digits), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
