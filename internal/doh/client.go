package doh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/miekg/dns"
)

// ErrUnexpectedStatus is returned when DoH server responds with non-success HTTP status.
var ErrUnexpectedStatus = errors.New("unexpected HTTP status")

// JSONContentType is a media type of DoH JSON API.
const JSONContentType = "application/dns-json"

// Answer is a single resource record of the DoH JSON API response.
type Answer struct {
	Name string `json:"name"`
	Type uint16 `json:"type"`
	TTL  uint32 `json:"TTL"`
	Data string `json:"data"`
}

// Response represents DoH JSON API response.
type Response struct {
	Status int      `json:"Status"`
	Answer []Answer `json:"Answer"`
}

// FirstA returns data of the first A record in the answer section and true, if there is any.
func (r *Response) FirstA() (string, bool) {
	for _, a := range r.Answer {
		if a.Type == dns.TypeA {
			return a.Data, true
		}
	}
	return "", false
}

// Client is a client of DoH JSON API, as provided for example by https://cloudflare-dns.com/dns-query.
type Client struct {
	httpClient *http.Client
}

// NewClient creates new DoH JSON API client, if the HTTP client is nil, http.DefaultClient is used.
func NewClient(c *http.Client) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{httpClient: c}
}

// Lookup sends query of given type for the name to the DoH JSON API endpoint using HTTP GET. Apart from the response,
// it returns time it took to receive the response status, which does not include reading and parsing of the body.
func (c *Client) Lookup(ctx context.Context, endpoint, name string, qtype uint16) (*Response, time.Duration, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, 0, err
	}
	q := u.Query()
	q.Set("name", name)
	q.Set("type", dns.TypeToString[qtype])
	u.RawQuery = q.Encode()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	request.Header.Set("Accept", JSONContentType)

	start := time.Now()
	resp, err := c.httpClient.Do(request)
	if err != nil {
		return nil, 0, err
	}
	elapsed := time.Since(start)
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, elapsed, fmt.Errorf("%w %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	res := Response{}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, elapsed, fmt.Errorf("failed to decode DoH JSON response: %w", err)
	}
	return &res, elapsed, nil
}
