// Package geo resolves a client's network information through an external
// IP geolocation service. Lookups are best effort and never touch game state.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"tictacmatch/internal/config"
)

const unknown = "Unknown"

var ErrLookupFailed = errors.New("ip lookup failed")

// Info is the network information reported to the client.
type Info struct {
	IP        string `json:"ip"`
	City      string `json:"city"`
	Region    string `json:"region"`
	Country   string `json:"country"`
	Org       string `json:"org"`
	Postal    string `json:"postal"`
	Timezone  string `json:"timezone"`
	Latitude  any    `json:"latitude"`
	Longitude any    `json:"longitude"`
}

// lookupResponse is the subset of the ipapi.co response we use.
type lookupResponse struct {
	IP          string   `json:"ip"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryName string   `json:"country_name"`
	Org         string   `json:"org"`
	Postal      string   `json:"postal"`
	Timezone    string   `json:"timezone"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

// Client queries the geolocation service.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates a lookup client.
func NewClient(cfg config.GeoConfig, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		logger:  logger,
	}
}

// Lookup resolves ip. Missing fields come back as "Unknown".
func (c *Client) Lookup(ctx context.Context, ip string) (Info, error) {
	endpoint := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Info{}, fmt.Errorf("%w: building request: %v", ErrLookupFailed, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Info{}, fmt.Errorf("%w: %v", ErrLookupFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Info{}, fmt.Errorf("%w: status %d", ErrLookupFailed, resp.StatusCode)
	}

	var body lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Info{}, fmt.Errorf("%w: decoding response: %v", ErrLookupFailed, err)
	}
	if body.Error {
		return Info{}, fmt.Errorf("%w: %s", ErrLookupFailed, body.Reason)
	}

	c.logger.Debug("ip lookup", zap.String("ip", ip), zap.String("country", body.CountryName))
	return Info{
		IP:        orUnknown(body.IP),
		City:      orUnknown(body.City),
		Region:    orUnknown(body.Region),
		Country:   orUnknown(body.CountryName),
		Org:       orUnknown(body.Org),
		Postal:    orUnknown(body.Postal),
		Timezone:  orUnknown(body.Timezone),
		Latitude:  coordOrUnknown(body.Latitude),
		Longitude: coordOrUnknown(body.Longitude),
	}, nil
}

// ClientIP returns the caller's address: the first X-Forwarded-For hop if
// present, else the host part of RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}

func coordOrUnknown(f *float64) any {
	if f == nil {
		return unknown
	}
	return *f
}
