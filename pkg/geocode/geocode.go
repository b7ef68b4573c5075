// Package geocode turns delivery coordinates into a readable address.
package geocode

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"greencreditapi/pkg/config"

	geo "github.com/codingsince1985/geo-golang"
	"github.com/codingsince1985/geo-golang/openstreetmap"
)

var ErrNoAddress = errors.New("reverse geocode returned no address")

type Resolver interface {
	Address(ctx context.Context, lat float64, lon float64) string
}

// Client reverse geocodes through a Nominatim server.
type Client struct {
	Geocoder geo.Geocoder
	Timeout  time.Duration
}

func NewClient(baseUrl string) *Client {
	return &Client{
		Geocoder: openstreetmap.GeocoderWithURL(strings.TrimRight(baseUrl, "/") + "/"),
		Timeout:  config.GEOCODE_TIMEOUT,
	}
}

func (c *Client) Reverse(ctx context.Context, lat float64, lon float64) (string, error) {

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	type result struct {
		addr *geo.Address
		err  error
	}
	done := make(chan result, 1)
	go func() {
		addr, err := c.Geocoder.ReverseGeocode(lat, lon)
		done <- result{addr, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		if res.addr == nil || strings.TrimSpace(res.addr.FormattedAddress) == "" {
			return "", ErrNoAddress
		}
		return strings.TrimSpace(res.addr.FormattedAddress), nil
	}

}

// Address is Reverse with the raw coordinates as the fallback on any failure.
func (c *Client) Address(ctx context.Context, lat float64, lon float64) string {

	addr, err := c.Reverse(ctx, lat, lon)
	if err != nil {
		return Fallback(lat, lon)
	}
	return addr

}

func Fallback(lat float64, lon float64) string {
	return formatCoord(lat) + ", " + formatCoord(lon)
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
