package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kelvins/geocoder"

	"github.com/i474232898/race-weather/internal/weather"
)

var errNoGeocoderKey = errors.New("geocoder api key is not configured")

// geocodeFunc matches geocoder.Geocoding so tests can replace the upstream call.
type geocodeFunc func(geocoder.Address) (geocoder.Location, error)

// GoogleGeocoder implements weather.Geocoder on top of the Google Maps
// geocoding API via kelvins/geocoder.
type GoogleGeocoder struct {
	geocode geocodeFunc
}

// NewGoogleGeocoder configures the geocoder package with apiKey. The
// underlying library keeps the key in a package variable, so only one key
// can be active per process.
func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	if apiKey == "" {
		return nil, errNoGeocoderKey
	}
	geocoder.ApiKey = apiKey
	return &GoogleGeocoder{geocode: geocoder.Geocoding}, nil
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, city, country string) (weather.Location, error) {
	if err := ctx.Err(); err != nil {
		return weather.Location{}, fmt.Errorf("%w: %v", weather.ErrNetwork, err)
	}

	city = strings.TrimSpace(city)
	country = strings.TrimSpace(country)
	if city == "" {
		return weather.Location{}, errors.New("city is required for geocoding")
	}

	loc, err := g.geocode(geocoder.Address{City: city, Country: country})
	if err != nil {
		return weather.Location{}, fmt.Errorf("%w: geocode %s,%s: %v", weather.ErrNetwork, city, country, err)
	}

	name := city
	if country != "" {
		name = city + ", " + country
	}
	return weather.Location{Name: name, Lat: loc.Latitude, Lon: loc.Longitude}, nil
}
