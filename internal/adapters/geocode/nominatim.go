package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"medharvest/internal/adapters/observability"
	"medharvest/internal/domain"
)

// Nominatim resolves free-text places against the OpenStreetMap Nominatim
// API. The usage policy caps anonymous clients at 1 request/second, so the
// limiter is fixed there; results go through the cache to keep repeat lookups
// off the wire.
type Nominatim struct {
	base  string
	ua    string
	from  string
	hc    *http.Client
	rl    *rate.Limiter
	cache domain.Cache
	ttl   int
}

func New(base, ua, from string, cache domain.Cache, ttl time.Duration) *Nominatim {
	if base == "" {
		base = "https://nominatim.openstreetmap.org/search"
	}
	return &Nominatim{
		base:  strings.TrimRight(base, "?&"),
		ua:    ua,
		from:  from,
		hc:    &http.Client{Timeout: 15 * time.Second},
		rl:    rate.NewLimiter(rate.Limit(1), 1),
		cache: cache,
		ttl:   int(ttl.Seconds()),
	}
}

// Geocode returns coordinates for a place, or (nil, nil) when the geocoder
// has no result. Callers treat any failure as "no coordinates", never as a
// record failure.
func (n *Nominatim) Geocode(ctx context.Context, place string) (*domain.Coordinates, error) {
	place = strings.TrimSpace(place)
	if place == "" {
		return nil, nil
	}
	key := "geo:" + strings.ToLower(place)

	var cached domain.Coordinates
	if n.cache != nil {
		if ok, _ := n.cache.Get(ctx, key, &cached); ok {
			return &cached, nil
		}
	}

	if err := n.rl.Wait(ctx); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("format", "json")
	params.Set("limit", "1")
	params.Set("q", place)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.base+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.ua)
	req.Header.Set("Accept-Language", "en")
	if n.from != "" {
		req.Header.Set("From", n.from)
	}

	resp, err := n.hc.Do(req)
	if err != nil {
		observability.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		observability.GeocodeRequests.WithLabelValues("error").Inc()
		if resp.StatusCode == http.StatusTooManyRequests {
			return nil, domain.ErrRateLimit
		}
		return nil, fmt.Errorf("geocoder status %d", resp.StatusCode)
	}

	var payload []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		observability.GeocodeRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	if len(payload) == 0 {
		observability.GeocodeRequests.WithLabelValues("miss").Inc()
		return nil, nil
	}

	lat, err := strconv.ParseFloat(payload[0].Lat, 64)
	if err != nil {
		return nil, err
	}
	lon, err := strconv.ParseFloat(payload[0].Lon, 64)
	if err != nil {
		return nil, err
	}
	observability.GeocodeRequests.WithLabelValues("ok").Inc()

	coord := domain.Coordinates{Lat: lat, Lon: lon}
	if n.cache != nil {
		if err := n.cache.Set(ctx, key, coord, n.ttl); err != nil {
			log.Debug().Str("place", place).Err(err).Msg("geocode cache set failed")
		}
	}
	return &coord, nil
}
