// Package sportsdata reads club and team listings from the public league
// APIs (Swiss Unihockey, Swiss Volley, Handball Schweiz).
//
// Each sport has its own upstream with its own URL scheme and response
// shape. The Gateway dispatches on the sport through a table of upstreams;
// everything downstream of the dispatch sees a plain list of Team values.
package sportsdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"time"

	"github.com/fanpost/kanva/internal/domain"
	"github.com/fanpost/kanva/internal/metrics"
)

// Team is one team of a club as listed by an upstream league API.
type Team struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	League string       `json:"league,omitempty"`
	Sport  domain.Sport `json:"sport"`
}

// Gateway fetches sports data for every supported sport.
type Gateway interface {
	// ClubTeams lists the teams of a club. Results are cached when a cache
	// is configured.
	ClubTeams(ctx context.Context, sport domain.Sport, clubID string) ([]Team, error)
}

// Config configures the upstream APIs.
type Config struct {
	UnihockeyURL   string
	VolleyballURL  string
	HandballURL    string
	HandballAPIKey string
	Timeout        time.Duration
	CacheTTL       time.Duration
}

const maxResponseSize = 4 * 1024 * 1024

var clubIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

type gateway struct {
	upstreams map[domain.Sport]upstream
	client    *http.Client
	cache     Cache
	ttl       time.Duration
	logger    *slog.Logger
}

// NewGateway creates a Gateway. A nil cache disables caching.
func NewGateway(cfg Config, cache Cache, logger *slog.Logger) Gateway {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cache == nil {
		cache = NopCache{}
	}
	return &gateway{
		upstreams: upstreams(cfg),
		client:    &http.Client{Timeout: cfg.Timeout},
		cache:     cache,
		ttl:       cfg.CacheTTL,
		logger:    logger,
	}
}

func (g *gateway) ClubTeams(ctx context.Context, sport domain.Sport, clubID string) ([]Team, error) {
	const op = "SportsData.ClubTeams"

	up, ok := g.upstreams[sport]
	if !ok {
		return nil, domain.Invalid(op, fmt.Sprintf("Unsupported sport %q.", sport))
	}
	if !clubIDPattern.MatchString(clubID) {
		return nil, domain.NewValidationError(op, "club_id", "Club ID is invalid")
	}

	key := cacheKey("teams", sport, clubID)
	if cached, ok := g.cachedTeams(ctx, key); ok {
		return cached, nil
	}

	body, err := g.fetch(ctx, op, sport, up.clubTeams(clubID), up.authorize)
	if err != nil {
		return nil, err
	}

	teams, err := up.decodeTeams(body)
	if err != nil {
		metrics.SportsAPIRequests.WithLabelValues(string(sport), "decode_error").Inc()
		return nil, domain.Unavailable(err, op, "The league API returned an unexpected response.")
	}
	for i := range teams {
		teams[i].Sport = sport
	}

	g.storeTeams(ctx, key, teams)
	return teams, nil
}

// fetch performs a GET against an upstream and returns the body of a 200
// response. 404 maps to NotFound, everything else to Unavailable.
func (g *gateway) fetch(ctx context.Context, op string, sport domain.Sport, url string, authorize func(*http.Request)) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to build upstream request")
	}
	req.Header.Set("Accept", "application/json")
	if authorize != nil {
		authorize(req)
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		metrics.SportsAPIRequests.WithLabelValues(string(sport), "error").Inc()
		return nil, domain.Unavailable(err, op, "The league API is not reachable.")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		metrics.SportsAPIRequests.WithLabelValues(string(sport), "error").Inc()
		return nil, domain.Unavailable(err, op, "The league API response could not be read.")
	}

	metrics.SportsAPIRequests.WithLabelValues(string(sport), fmt.Sprintf("%d", resp.StatusCode)).Inc()
	g.logger.Debug("Sports API request",
		"sport", sport,
		"status", resp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.NotFound(op, "club", "")
	default:
		return nil, domain.Unavailable(fmt.Errorf("upstream status %d", resp.StatusCode), op, "The league API is not available.")
	}
}

func (g *gateway) cachedTeams(ctx context.Context, key string) ([]Team, bool) {
	raw, ok, err := g.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheLookup("error")
		g.logger.Warn("Sports cache read failed", "key", key, "error", err)
		return nil, false
	}
	if !ok {
		metrics.CacheLookup("miss")
		return nil, false
	}

	var teams []Team
	if err := json.Unmarshal(raw, &teams); err != nil {
		metrics.CacheLookup("error")
		return nil, false
	}
	metrics.CacheLookup("hit")
	return teams, true
}

func (g *gateway) storeTeams(ctx context.Context, key string, teams []Team) {
	if g.ttl <= 0 {
		return
	}
	raw, err := json.Marshal(teams)
	if err != nil {
		return
	}
	if err := g.cache.Set(ctx, key, raw, g.ttl); err != nil {
		g.logger.Warn("Sports cache write failed", "key", key, "error", err)
	}
}

func cacheKey(kind string, sport domain.Sport, id string) string {
	return fmt.Sprintf("kanva:sports:%s:%s:%s", sport, kind, id)
}
