package sportsdata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fanpost/kanva/internal/domain"
)

// upstream describes one league API: how to build its URLs, how to
// authenticate, and how to read its responses.
type upstream struct {
	clubTeams   func(clubID string) string
	authorize   func(*http.Request)
	decodeTeams func(body []byte) ([]Team, error)
}

// upstreams builds the sport dispatch table.
func upstreams(cfg Config) map[domain.Sport]upstream {
	return map[domain.Sport]upstream{
		domain.SportUnihockey: {
			clubTeams: func(clubID string) string {
				return withQuery(cfg.UnihockeyURL, "/teams", url.Values{
					"mode":    {"by_club"},
					"club_id": {clubID},
				})
			},
			decodeTeams: decodeUnihockeyTeams,
		},
		domain.SportVolleyball: {
			clubTeams: func(clubID string) string {
				return withQuery(cfg.VolleyballURL, "/teams", url.Values{"clubId": {clubID}})
			},
			decodeTeams: decodeVolleyballTeams,
		},
		domain.SportHandball: {
			clubTeams: func(clubID string) string {
				return withQuery(cfg.HandballURL, "/clubs/"+url.PathEscape(clubID)+"/teams", nil)
			},
			authorize: func(req *http.Request) {
				if cfg.HandballAPIKey != "" {
					req.Header.Set("Authorization", "Basic "+cfg.HandballAPIKey)
				}
			},
			decodeTeams: decodeHandballTeams,
		},
	}
}

func withQuery(base, path string, q url.Values) string {
	u := strings.TrimSuffix(base, "/") + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// flexID accepts both numeric and string identifiers.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = flexID(n.String())
	return nil
}

// Swiss Unihockey returns a dropdown structure:
// {"entries":[{"text":"Herren I","set_in_context":{"team_id":429}}]}
func decodeUnihockeyTeams(body []byte) ([]Team, error) {
	var resp struct {
		Entries []struct {
			Text    string `json:"text"`
			Context struct {
				TeamID flexID `json:"team_id"`
			} `json:"set_in_context"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode unihockey teams: %w", err)
	}

	teams := make([]Team, 0, len(resp.Entries))
	for _, e := range resp.Entries {
		if e.Context.TeamID == "" {
			continue
		}
		teams = append(teams, Team{ID: string(e.Context.TeamID), Name: strings.TrimSpace(e.Text)})
	}
	return teams, nil
}

// Swiss Volley returns a bare array:
// [{"teamId":1234,"caption":"Damen 1","league":{"caption":"NLA"}}]
func decodeVolleyballTeams(body []byte) ([]Team, error) {
	var resp []struct {
		TeamID  flexID `json:"teamId"`
		Caption string `json:"caption"`
		League  struct {
			Caption string `json:"caption"`
		} `json:"league"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode volleyball teams: %w", err)
	}

	teams := make([]Team, 0, len(resp))
	for _, t := range resp {
		if t.TeamID == "" {
			continue
		}
		teams = append(teams, Team{ID: string(t.TeamID), Name: strings.TrimSpace(t.Caption), League: t.League.Caption})
	}
	return teams, nil
}

// Handball Schweiz returns a bare array:
// [{"teamId":31000,"teamName":"Herren 1","leagueLong":"QHL"}]
func decodeHandballTeams(body []byte) ([]Team, error) {
	var resp []struct {
		TeamID     flexID `json:"teamId"`
		TeamName   string `json:"teamName"`
		LeagueLong string `json:"leagueLong"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode handball teams: %w", err)
	}

	teams := make([]Team, 0, len(resp))
	for _, t := range resp {
		if t.TeamID == "" {
			continue
		}
		teams = append(teams, Team{ID: string(t.TeamID), Name: strings.TrimSpace(t.TeamName), League: t.LeagueLong})
	}
	return teams, nil
}
