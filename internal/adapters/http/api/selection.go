package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	service "github.com/okian/cfbtv/internal/app"
	"github.com/okian/cfbtv/internal/domain/model"
)

// singleValued parameters may appear at most once.
var singleValued = []string{"role", "from", "to"} //nolint:gochecknoglobals // fixed key set

// parseQuery parses a raw query string. Unlike url.URL.Query it reports
// malformed escapes and separators instead of dropping the pair.
func parseQuery(raw string) (url.Values, error) {
	q, err := url.ParseQuery(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRequest, err)
	}
	return q, nil
}

// parseSelection reads team, role, from and to from the query string.
//
// team may repeat and each value may hold a comma-separated list. When the
// parameter is absent Teams stays nil so the service applies its defaults;
// when present but blank the selection is empty.
func parseSelection(raw string) (service.Selection, error) {
	q, err := parseQuery(raw)
	if err != nil {
		return service.Selection{}, err
	}
	for _, key := range singleValued {
		if len(q[key]) > 1 {
			return service.Selection{}, fmt.Errorf("%w: %s given %d times", ErrBadRequest, key, len(q[key]))
		}
	}

	var sel service.Selection
	sel.Teams = parseTeams(q)

	if token := strings.TrimSpace(q.Get("role")); token != "" {
		role, err := model.ParseRole(token)
		if err != nil {
			return service.Selection{}, err
		}
		sel.Role = role
	}

	if sel.From, err = parseYear(q, "from"); err != nil {
		return service.Selection{}, err
	}
	if sel.To, err = parseYear(q, "to"); err != nil {
		return service.Selection{}, err
	}
	if sel.From != 0 && sel.To != 0 && sel.From > sel.To {
		return service.Selection{}, fmt.Errorf("%w: from %d is after to %d", model.ErrInvalidYears, sel.From, sel.To)
	}
	return sel, nil
}

func parseTeams(q url.Values) []string {
	values, ok := q["team"]
	if !ok {
		return nil
	}
	teams := make([]string, 0, len(values))
	for _, v := range values {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				teams = append(teams, t)
			}
		}
	}
	return teams
}

// parseYear returns 0 when the parameter is absent.
func parseYear(q url.Values, key string) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return 0, nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil || year <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive year, got %q", model.ErrInvalidYears, key, raw)
	}
	return year, nil
}
