package model

import "fmt"

// TeamLogo holds the panel assets for a team.
type TeamLogo struct {
	Logo string
	Link string
}

// TeamDirectory resolves team ids to colour tokens and logo/link URLs.
// Lookups are strict: unknown teams are an error, never a default.
type TeamDirectory struct {
	colors map[string]string
	logos  map[string]TeamLogo
}

// NewTeamDirectory copies the supplied tables. Either may be nil.
func NewTeamDirectory(colors map[string]string, logos map[string]TeamLogo) *TeamDirectory {
	d := &TeamDirectory{
		colors: make(map[string]string, len(colors)),
		logos:  make(map[string]TeamLogo, len(logos)),
	}
	for k, v := range colors {
		d.colors[k] = v
	}
	for k, v := range logos {
		d.logos[k] = v
	}
	return d
}

// Color returns the colour token for team.
func (d *TeamDirectory) Color(team string) (string, error) {
	if d != nil {
		if c, ok := d.colors[team]; ok {
			return c, nil
		}
	}
	return "", fmt.Errorf("color for %q: %w", team, ErrTeamNotFound)
}

// Logo returns the logo and link URLs for team.
func (d *TeamDirectory) Logo(team string) (TeamLogo, error) {
	if d != nil {
		if l, ok := d.logos[team]; ok {
			return l, nil
		}
	}
	return TeamLogo{}, fmt.Errorf("logo for %q: %w", team, ErrTeamNotFound)
}

// ColorCount returns the number of teams with a colour entry.
func (d *TeamDirectory) ColorCount() int {
	if d == nil {
		return 0
	}
	return len(d.colors)
}

// LogoCount returns the number of teams with a logo entry.
func (d *TeamDirectory) LogoCount() int {
	if d == nil {
		return 0
	}
	return len(d.logos)
}
