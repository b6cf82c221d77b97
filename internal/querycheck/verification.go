package querycheck

import (
	"fmt"
	"strconv"
	"time"

	"github.com/okian/cfbtv/internal/domain/model"
	"github.com/okian/cfbtv/internal/domain/types"
)

// roleFigures holds one chart fetched under each of the three roles.
type roleFigures map[model.Role]types.Figure

// verifySeries checks that fig has one series per selected team, in
// selection order, and that every point lies inside the selected years.
func verifySeries(sel Selection, fig types.Figure) error {
	if len(fig.Series) != len(sel.Teams) {
		return fmt.Errorf("%s: got %d series for %d teams", fig.ID, len(fig.Series), len(sel.Teams))
	}
	for i, s := range fig.Series {
		if s.Team != sel.Teams[i] {
			return fmt.Errorf("%s: series %d is %q, want %q", fig.ID, i, s.Team, sel.Teams[i])
		}
		if s.Color == "" {
			return fmt.Errorf("%s: series %q has no colour", fig.ID, s.Team)
		}
		for j, p := range s.Points {
			year, err := pointYear(fig.Kind, p.X)
			if err != nil {
				return fmt.Errorf("%s: %q point %d: %w", fig.ID, s.Team, j, err)
			}
			if year < sel.From || year > sel.To {
				return fmt.Errorf("%s: %q point %d year %d outside %d-%d", fig.ID, s.Team, j, year, sel.From, sel.To)
			}
		}
	}
	return nil
}

// verifyDateOrder checks that timeline points never go back in time.
func verifyDateOrder(fig types.Figure) error {
	if fig.Kind != types.KindTimeline {
		return nil
	}
	for _, s := range fig.Series {
		for j := 1; j < len(s.Points); j++ {
			if s.Points[j].X < s.Points[j-1].X {
				return fmt.Errorf("%s: %q point %d (%s) is before point %d (%s)",
					fig.ID, s.Team, j, s.Points[j].X, j-1, s.Points[j-1].X)
			}
		}
	}
	return nil
}

// verifyUnion checks that the Both series of every team holds exactly as
// many points as its Home and Away series together.
func verifyUnion(figs roleFigures) error {
	home, away, both := figs[model.RoleHome], figs[model.RoleAway], figs[model.RoleBoth]
	if len(home.Series) != len(both.Series) || len(away.Series) != len(both.Series) {
		return fmt.Errorf("%s: series count differs between roles", both.ID)
	}
	for i := range both.Series {
		h, a, b := len(home.Series[i].Points), len(away.Series[i].Points), len(both.Series[i].Points)
		if b != h+a {
			return fmt.Errorf("%s: %q has %d points for Both but %d Home + %d Away",
				both.ID, both.Series[i].Team, b, h, a)
		}
	}
	return nil
}

// verifyLabels checks that timeline hover labels depend only on the team
// and the point position, never on the role.
func verifyLabels(figs roleFigures) error {
	both := figs[model.RoleBoth]
	if both.Kind != types.KindTimeline {
		return nil
	}
	for _, role := range []model.Role{model.RoleHome, model.RoleAway} {
		other := figs[role]
		for i := range other.Series {
			if i >= len(both.Series) {
				break
			}
			op, bp := other.Series[i].Points, both.Series[i].Points
			for j := 0; j < len(op) && j < len(bp); j++ {
				if op[j].Label != bp[j].Label {
					return fmt.Errorf("%s: %q %s label %d is %q, Both has %q",
						both.ID, both.Series[i].Team, role, j, op[j].Label, bp[j].Label)
				}
			}
		}
	}
	return nil
}

// verifyPanel checks that the panel shows the last selected team.
func verifyPanel(sel Selection, panel types.Panel) error {
	want := sel.Teams[len(sel.Teams)-1]
	if panel.Team != want {
		return fmt.Errorf("panel shows %q, want %q", panel.Team, want)
	}
	if panel.LogoURL == "" {
		return fmt.Errorf("panel for %q has no logo", want)
	}
	return nil
}

func pointYear(kind, x string) (int, error) {
	if kind == types.KindAnnual {
		return strconv.Atoi(x)
	}
	t, err := time.Parse(dateLayout, x)
	if err != nil {
		return 0, err
	}
	return t.Year(), nil
}
