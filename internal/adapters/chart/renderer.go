// Package chart renders dashboard figures to PNG or SVG images.
package chart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/cfbtv/internal/domain/types"
	"github.com/okian/cfbtv/pkg/logger"
)

// Format is an image encoding.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
)

// ErrUnknownFormat is returned for an image format other than png or svg.
var ErrUnknownFormat = errors.New("unknown image format")

const (
	defaultWidth  = 1024
	defaultHeight = 600
	dateLayout    = "2006-01-02"
)

// ParseFormat accepts png or svg, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case FormatPNG:
		return FormatPNG, nil
	case FormatSVG:
		return FormatSVG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// Renderer draws figures with go-chart. It holds no per-call state and is
// safe for concurrent use.
type Renderer struct {
	width  int
	height int
	logger logger.Logger
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithSize sets the image size in pixels.
func WithSize(width, height int) Option {
	return func(r *Renderer) {
		if width > 0 && height > 0 {
			r.width, r.height = width, height
		}
	}
}

// WithLogger sets the logger used for dropped points.
func WithLogger(l logger.Logger) Option {
	return func(r *Renderer) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRenderer returns a renderer with a 1024x600 canvas.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{width: defaultWidth, height: defaultHeight, logger: logger.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render writes fig to w in the given format. Points with a null y are not
// drawn; a figure with nothing to draw still yields an empty, titled chart.
func (r *Renderer) Render(ctx context.Context, fig types.Figure, format Format, w io.Writer) error {
	provider, err := rendererProvider(format)
	if err != nil {
		return err
	}

	annual := fig.Kind == types.KindAnnual
	var (
		series []gochart.Series
		bounds extent
	)
	for i, s := range fig.Series {
		xs, ys, dropped := r.values(s.Points, annual)
		if dropped > 0 {
			r.logger.Debug(ctx, "points without a value not drawn",
				logger.String("chart", fig.ID),
				logger.String("team", s.Team),
				logger.Int("dropped", dropped),
			)
		}
		if len(xs) == 0 {
			continue
		}
		for j := range xs {
			bounds.add(xs[j], ys[j])
		}
		series = append(series, gochart.ContinuousSeries{
			Name:    s.Team,
			XValues: xs,
			YValues: ys,
			Style:   pointStyle(seriesColor(s.Color, i)),
		})
	}

	empty := len(series) == 0
	xr, yr := bounds.ranges(annual)
	if empty {
		series = append(series, gochart.ContinuousSeries{
			XValues: []float64{xr.Min, xr.Max},
			YValues: []float64{yr.Min, yr.Max},
			Style:   pointStyle(drawing.ColorTransparent),
		})
	}

	ch := gochart.Chart{
		Title:      fig.Title,
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}},
		XAxis: gochart.XAxis{
			Name:           fig.XAxisLabel,
			Range:          xr,
			ValueFormatter: xFormatter(annual),
		},
		YAxis: gochart.YAxis{
			Name:           fig.YAxisLabel,
			Range:          yr,
			ValueFormatter: countFormatter,
		},
		Series: series,
	}
	if !empty {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}

	if err := ch.Render(provider, w); err != nil {
		return fmt.Errorf("render %s as %s: %w", fig.ID, format, err)
	}
	return nil
}

// values converts payload points to plot coordinates. Timeline x values are
// nanoseconds since the epoch, annual x values are years.
func (r *Renderer) values(points []types.Point, annual bool) (xs, ys []float64, dropped int) {
	xs = make([]float64, 0, len(points))
	ys = make([]float64, 0, len(points))
	for _, p := range points {
		if p.Y == nil {
			dropped++
			continue
		}
		x, ok := parseX(p.X, annual)
		if !ok {
			dropped++
			continue
		}
		xs = append(xs, x)
		ys = append(ys, float64(*p.Y))
	}
	return xs, ys, dropped
}

func parseX(s string, annual bool) (float64, bool) {
	if annual {
		year, err := strconv.Atoi(s)
		if err != nil {
			return 0, false
		}
		return float64(year), true
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return 0, false
	}
	return gochart.TimeToFloat64(t), true
}

func rendererProvider(f Format) (gochart.RendererProvider, error) {
	switch f {
	case FormatPNG:
		return gochart.PNG, nil
	case FormatSVG:
		return gochart.SVG, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, f)
}

// pointStyle renders points only, no connecting line.
func pointStyle(col drawing.Color) gochart.Style {
	return gochart.Style{
		StrokeWidth: 0,
		DotWidth:    4,
		DotColor:    col,
	}
}

// seriesColor reads a #rgb or #rrggbb token; anything else falls back to the
// palette colour at index i.
func seriesColor(token string, i int) drawing.Color {
	hex := strings.TrimPrefix(strings.TrimSpace(token), "#")
	if (len(hex) == 3 || len(hex) == 6) && isHex(hex) {
		return drawing.ColorFromHex(hex)
	}
	return gochart.GetDefaultColor(i)
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

func xFormatter(annual bool) gochart.ValueFormatter {
	if annual {
		return func(v interface{}) string {
			if f, ok := v.(float64); ok {
				return strconv.Itoa(int(math.Round(f)))
			}
			return ""
		}
	}
	return func(v interface{}) string {
		if f, ok := v.(float64); ok {
			return gochart.TimeFromFloat64(f).UTC().Format("Jan 2006")
		}
		return ""
	}
}

func countFormatter(v interface{}) string {
	f, ok := v.(float64)
	if !ok {
		return ""
	}
	return groupThousands(int64(math.Round(f)))
}

// groupThousands formats n as 1,234,567.
func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var b strings.Builder
	for i, c := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// extent tracks the data bounds of all drawn points.
type extent struct {
	set                    bool
	minX, maxX, minY, maxY float64
}

func (e *extent) add(x, y float64) {
	if !e.set {
		e.minX, e.maxX, e.minY, e.maxY = x, x, y, y
		e.set = true
		return
	}
	e.minX = math.Min(e.minX, x)
	e.maxX = math.Max(e.maxX, x)
	e.minY = math.Min(e.minY, y)
	e.maxY = math.Max(e.maxY, y)
}

// ranges returns non-degenerate axis ranges. The y axis starts at zero unless
// the data is negative.
func (e *extent) ranges(annual bool) (x, y *gochart.ContinuousRange) {
	if !e.set {
		if annual {
			return &gochart.ContinuousRange{Min: 0, Max: 1}, &gochart.ContinuousRange{Min: 0, Max: 1}
		}
		now := time.Now().UTC()
		return &gochart.ContinuousRange{
			Min: gochart.TimeToFloat64(now.AddDate(-1, 0, 0)),
			Max: gochart.TimeToFloat64(now),
		}, &gochart.ContinuousRange{Min: 0, Max: 1}
	}

	minX, maxX := e.minX, e.maxX
	if annual {
		minX, maxX = minX-0.5, maxX+0.5
	} else if maxX <= minX {
		day := float64(24 * time.Hour)
		minX, maxX = minX-day, maxX+day
	}

	minY := math.Min(0, e.minY)
	maxY := e.maxY + (e.maxY-minY)*0.1
	if maxY <= minY {
		maxY = minY + 1
	}
	return &gochart.ContinuousRange{Min: minX, Max: maxX}, &gochart.ContinuousRange{Min: minY, Max: maxY}
}
