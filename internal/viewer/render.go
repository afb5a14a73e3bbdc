package viewer

import (
	"fmt"
	"io"
	"math"
	"sort"

	svg "github.com/ajstarks/svgo"
)

// ColorBy selects the color channel of the chart.
type ColorBy string

const (
	ColorSeverity ColorBy = "severity"
	ColorBodyPart ColorBy = "body_part"
)

// ParseColorBy maps a request value to a ColorBy; "" means severity.
func ParseColorBy(s string) (ColorBy, error) {
	switch ColorBy(s) {
	case "", ColorSeverity:
		return ColorSeverity, nil
	case ColorBodyPart:
		return ColorBodyPart, nil
	}
	return "", fmt.Errorf("unknown color channel %q (use severity or body_part)", s)
}

const (
	chartW   = 960
	chartH   = 540
	marginL  = 64
	marginR  = 190
	marginT  = 48
	marginB  = 96
	markSize = 6
	noColor  = "#9e9e9e"
)

var palette = []string{
	"#1f77b4", "#ff7f0e", "#2ca02c", "#d62728", "#9467bd", "#8c564b", "#e377c2",
	"#7f7f7f", "#bcbd22", "#17becf", "#393b79", "#637939", "#8c6d31", "#843c39",
}

// SeverityColor maps a 0-10 score onto a blue to red gradient. Scores
// outside the range are clamped; nil is gray.
func SeverityColor(s *int) string {
	if s == nil {
		return noColor
	}
	t := math.Min(math.Max(float64(*s), 0), 10) / 10
	r := int(math.Round(40 + 215*t))
	g := int(math.Round(90 * (1 - t)))
	b := int(math.Round(220 * (1 - t)))
	return fmt.Sprintf("#%02x%02x%02x", r, g, b)
}

// RenderSVG draws the chart for subject at visit.
func (v *Viewer) RenderSVG(w io.Writer, subject, visit string, by ColorBy) error {
	if _, err := ParseColorBy(string(by)); err != nil {
		return err
	}
	points := v.Points(subject, visit)
	buckets := v.tables.Buckets
	plotW := float64(chartW - marginL - marginR)
	plotH := float64(chartH - marginT - marginB)
	band := plotW / float64(max(len(buckets), 1))

	maxAmp := 1.0
	for _, p := range points {
		if p.Amplitude != nil && *p.Amplitude > maxAmp {
			maxAmp = *p.Amplitude
		}
	}
	maxAmp = math.Ceil(maxAmp)

	devIdx := map[string]int{}
	for i, d := range v.devices {
		devIdx[d] = i
	}
	xFor := func(p Point) int {
		off := 0.0
		if n := len(v.devices); n > 1 {
			off = (float64(devIdx[p.Device]) - float64(n-1)/2) * band / float64(n+1)
		}
		return int(math.Round(marginL + band*float64(v.rank(p.CombinedSetting)) + band/2 + off))
	}
	yFor := func(a float64) int {
		return int(math.Round(marginT + plotH - a/maxAmp*plotH))
	}

	partColors := bodyPartColors(points)
	colorFor := func(p Point) string {
		if by == ColorBodyPart {
			if c, ok := partColors[p.BodyPart]; ok {
				return c
			}
			return noColor
		}
		return SeverityColor(p.Severity)
	}

	c := svg.New(w)
	c.Start(chartW, chartH)
	c.Title(fmt.Sprintf("%s, %s", subject, visit))
	c.Rect(0, 0, chartW, chartH, "fill:white")
	c.Text(marginL, 28, fmt.Sprintf("%s | %s | color: %s", subject, visit, by), "font-family:sans-serif;font-size:16px")

	// axes
	base := yFor(0)
	c.Line(marginL, base, chartW-marginR, base, "stroke:#333;stroke-width:1")
	c.Line(marginL, marginT, marginL, base, "stroke:#333;stroke-width:1")
	for i := 0; i <= 5; i++ {
		a := maxAmp * float64(i) / 5
		y := yFor(a)
		c.Line(marginL-4, y, marginL, y, "stroke:#333")
		c.Line(marginL, y, chartW-marginR, y, "stroke:#eee")
		c.Text(marginL-8, y+4, fmt.Sprintf("%.1f", a), "font-family:sans-serif;font-size:11px;text-anchor:end")
	}
	c.Text(16, marginT+int(plotH/2), "amplitude (mA)", "font-family:sans-serif;font-size:12px;text-anchor:middle",
		fmt.Sprintf(`transform="rotate(-90 16 %d)"`, marginT+int(plotH/2)))
	for i, b := range buckets {
		x := int(math.Round(marginL + band*float64(i) + band/2))
		y := base + 16
		c.Text(x, y, b, "font-family:sans-serif;font-size:11px;text-anchor:end",
			fmt.Sprintf(`transform="rotate(-40 %d %d)"`, x, y))
	}

	for _, p := range points {
		x := xFor(p)
		if p.Placeholder || p.Amplitude == nil {
			mark(c, x, base, p.ParesthesiaType, fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", noColor))
			continue
		}
		mark(c, x, yFor(*p.Amplitude), p.ParesthesiaType, fmt.Sprintf("fill:%s;stroke:#333;stroke-width:1", colorFor(p)))
	}

	legend(c, by, partColors)
	c.End()
	return nil
}

// mark draws a square for persistent paresthesias and a circle otherwise.
func mark(c *svg.SVG, x, y int, kind, style string) {
	if kind == "persistent" {
		c.Rect(x-markSize, y-markSize, 2*markSize, 2*markSize, style)
		return
	}
	c.Circle(x, y, markSize, style)
}

func bodyPartColors(points []Point) map[string]string {
	var labels []string
	seen := map[string]bool{}
	for _, p := range points {
		if p.Placeholder || p.BodyPart == "" || seen[p.BodyPart] {
			continue
		}
		seen[p.BodyPart] = true
		labels = append(labels, p.BodyPart)
	}
	sort.Strings(labels)
	out := make(map[string]string, len(labels))
	for i, l := range labels {
		out[l] = palette[i%len(palette)]
	}
	return out
}

func legend(c *svg.SVG, by ColorBy, partColors map[string]string) {
	x := chartW - marginR + 24
	y := marginT + 8
	text := "font-family:sans-serif;font-size:11px"
	mark(c, x, y, "transient", "fill:#555")
	c.Text(x+12, y+4, "transient", text)
	y += 20
	mark(c, x, y, "persistent", "fill:#555")
	c.Text(x+12, y+4, "persistent", text)
	y += 20
	mark(c, x, y, "", fmt.Sprintf("fill:none;stroke:%s;stroke-width:1.5", noColor))
	c.Text(x+12, y+4, "not tested", text)
	y += 32

	if by == ColorBodyPart {
		labels := make([]string, 0, len(partColors))
		for l := range partColors {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		for _, l := range labels {
			c.Rect(x-markSize, y-markSize, 2*markSize, 2*markSize, "fill:"+partColors[l])
			c.Text(x+12, y+4, l, text)
			y += 18
		}
		c.Rect(x-markSize, y-markSize, 2*markSize, 2*markSize, "fill:"+noColor)
		c.Text(x+12, y+4, "none", text)
		return
	}
	c.Text(x-markSize, y, "severity", text)
	y += 12
	for s := 0; s <= 10; s += 2 {
		sv := s
		c.Rect(x-markSize, y, 2*markSize, 12, "fill:"+SeverityColor(&sv))
		c.Text(x+12, y+10, fmt.Sprintf("%d", s), text)
		y += 14
	}
}
