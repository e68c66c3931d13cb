package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/chiro2001/financial-frontend/internal/app"
)

// renderDebug draws the frame loop statistics.
func renderDebug(a *app.App) string {
	var b strings.Builder
	row := func(label, value string) {
		b.WriteString(LabelStyle.Render(fmt.Sprintf("%-16s", label)))
		b.WriteString(ValueStyle.Render(value))
		b.WriteString("\n")
	}

	frames := a.Frames()
	b.WriteString(SummaryStyle.Render("Frame loop"))
	b.WriteString("\n")
	row("Run mode", a.RunMode().String())
	row("FPS", fmt.Sprintf("%.1f", frames.FPS()))
	row("Frame time", frames.MeanFrameTime().String())
	row("Frames", fmt.Sprintf("%d", frames.Total()))
	row("Pending events", fmt.Sprintf("%d", a.Pending()))
	row("Open views", fmt.Sprintf("%d", len(a.Views())))

	b.WriteString("\n")
	b.WriteString(SummaryStyle.Render("Connection"))
	b.WriteString("\n")
	row("Host", a.Host())
	endpoint := "-"
	if c := a.Client(); c != nil {
		endpoint = c.Endpoint()
	}
	row("Endpoint", endpoint)
	user := "-"
	if s := a.Session(); s != nil {
		user = s.Username
	}
	row("User", user)

	counts := a.EventCounts()
	if len(counts) > 0 {
		b.WriteString("\n")
		b.WriteString(SummaryStyle.Render("Events applied"))
		b.WriteString("\n")
		names := make([]string, 0, len(counts))
		for name := range counts {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			row(name, fmt.Sprintf("%d", counts[name]))
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func debugHints() []keyHint {
	return []keyHint{
		{"space", "run mode"},
		{"e", "switch host"},
		{"L", "log out"},
	}
}

// nextHost returns the known host after current.
func nextHost(hosts []string, current string) string {
	if len(hosts) == 0 {
		return current
	}
	i := slices.Index(hosts, current)
	return hosts[(i+1)%len(hosts)]
}
