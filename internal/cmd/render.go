package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/Digital-Shane/movie-meta/internal/core"
	"github.com/Digital-Shane/movie-meta/internal/group"
	"github.com/Digital-Shane/movie-meta/internal/media"
	"github.com/Digital-Shane/movie-meta/internal/provider"
	"github.com/Digital-Shane/movie-meta/internal/theme"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"
)

const (
	valueWidth  = 48
	detailWidth = 60
)

func init() {
	// Ambiguous-width runes count as one cell so table columns line up.
	runewidth.DefaultCondition.EastAsianWidth = false
	runewidth.DefaultCondition.StrictEmojiNeutral = true
}

// truncate shortens s to width terminal cells.
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, width, "…")
}

func newTable(th theme.Theme, headers ...string) *table.Table {
	return table.New().
		Border(th.Border()).
		BorderStyle(th.BorderStyle()).
		Headers(headers...)
}

func statusKind(s core.Status) theme.BadgeKind {
	switch s {
	case core.StatusApplied:
		return theme.BadgeSuccess
	case core.StatusFailed:
		return theme.BadgeError
	default:
		return theme.BadgeMuted
	}
}

func statusIcon(th theme.Theme, o core.Outcome) string {
	switch {
	case o.Status == core.StatusApplied:
		return th.Icon("applied")
	case o.Status == core.StatusFailed:
		return th.Icon("failed")
	case o.Status == core.StatusSkipped:
		return th.Icon("skipped")
	case o.Failure == core.FailureCanceled:
		return th.Icon("canceled")
	default:
		return th.Icon("pending")
	}
}

// renderReport prints the per-field outcome of one run. Values are read from
// movie, which the run has already updated.
func renderReport(w io.Writer, th theme.Theme, report *core.Report, movie *media.Movie) {
	header := fmt.Sprintf("%s %s", th.Icon("movie"), report.Movie)
	fmt.Fprintln(w, th.HeaderStyle().Render(header))
	fmt.Fprintf(w, "%s group %s  run %s\n", th.Icon("group"), report.Group, report.RunID)

	kinds := make([]theme.BadgeKind, 0, len(report.Outcomes))
	t := newTable(th, "Field", "Backend", "Status", "Value")
	for _, o := range report.Outcomes {
		kinds = append(kinds, statusKind(o.Status))
		t.Row(
			o.Field.String(),
			o.Backend,
			statusIcon(th, o)+" "+o.Status.String(),
			outcomeDetail(o, movie),
		)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return th.HeaderStyle().Padding(0, 1)
		}
		if col == 2 && row >= 0 && row < len(kinds) {
			return th.TextStyle(kinds[row])
		}
		return th.CellStyle()
	})
	fmt.Fprintln(w, t.Render())

	badge := th.BadgeStyle(theme.BadgeSuccess).Render("SUCCESS")
	if !report.Success {
		badge = th.BadgeStyle(theme.BadgeError).Render("FAILED")
	}
	fmt.Fprintf(w, "%s %s applied %d, failed %d, skipped %d\n",
		badge, th.Icon("stats"),
		report.Count(core.StatusApplied),
		report.Count(core.StatusFailed),
		report.Count(core.StatusSkipped))
	if report.Err != nil {
		fmt.Fprintf(w, "%s stopped early: %v\n", th.Icon("canceled"), report.Err)
	}
}

func outcomeDetail(o core.Outcome, movie *media.Movie) string {
	switch o.Status {
	case core.StatusApplied:
		return truncate(fieldValue(movie, o.Field), valueWidth)
	case core.StatusFailed:
		if o.Err != nil {
			return truncate(o.Failure.String()+": "+o.Err.Error(), detailWidth)
		}
		return o.Failure.String()
	default:
		return ""
	}
}

// fieldValue formats the current value of f on movie for display.
func fieldValue(m *media.Movie, f provider.Field) string {
	if m == nil {
		return ""
	}
	switch f {
	case provider.FieldTitle:
		if n := len(m.AlternateTitles); n > 0 {
			return fmt.Sprintf("%s (+%d alternate)", m.Title, n)
		}
		return m.Title
	case provider.FieldOriginalTitle:
		return m.OriginalTitle
	case provider.FieldYear:
		return positive(m.Year)
	case provider.FieldTop250:
		if m.Top250 == 0 {
			return "unranked"
		}
		return "#" + strconv.Itoa(m.Top250)
	case provider.FieldCast:
		return people(m.Cast)
	case provider.FieldCertification:
		return m.Certification
	case provider.FieldMpaa:
		return m.Mpaa
	case provider.FieldCountry:
		return strings.Join(m.Country, ", ")
	case provider.FieldDirector:
		return people(m.Director)
	case provider.FieldFanart:
		return images(m.CurrentFanartURL, m.AlternativeFanart)
	case provider.FieldGenre:
		return strings.Join(m.Genre, ", ")
	case provider.FieldLanguage:
		return strings.Join(m.Language, ", ")
	case provider.FieldOutline:
		return m.Outline
	case provider.FieldPlot:
		return m.Plot
	case provider.FieldRating:
		return strconv.FormatFloat(m.Rating, 'f', 1, 64)
	case provider.FieldReleaseDate:
		if m.ReleaseDate.IsZero() {
			return ""
		}
		return m.ReleaseDate.Format("2006-01-02")
	case provider.FieldRuntime:
		if m.Runtime <= 0 {
			return ""
		}
		return fmt.Sprintf("%d min", m.Runtime)
	case provider.FieldStudio:
		return strings.Join(m.Studio, ", ")
	case provider.FieldTagline:
		return m.Tagline
	case provider.FieldVotes:
		return positive(m.Votes)
	case provider.FieldWriters:
		return people(m.Writers)
	case provider.FieldPoster:
		return images(m.CurrentPosterURL, m.AlternativePosters)
	case provider.FieldTrailer:
		switch n := len(m.AlternativeTrailers); n {
		case 0:
			return ""
		case 1:
			return m.AlternativeTrailers[0].URL
		default:
			return fmt.Sprintf("%d trailers", n)
		}
	default:
		return ""
	}
}

func positive(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func people(ps []media.Person) string {
	names := make([]string, 0, len(ps))
	for _, p := range ps {
		names = append(names, p.Name)
	}
	return strings.Join(names, ", ")
}

func images(current string, alternatives []media.Image) string {
	switch len(alternatives) {
	case 0:
		return current
	case 1:
		return alternatives[0].URL
	default:
		return fmt.Sprintf("%d images", len(alternatives))
	}
}

// batchRow is one line of the batch summary, in input order.
type batchRow struct {
	Label  string
	Result *core.JobResult
}

func renderBatch(w io.Writer, th theme.Theme, rows []batchRow, summary core.BatchSummary) {
	kinds := make([]theme.BadgeKind, 0, len(rows))
	t := newTable(th, "Movie", "Group", "Applied", "Failed", "Skipped", "Result")
	for _, r := range rows {
		res := r.Result
		switch {
		case res == nil:
			kinds = append(kinds, theme.BadgeMuted)
			t.Row(truncate(r.Label, valueWidth), "", "", "", "", th.Icon("pending")+" not run")
		case res.Err != nil || res.Report == nil:
			kinds = append(kinds, theme.BadgeError)
			msg := "no report"
			if res.Err != nil {
				msg = res.Err.Error()
			}
			t.Row(truncate(r.Label, valueWidth), "", "", "", "", th.Icon("failed")+" "+truncate(msg, detailWidth))
		default:
			rep := res.Report
			result := th.Icon("applied") + " ok"
			kind := theme.BadgeSuccess
			if !rep.Success {
				result, kind = th.Icon("failed")+" failed", theme.BadgeError
			}
			kinds = append(kinds, kind)
			t.Row(
				truncate(r.Label, valueWidth),
				rep.Group,
				strconv.Itoa(rep.Count(core.StatusApplied)),
				strconv.Itoa(rep.Count(core.StatusFailed)),
				strconv.Itoa(rep.Count(core.StatusSkipped)),
				result,
			)
		}
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return th.HeaderStyle().Padding(0, 1)
		}
		if col == 5 && row >= 0 && row < len(kinds) {
			return th.TextStyle(kinds[row])
		}
		return th.CellStyle()
	})
	fmt.Fprintln(w, t.Render())

	fmt.Fprintf(w, "%s %d/%d movies processed, %d failed, %d workers\n",
		th.Icon("stats"), summary.ProcessedJobs, summary.TotalJobs, summary.FailedJobs, summary.WorkerLimit)
	if summary.Canceled {
		fmt.Fprintf(w, "%s batch canceled\n", th.Icon("canceled"))
	}
}

func renderBackends(w io.Writer, th theme.Theme, backends []provider.Backend) {
	t := newTable(th, "Backend", "ID", "Bootstrap", "Auth", "Fields")
	for _, b := range backends {
		d := b.Descriptor()
		fields := make([]string, 0, len(d.Fields))
		for _, f := range d.Fields {
			fields = append(fields, f.String())
		}
		auth := ""
		if d.RequiresAuth {
			auth = th.Icon("key")
		}
		t.Row(d.Name, d.IDKind.String(), d.Bootstrap, auth, truncate(strings.Join(fields, ", "), valueWidth))
	}
	t.StyleFunc(headerStyle(th))
	fmt.Fprintln(w, t.Render())
}

func renderChoices(w io.Writer, th theme.Theme, f provider.Field, choices []string) {
	fmt.Fprintln(w, th.HeaderStyle().Render(fmt.Sprintf("%s choices for %s", th.Icon("backend"), f)))
	for _, c := range choices {
		fmt.Fprintf(w, "  %s\n", c)
	}
}

func renderGroups(w io.Writer, th theme.Theme, groups []*group.Group) {
	t := newTable(th, "Group", "Backends")
	for _, g := range groups {
		t.Row(g.Name(), truncate(strings.Join(g.Backends(), ", "), valueWidth))
	}
	t.StyleFunc(headerStyle(th))
	fmt.Fprintln(w, t.Render())
}

func renderGroup(w io.Writer, th theme.Theme, g *group.Group, reg group.Finder) {
	unresolved := make(map[provider.Field]bool)
	for _, fa := range g.Unresolved(reg) {
		unresolved[fa.Field] = true
	}

	fmt.Fprintln(w, th.HeaderStyle().Render(fmt.Sprintf("%s %s", th.Icon("group"), g.Name())))
	kinds := make([]theme.BadgeKind, 0, len(provider.Fields()))
	t := newTable(th, "Field", "Assignment", "Available")
	for _, fa := range g.Assignments() {
		available, kind := "", theme.BadgeMuted
		switch {
		case fa.Assignment.Kind == group.KindNone:
		case unresolved[fa.Field]:
			available, kind = th.Icon("failed")+" no", theme.BadgeError
		default:
			available, kind = th.Icon("applied")+" yes", theme.BadgeSuccess
		}
		kinds = append(kinds, kind)
		t.Row(fa.Field.String(), fa.Assignment.String(), available)
	}
	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return th.HeaderStyle().Padding(0, 1)
		}
		if col == 2 && row >= 0 && row < len(kinds) {
			return th.TextStyle(kinds[row])
		}
		return th.CellStyle()
	})
	fmt.Fprintln(w, t.Render())
}

func headerStyle(th theme.Theme) table.StyleFunc {
	return func(row, _ int) lipgloss.Style {
		if row == table.HeaderRow {
			return th.HeaderStyle().Padding(0, 1)
		}
		return th.CellStyle()
	}
}
