package ui

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/complyscope/complyscope/pkg/aggregate"
	"github.com/complyscope/complyscope/pkg/finding"
)

// Summary is the data shown after an evaluation. It is also the dot of
// summary templates.
type Summary struct {
	ScanID    string
	Processed int
	Muted     int
	Failed    int
	Filtered  int
	Skipped   int
	Warnings  []string
	Overviews []aggregate.ComplianceOverview
	OutputDir string
}

// Score returns the share of assessed requirements that passed, in
// percent, or -1 when nothing was assessed.
func Score(ov aggregate.ComplianceOverview) float64 {
	assessed := ov.RequirementsPassed + ov.RequirementsFailed
	if assessed == 0 {
		return -1
	}
	return float64(ov.RequirementsPassed) * 100 / float64(assessed)
}

func formatScore(ov aggregate.ComplianceOverview) string {
	s := Score(ov)
	if s < 0 {
		return "n/a"
	}
	return strconv.FormatFloat(s, 'f', 1, 64) + "%"
}

var tableColumns = []struct {
	title string
	width int
}{
	{"COMPLIANCE ID", 34},
	{"VERSION", 10},
	{"PASS", 6},
	{"FAIL", 6},
	{"MANUAL", 8},
	{"TOTAL", 7},
	{"SCORE", 8},
}

// counts groups digits in large counters ("12,345").
var counts = message.NewPrinter(language.English)

func cell(i int, s string, style lipgloss.Style) string {
	return style.Width(tableColumns[i].width).Render(s)
}

// PrintSummary writes the evaluation counters and one row per framework.
func PrintSummary(w io.Writer, s Summary) {
	if IsSilent() {
		return
	}
	fmt.Fprintln(w, TitleStyle.Render("Compliance summary"))
	fmt.Fprintln(w)

	stat := func(label string, v int) {
		fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render(fmt.Sprintf("%-10s", label)), StatValueStyle.Render(counts.Sprintf("%d", v)))
	}
	fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render(fmt.Sprintf("%-10s", "Scan")), StatValueStyle.Render(s.ScanID))
	stat("Findings", s.Processed)
	stat("Failed", s.Failed)
	stat("Muted", s.Muted)
	if s.Filtered > 0 {
		stat("Filtered", s.Filtered)
	}
	if s.Skipped > 0 {
		stat("Skipped", s.Skipped)
	}

	if len(s.Overviews) > 0 {
		fmt.Fprintln(w, SectionStyle.Render("Frameworks"))
		var hdr strings.Builder
		for i, c := range tableColumns {
			hdr.WriteString(cell(i, c.title, HeaderStyle))
		}
		fmt.Fprintln(w, "  "+hdr.String())
		for _, ov := range s.Overviews {
			fmt.Fprintln(w, "  "+overviewRow(ov))
		}
	}

	if len(s.Warnings) > 0 {
		fmt.Fprintln(w, SectionStyle.Render(fmt.Sprintf("Warnings (%d)", len(s.Warnings))))
		for _, msg := range s.Warnings {
			fmt.Fprintln(w, "  "+WarningStyle.Render(Icon("⚠", "!")+" "+msg))
		}
	}
	if s.OutputDir != "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  %s %s\n", StatLabelStyle.Render("Reports written to"), s.OutputDir)
	}
}

func overviewRow(ov aggregate.ComplianceOverview) string {
	failStyle := StatValueStyle
	if ov.RequirementsFailed > 0 {
		failStyle = FailStyle
	}
	return cell(0, ov.ComplianceID, ConfigValueStyle) +
		cell(1, ov.Version, MutedStyle) +
		cell(2, strconv.Itoa(ov.RequirementsPassed), PassStyle) +
		cell(3, strconv.Itoa(ov.RequirementsFailed), failStyle) +
		cell(4, strconv.Itoa(ov.RequirementsManual), ManualStyle) +
		cell(5, strconv.Itoa(ov.TotalRequirements), StatValueStyle) +
		cell(6, formatScore(ov), StatValueStyle)
}

// PrintRequirements writes the requirement overviews of one framework.
func PrintRequirements(w io.Writer, reqs []aggregate.RequirementOverview) {
	if IsSilent() {
		return
	}
	for _, r := range reqs {
		name := r.Name
		if name == "" {
			name = r.Description
		}
		fmt.Fprintf(w, "  %s %s %s\n",
			StatusStyle(r.Status).Width(10).Render(string(r.Status)),
			ConfigValueStyle.Width(12).Render(r.RequirementID),
			MutedStyle.Render(truncate(name, 80)))
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// TemplateFuncs returns the functions available to summary templates:
// every sprig function plus status and score helpers.
func TemplateFuncs() template.FuncMap {
	funcs := sprig.TxtFuncMap()
	funcs["statusBadge"] = func(s finding.Status) string { return StatusBadge(s) }
	funcs["score"] = formatScore
	return funcs
}

// ParseTemplate parses a summary template.
func ParseTemplate(name, text string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(TemplateFuncs()).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse summary template: %w", err)
	}
	return tmpl, nil
}

// LoadTemplate reads and parses a summary template file.
func LoadTemplate(path string) (*template.Template, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read summary template: %w", err)
	}
	return ParseTemplate(path, string(content))
}

// RenderSummary executes tmpl with s.
func RenderSummary(w io.Writer, tmpl *template.Template, s Summary) error {
	if err := tmpl.Execute(w, s); err != nil {
		return fmt.Errorf("render summary template: %w", err)
	}
	return nil
}
