package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
)

type Format string

const (
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// Formats lists the supported output formats.
var Formats = []Format{FormatText, FormatMarkdown, FormatHTML, FormatJSON}

// ParseFormat accepts a format name, case-insensitively. "md" is an alias
// for markdown.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case "md":
		return FormatMarkdown, nil
	case FormatText, FormatMarkdown, FormatHTML, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported output format %q", s)
	}
}

type Options struct {
	ShowPreviews bool
}

// Render writes v to w in the requested format.
func Render(w io.Writer, v *View, format Format, opts Options) error {
	if v == nil {
		return fmt.Errorf("nothing to render")
	}

	switch format {
	case FormatText, "":
		return renderText(w, v, opts)
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(v, opts))
		return err
	case FormatHTML:
		return renderHTML(w, v, opts)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

// TierColor returns the terminal colour used for a tier.
func TierColor(t Tier) *color.Color {
	switch t {
	case TierExcellent:
		return color.New(color.FgGreen, color.Bold)
	case TierGood:
		return color.New(color.FgBlue, color.Bold)
	case TierModerate:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func renderText(w io.Writer, v *View, opts Options) error {
	var b strings.Builder
	heading := color.New(color.Bold, color.Underline)
	badge := TierColor(v.Tier)

	fmt.Fprintf(&b, "%s\n", heading.Sprint("Match Analysis"))
	fmt.Fprintf(&b, "Score: %s  %s\n\n", badge.Sprintf("%d%%", v.Score), badge.Sprintf("[%s]", strings.ToUpper(v.Status)))

	metrics := [][2]string{
		{"TF-IDF similarity", v.TFIDFSimilarity},
		{"Keyword similarity", v.KeywordSimilarity},
		{"Skill match", v.SkillMatch},
		{"Required skills", v.RequiredSkills},
		{"Action verbs", fmt.Sprintf("%d", v.ActionVerbs)},
	}
	for _, m := range metrics {
		fmt.Fprintf(&b, "  %-20s %s\n", m[0], m[1])
	}

	if v.HasMissingSkills() {
		fmt.Fprintf(&b, "\n%s\n", color.RedString("Missing skills (%d):", len(v.MissingSkills)))
		for _, skill := range v.MissingSkills {
			fmt.Fprintf(&b, "  %s %s %s\n", color.YellowString("•"), skill.Name, color.HiBlackString("(%s)", skill.Category))
		}
	} else {
		fmt.Fprintf(&b, "\n%s\n", color.GreenString("No missing skills found."))
	}

	if opts.ShowPreviews {
		fmt.Fprintf(&b, "\n%s\n%s\n", heading.Sprintf("Resume (%d words)", v.ResumeWords), indent(v.ResumePreview))
		fmt.Fprintf(&b, "\n%s\n%s\n", heading.Sprintf("Job description (%d words)", v.JobDescriptionWords), indent(v.JobDescriptionPreview))
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Markdown renders v as a markdown document.
func Markdown(v *View, opts Options) string {
	var b strings.Builder

	b.WriteString("# Resume match report\n\n")
	fmt.Fprintf(&b, "**Score:** %d%% (%s)\n\n", v.Score, v.Status)

	b.WriteString("## Metrics\n\n")
	fmt.Fprintf(&b, "- TF-IDF similarity: %s\n", v.TFIDFSimilarity)
	fmt.Fprintf(&b, "- Keyword similarity: %s\n", v.KeywordSimilarity)
	fmt.Fprintf(&b, "- Skill match: %s\n", v.SkillMatch)
	fmt.Fprintf(&b, "- Required skills: %s\n", v.RequiredSkills)
	fmt.Fprintf(&b, "- Action verbs: %d\n\n", v.ActionVerbs)

	if v.HasMissingSkills() {
		b.WriteString("## Missing skills\n\n")
		for _, skill := range v.MissingSkills {
			fmt.Fprintf(&b, "- **%s** (%s)\n", escapeMarkdown(skill.Name), escapeMarkdown(skill.Category))
		}
		b.WriteString("\n")
	}

	if opts.ShowPreviews {
		fmt.Fprintf(&b, "## Resume preview (%d words)\n\n%s\n\n", v.ResumeWords, fence(v.ResumePreview))
		fmt.Fprintf(&b, "## Job description preview (%d words)\n\n%s\n\n", v.JobDescriptionWords, fence(v.JobDescriptionPreview))
	}

	return b.String()
}

func renderHTML(w io.Writer, v *View, opts Options) error {
	var body bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(v, opts)), &body); err != nil {
		return fmt.Errorf("converting report to html: %w", err)
	}

	_, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Resume match report</title>
</head>
<body>
%s</body>
</html>
`, body.String())
	return err
}

var markdownEscaper = strings.NewReplacer(
	`\`, `\\`,
	"*", `\*`,
	"_", `\_`,
	"`", "\\`",
	"[", `\[`,
	"]", `\]`,
	"<", `\<`,
	">", `\>`,
	"#", `\#`,
)

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// fence wraps text in a code fence longer than any backtick run inside it.
func fence(text string) string {
	longest, run := 0, 0
	for _, r := range text {
		if r == '`' {
			run++
			if run > longest {
				longest = run
			}
			continue
		}
		run = 0
	}

	marker := strings.Repeat("`", max(3, longest+1))
	return marker + "text\n" + text + "\n" + marker
}

func indent(text string) string {
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	for i, line := range lines {
		lines[i] = "  " + line
	}
	return strings.Join(lines, "\n")
}
