package pages

import (
	"fmt"
	"io"
	"strings"
)

const rule = "────────────────────────────────────────"

// RenderText writes a page for a terminal.
func (r *Renderer) RenderText(w io.Writer, ctx Context) error {
	var b strings.Builder

	writeNav(&b, ctx)
	fmt.Fprintf(&b, "\n%s\n%s\n\n", ctx.Page.Title, rule)

	c := ctx.Content
	switch ctx.Page.Path {
	case "/":
		fmt.Fprintf(&b, "%s\n\n", c.Home.Tagline)
		b.WriteString("About Our Experiment\n")
		for _, p := range c.Home.About {
			fmt.Fprintf(&b, "  %s\n", p)
		}
		b.WriteString("\nExplore Our Research\n")
		for _, f := range c.Home.Features {
			fmt.Fprintf(&b, "  %-20s %s  (%s)\n", f.Title, f.Description, f.Path)
		}
		b.WriteString("\nOur Team\n")
		writeTeam(&b, c.Home.Team)

	case "/chemicals":
		fmt.Fprintf(&b, "%s\n\nSafety First: %s\n\n", c.Chemicals.Intro, c.Chemicals.SafetyNote)
		for _, chem := range c.Chemicals.Items {
			fmt.Fprintf(&b, "• %s [%s]\n  %s\n  Purpose: %s\n  ! %s\n\n", chem.Name, chem.Hazard.Badge(), chem.Formula, chem.Purpose, chem.Safety)
		}
		b.WriteString("Hazard Level Legend\n")
		for _, l := range c.Chemicals.Legend {
			fmt.Fprintf(&b, "  %s\n", l.Label)
		}

	case "/procedure":
		fmt.Fprintf(&b, "%s\n\nSafety Precautions\n", c.Procedure.Intro)
		for _, s := range c.Procedure.Safety {
			fmt.Fprintf(&b, "  ✓ %s\n", s)
		}
		b.WriteString("\n")
		for _, step := range c.Procedure.Steps {
			fmt.Fprintf(&b, "%d. %s (%s)\n   %s\n", step.Number, step.Title, step.Duration, step.Description)
			for _, d := range step.Details {
				fmt.Fprintf(&b, "   - %s\n", d)
			}
		}
		fmt.Fprintf(&b, "\nTotal Experiment Time: %s %s\n", c.Procedure.TotalTime, c.Procedure.TotalTimeNote)

	case "/process":
		fmt.Fprintf(&b, "%s\n\n", c.Process.Intro)
		for i, s := range c.Process.Stages {
			fmt.Fprintf(&b, "Step %d: %s (%s)\n  %s\n  %s\n", s.Number, s.Title, s.Subtitle, s.Description, s.Formula)
			if i < len(c.Process.Stages)-1 {
				b.WriteString("    ↓\n")
			}
		}
		b.WriteString("\nKey Scientific Concepts\n")
		for _, k := range c.Process.Concepts {
			fmt.Fprintf(&b, "  %s: %s\n", k.Title, k.Description)
		}

	case "/media":
		fmt.Fprintf(&b, "%s\n\n%s: %s\n  %s\n\nExperiment Gallery\n", c.Media.Intro, c.Media.Video.Title, c.Media.Video.Src, c.Media.Video.Description)
		for _, m := range c.Media.Gallery {
			fmt.Fprintf(&b, "  %s: %s (%s)\n", m.Title, m.Description, m.Src)
		}
		fmt.Fprintf(&b, "\nOur Team: %s\n", c.Media.TeamPhoto.Src)
		writeTeam(&b, c.Home.Team)

	case "/faq":
		fmt.Fprintf(&b, "%s\n\n", c.FAQ.Intro)
		for i, e := range c.FAQ.Entries {
			fmt.Fprintf(&b, "Q%d. %s\n    %s\n\n", i+1, e.Question, e.Answer)
		}
		fmt.Fprintf(&b, "Still Have Questions? %s\n", c.FAQ.Outro)

	default:
		return r.RenderNotFoundText(w, ctx.Page.Path)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) RenderNotFoundText(w io.Writer, route string) error {
	_, err := fmt.Fprintf(w, "404: Oops! Page not found (%s)\n", route)
	return err
}

func writeNav(b *strings.Builder, ctx Context) {
	b.WriteString("ChemXplore |")
	for _, item := range ctx.Nav {
		if item.Active {
			fmt.Fprintf(b, " [%s]", item.Name)
		} else {
			fmt.Fprintf(b, " %s", item.Name)
		}
	}
	if ctx.User != nil {
		fmt.Fprintf(b, " | %s", ctx.User.Email)
	}
	b.WriteString("\n")
}

func writeTeam(b *strings.Builder, team []Member) {
	for _, m := range team {
		fmt.Fprintf(b, "  (%s) %s, %s\n", m.Initial(), m.Name, m.Role)
	}
}
