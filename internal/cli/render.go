package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/concierge/internal/compliance"
	"github.com/Veraticus/concierge/internal/discovery"
)

// RenderDiscovery prints a discovery result as a table of candidates.
func RenderDiscovery(w io.Writer, r *discovery.Result) error {
	var b strings.Builder

	b.WriteString(FormatTitle("Partner discovery") + "\n")
	b.WriteString(SubtleStyle.Render(r.Message))
	if r.Cached {
		b.WriteString(SubtleStyle.Render(" (cached)"))
	}
	b.WriteString("\n\n")

	if len(r.Suggestions) == 0 {
		b.WriteString(FormatWarning("No candidates found") + "\n")
	} else {
		tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			TableHeaderStyle.Render("Company"),
			TableHeaderStyle.Render("Category"),
			TableHeaderStyle.Render("Priority"),
			TableHeaderStyle.Render("Score"),
			TableHeaderStyle.Render("Contact"))
		for _, s := range r.Suggestions {
			contact := s.ValidatedEmail
			if contact == "" {
				contact = SubtleStyle.Render("-")
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n",
				BoldStyle.Render(s.CompanyName), s.Category, s.Priority, s.MatchScore, contact)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if len(r.SearchQueries) > 0 {
		b.WriteString("\n" + SubtitleStyle.Render(SearchIcon+" Queries") + "\n")
		for _, q := range r.SearchQueries {
			b.WriteString("  • " + q + "\n")
		}
	}

	if len(r.AutoOutreachResults) > 0 {
		b.WriteString("\n" + SubtitleStyle.Render(MailIcon+" Outreach") + "\n")
		for _, o := range r.AutoOutreachResults {
			if o.Success {
				b.WriteString("  " + FormatSuccess(fmt.Sprintf("%s <%s>", o.Company, o.Email)) + "\n")
			} else {
				b.WriteString("  " + FormatError(fmt.Sprintf("%s: %s", o.Company, o.Error)) + "\n")
			}
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderCompliance prints a compliance verdict in a box.
func RenderCompliance(w io.Writer, r *compliance.Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "Verification  %s\n", r.VerificationID)
	fmt.Fprintf(&b, "Status        %s\n", RiskStyle(string(r.Status)).Render(string(r.Status)))
	fmt.Fprintf(&b, "Risk          %s (score %d)\n", RiskStyle(string(r.RiskLevel)).Render(string(r.RiskLevel)), r.RiskScore)
	fmt.Fprintf(&b, "Recommended   %s\n", RiskStyle(string(r.Recommendation)).Render(string(r.Recommendation)))
	fmt.Fprintf(&b, "Alerts        %d\n", r.Alerts)
	fmt.Fprintf(&b, "Documents     %s", documentsLabel(r.DocumentsVerified))

	if len(r.RiskFactors) > 0 {
		b.WriteString("\n\n" + BoldStyle.Render("Risk factors") + "\n")
		for _, f := range r.RiskFactors {
			fmt.Fprintf(&b, "  %s %s %s\n",
				RiskStyle(string(f.Severity)).Render(fmt.Sprintf("+%d", f.ScoreImpact)),
				f.Description,
				SubtleStyle.Render("["+f.Category+"]"))
		}
	}

	_, err := fmt.Fprintln(w, RenderBox(ShieldIcon+" Compliance check", strings.TrimRight(b.String(), "\n")))
	return err
}

func documentsLabel(verified bool) string {
	if verified {
		return SuccessStyle.Render(SuccessIcon + " verified")
	}
	return SubtleStyle.Render("not verified")
}
