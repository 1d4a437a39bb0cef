package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/jobmatch/jobmatch/internal/ai"
	"github.com/jobmatch/jobmatch/internal/jobboard"
)

func Jobs(w io.Writer, jobs *jobboard.Jobs) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tLOCATION\tTYPE")
	for _, j := range jobs.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			j.ID, orDash(j.Title), j.Status, orDash(j.Location), orDash(j.EmploymentType))
	}

	return tw.Flush()
}

func Job(w io.Writer, j *jobboard.Job) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "id\t%s\n", j.ID)
	fmt.Fprintf(tw, "title\t%s\n", orDash(j.Title))
	fmt.Fprintf(tw, "company\t%s\n", orDash(j.CompanyID))
	fmt.Fprintf(tw, "status\t%s\n", j.Status)
	fmt.Fprintf(tw, "location\t%s\n", orDash(j.Location))
	fmt.Fprintf(tw, "type\t%s\n", orDash(j.EmploymentType))
	fmt.Fprintf(tw, "skills\t%s\n", orDash(strings.Join(j.Skills, ", ")))
	fmt.Fprintf(tw, "requirements\t%s\n", orDash(strings.Join(j.Requirements, "; ")))
	fmt.Fprintf(tw, "benefits\t%s\n", orDash(strings.Join(j.Benefits, "; ")))
	fmt.Fprintf(tw, "created\t%s\n", orDash(j.CreatedAt))
	if err := tw.Flush(); err != nil {
		return err
	}

	if d := strings.TrimSpace(j.Description); d != "" {
		_, err := fmt.Fprintf(w, "\n%s\n", d)
		return err
	}
	return nil
}

func Company(w io.Writer, c *jobboard.Company) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "id\t%s\n", c.ID)
	fmt.Fprintf(tw, "name\t%s\n", orDash(c.Name))
	fmt.Fprintf(tw, "industry\t%s\n", orDash(c.Industry))
	fmt.Fprintf(tw, "size\t%s\n", orDash(c.Size))
	fmt.Fprintf(tw, "location\t%s\n", orDash(c.Location))
	fmt.Fprintf(tw, "website\t%s\n", orDash(c.Website))
	fmt.Fprintf(tw, "description\t%s\n", orDash(c.Description))

	return tw.Flush()
}

// Applications lists applications. The match column is filled only when a result was attached.
func Applications(w io.Writer, apps *jobboard.Applications) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "ID\tJOB\tAPPLICANT\tSTATUS\tMATCH\tAPPLIED")
	for _, a := range apps.Items {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, orDash(a.JobID), orDash(ApplicationLabel(a)), a.Status, matchLabel(a), orDash(a.AppliedAt))
	}

	return tw.Flush()
}

// ApplicationLabel is a short human label for an applicant.
func ApplicationLabel(a *jobboard.Application) string {
	name := strings.TrimSpace(a.Applicant.FullName)
	if email := strings.TrimSpace(a.Applicant.Email); email != "" {
		if name == "" {
			return email
		}
		return fmt.Sprintf("%s <%s>", name, email)
	}
	return name
}

func matchLabel(a *jobboard.Application) string {
	if a.Match == nil {
		return "-"
	}
	return fmt.Sprintf("%.0f%%", a.Match.Percent())
}

func Digest(w io.Writer, d *ai.Digest) error {
	var b strings.Builder

	b.WriteString("AI digest (advisory, scores unchanged)\n")
	if d.Summary != "" {
		fmt.Fprintf(&b, "%s\n", d.Summary)
	}
	if len(d.Shortlist) > 0 {
		fmt.Fprintf(&b, "shortlist: %s\n", strings.Join(d.Shortlist, ", "))
	}
	for _, c := range d.Concerns {
		fmt.Fprintf(&b, "  - %s\n", c)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
