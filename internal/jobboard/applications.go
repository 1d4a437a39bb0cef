package jobboard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	applicationsPath       = "/applications/"
	mineApplicationsPath   = "/applications/mine/"
	jobApplicationsPathFmt = "/jobs/%s/applications/"
)

type ApplicationStatus string

const (
	ApplicationPending   ApplicationStatus = "pending"
	ApplicationReviewed  ApplicationStatus = "reviewed"
	ApplicationInterview ApplicationStatus = "interview"
	ApplicationRejected  ApplicationStatus = "rejected"
	ApplicationAccepted  ApplicationStatus = "accepted"
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

type Applications struct {
	Items []*Application
}

type Application struct {
	ID        string            `json:"id"`
	JobID     string            `json:"job"`
	CVFile    string            `json:"cv_file,omitempty"`
	Status    ApplicationStatus `json:"status"`
	Applicant Applicant         `json:"applicant,omitempty"`
	AppliedAt string            `json:"applied_at,omitempty"`

	// Match is filled in locally from stored matching results.
	Match *MatchingResult `json:"match,omitempty"`
}

// Applicant is the profile snapshot taken when the application was submitted.
type Applicant struct {
	ID       string   `json:"id"`
	FullName string   `json:"full_name"`
	Email    string   `json:"email"`
	Headline string   `json:"headline,omitempty"`
	Skills   []string `json:"skills,omitempty"`
}

func (c *Client) JobApplications(ctx context.Context, jobID string) (*Applications, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	return c.listApplications(ctx, fmt.Sprintf(jobApplicationsPathFmt, url.PathEscape(jobID)))
}

func (c *Client) MyApplications(ctx context.Context) (*Applications, error) {
	return c.listApplications(ctx, mineApplicationsPath)
}

func (c *Client) listApplications(ctx context.Context, path string) (*Applications, error) {
	items, err := c.GetItems(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	var apps []*Application
	if err := decode(items, &apps); err != nil {
		return nil, err
	}

	return &Applications{Items: apps}, nil
}

// Accept is a recruiter action.
func (c *Client) Accept(ctx context.Context, app *Application) (*Application, error) {
	return c.transitionApplication(ctx, app, ApplicationAccepted)
}

// Reject is a recruiter action.
func (c *Client) Reject(ctx context.Context, app *Application) (*Application, error) {
	return c.transitionApplication(ctx, app, ApplicationRejected)
}

// Withdraw is an applicant action.
func (c *Client) Withdraw(ctx context.Context, app *Application) (*Application, error) {
	return c.transitionApplication(ctx, app, ApplicationWithdrawn)
}

func (c *Client) transitionApplication(ctx context.Context, app *Application, to ApplicationStatus) (*Application, error) {
	if app == nil {
		return nil, fmt.Errorf("application is required")
	}

	if err := app.CanTransition(to); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("%s%s/", applicationsPath, url.PathEscape(app.ID))

	var updated Application
	err := c.sendJSON(ctx, http.MethodPatch, path, map[string]string{"status": string(to)}, &updated)
	switch {
	case errors.Is(err, errEmptyBody):
		// 204 or an empty 200: the change is applied, the body just omits it.
		updated = *app
		updated.Status = to
	case err != nil:
		return nil, err
	}

	return &updated, nil
}

// CanTransition reports whether a discrete action may move the application to the given status.
// Accept, reject and withdraw are terminal and only leave pending.
func (a *Application) CanTransition(to ApplicationStatus) error {
	switch to {
	case ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn:
	default:
		return fmt.Errorf("%w: application cannot move to %q", ErrInvalidTransition, to)
	}

	if a.Status != ApplicationPending {
		return fmt.Errorf("%w: application %s is %q, expected %q", ErrInvalidTransition, a.ID, a.Status, ApplicationPending)
	}

	return nil
}

func (a *Applications) Len() int {
	return len(a.Items)
}

func (a *Applications) FindByID(id string) *Application {
	for _, app := range a.Items {
		if app.ID == id {
			return app
		}
	}
	return nil
}

func (a *Applications) IDs() []string {
	ids := make([]string, 0, len(a.Items))
	for _, app := range a.Items {
		ids = append(ids, app.ID)
	}
	return ids
}

// Exclude removes applications with the given ids and returns the removed ids.
func (a *Applications) Exclude(ids []string) []string {
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}

	return a.Retain(func(app *Application) bool {
		_, ok := drop[app.ID]
		return !ok
	})
}

// Retain keeps applications for which keep returns true, preserving order.
// It returns the ids of removed applications.
func (a *Applications) Retain(keep func(*Application) bool) []string {
	var removed []string
	kept := a.Items[:0]
	for _, app := range a.Items {
		if keep(app) {
			kept = append(kept, app)
			continue
		}
		removed = append(removed, app.ID)
	}
	a.Items = kept

	return removed
}
