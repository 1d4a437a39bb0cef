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
	jobsPath = "/jobs/"
)

type JobStatus string

const (
	JobStatusDraft     JobStatus = "draft"
	JobStatusPublished JobStatus = "published"
	JobStatusClosed    JobStatus = "closed"
)

type Jobs struct {
	Items []*Job
}

type Job struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	CompanyID      string    `json:"company"`
	Status         JobStatus `json:"status"`
	Location       string    `json:"location,omitempty"`
	EmploymentType string    `json:"employment_type,omitempty"`
	Description    string    `json:"description,omitempty"`
	// Skills, requirements and benefits arrive either as a list or a single string.
	Skills       []string `json:"skills,omitempty"`
	Requirements []string `json:"requirements,omitempty"`
	Benefits     []string `json:"benefits,omitempty"`
	CreatedAt    string   `json:"created_at,omitempty"`
}

// JobQuery narrows the jobs listing.
type JobQuery struct {
	Search  string
	Status  JobStatus
	Company string
}

func (q *JobQuery) values() url.Values {
	v := url.Values{}
	if q == nil {
		return v
	}

	if s := strings.TrimSpace(q.Search); s != "" {
		v.Set("search", s)
	}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if s := strings.TrimSpace(q.Company); s != "" {
		v.Set("company", s)
	}

	return v
}

func (c *Client) Jobs(ctx context.Context, q *JobQuery) (*Jobs, error) {
	items, err := c.GetItems(ctx, jobsPath, q.values())
	if err != nil {
		return nil, err
	}

	var jobs []*Job
	if err := decode(items, &jobs); err != nil {
		return nil, err
	}

	return &Jobs{Items: jobs}, nil
}

func (c *Client) Job(ctx context.Context, id string) (*Job, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("job id is required")
	}

	var job Job
	if err := c.getJSON(ctx, jobPath(id), nil, &job); err != nil {
		return nil, err
	}

	return &job, nil
}

// PublishJob moves a draft job to published.
func (c *Client) PublishJob(ctx context.Context, job *Job) (*Job, error) {
	return c.transitionJob(ctx, job, JobStatusPublished)
}

// CloseJob moves a published job to closed.
func (c *Client) CloseJob(ctx context.Context, job *Job) (*Job, error) {
	return c.transitionJob(ctx, job, JobStatusClosed)
}

func (c *Client) transitionJob(ctx context.Context, job *Job, to JobStatus) (*Job, error) {
	if job == nil {
		return nil, fmt.Errorf("job is required")
	}

	if err := job.CanTransition(to); err != nil {
		return nil, err
	}

	var updated Job
	err := c.sendJSON(ctx, http.MethodPatch, jobPath(job.ID), map[string]string{"status": string(to)}, &updated)
	switch {
	case errors.Is(err, errEmptyBody):
		updated = *job
		updated.Status = to
	case err != nil:
		return nil, err
	}

	return &updated, nil
}

// CanTransition reports whether the job lifecycle allows moving to the given status.
// The lifecycle only moves forward: draft, published, closed.
func (j *Job) CanTransition(to JobStatus) error {
	var from JobStatus
	switch to {
	case JobStatusPublished:
		from = JobStatusDraft
	case JobStatusClosed:
		from = JobStatusPublished
	default:
		return fmt.Errorf("%w: job cannot move to %q", ErrInvalidTransition, to)
	}

	if j.Status != from {
		return fmt.Errorf("%w: job %s is %q, expected %q", ErrInvalidTransition, j.ID, j.Status, from)
	}

	return nil
}

func (j *Jobs) Len() int {
	return len(j.Items)
}

func (j *Jobs) FindByID(id string) *Job {
	for _, job := range j.Items {
		if job.ID == id {
			return job
		}
	}
	return nil
}

func jobPath(id string) string {
	return fmt.Sprintf("%s%s/", jobsPath, url.PathEscape(strings.TrimSpace(id)))
}
