package jobboard

import (
	"encoding/json"
	"errors"
	"os"
	"time"
)

// ExcludedApplications is the recruiter's local list of dismissed applications.
type ExcludedApplications struct {
	Items []*ExcludedApplication
}

type ExcludedApplication struct {
	ID            string
	JobID         string
	ApplicantName string
	ExcludedAt    time.Time
}

func (a *Applications) ToExcluded() *ExcludedApplications {
	excluded := &ExcludedApplications{}
	for _, app := range a.Items {
		excluded.Items = append(excluded.Items, &ExcludedApplication{
			ID:            app.ID,
			JobID:         app.JobID,
			ApplicantName: app.Applicant.FullName,
			ExcludedAt:    time.Now().UTC(),
		})
	}
	return excluded
}

// GetExcludedApplicationsFromFile reads the exclude file. A missing or empty file is an empty list.
func GetExcludedApplicationsFromFile(path string) (*ExcludedApplications, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &ExcludedApplications{}, nil
		}
		return nil, err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, err
	}

	if stat.Size() == 0 {
		return &ExcludedApplications{}, nil
	}

	var excluded ExcludedApplications
	if err := json.NewDecoder(file).Decode(&excluded); err != nil {
		return nil, err
	}
	return &excluded, nil
}

func (e *ExcludedApplications) Append(s *ExcludedApplications) {
	e.Items = append(e.Items, s.Items...)
}

func (e *ExcludedApplications) IDs() []string {
	ids := make([]string, 0, len(e.Items))
	for _, app := range e.Items {
		ids = append(ids, app.ID)
	}
	return ids
}

func (e *ExcludedApplications) ToFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	return enc.Encode(e)
}
