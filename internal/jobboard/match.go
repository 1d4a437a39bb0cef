package jobboard

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
)

const (
	matchAllPathFmt     = "/match/job/%s/all-applications/"
	matchOnePathFmt     = "/match/job/%s/application/%s/"
	matchResultsPathFmt = "/match/job/%s/results/"
)

// MatchingResult is the backend score of one application against one job.
// A new matching run supersedes it; the client never modifies it.
type MatchingResult struct {
	ID              string             `json:"id"`
	JobID           string             `json:"job"`
	ApplicationID   string             `json:"application"`
	MatchPercentage float64            `json:"match_percentage"`
	Score           float64            `json:"score,omitempty"`
	SubScores       map[string]float64 `json:"sub_scores,omitempty"`
	Strengths       []string           `json:"strengths,omitempty"`
	Weaknesses      []string           `json:"weaknesses,omitempty"`
	Explanation     Explanation        `json:"explanation,omitempty"`
	CreatedAt       string             `json:"created_at,omitempty"`
}

type Explanation struct {
	Summary      string   `json:"overall_summary,omitempty"`
	TopStrengths []string `json:"top_strengths,omitempty"`
	KeyGaps      []string `json:"key_gaps,omitempty"`
	Note         string   `json:"note,omitempty"`
}

// BatchMatchResponse is returned when every application of a job is scored in one call.
type BatchMatchResponse struct {
	Detail                string            `json:"detail,omitempty"`
	Status                string            `json:"status,omitempty"`
	TotalApplications     int               `json:"total_applications"`
	ProcessedApplications int               `json:"processed_applications"`
	Results               []*MatchingResult `json:"results"`
}

type MatchingResults struct {
	Items []*MatchingResult
}

// Percent returns the match percentage, falling back to the raw score when the
// percentage is missing. Scores in [0, 1] are treated as fractions.
func (r *MatchingResult) Percent() float64 {
	if r.MatchPercentage > 0 {
		return r.MatchPercentage
	}
	if r.Score > 0 && r.Score <= 1 {
		return r.Score * 100
	}
	return r.Score
}

// MatchAllApplications asks the backend to score every application of the job.
func (c *Client) MatchAllApplications(ctx context.Context, jobID string) (*BatchMatchResponse, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	var raw any
	path := fmt.Sprintf(matchAllPathFmt, url.PathEscape(jobID))
	if err := c.do(ctx, apiCall{method: http.MethodPost, path: path, body: []byte("{}")}, &raw); err != nil {
		return nil, err
	}

	body, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected batch response", ErrNoData)
	}
	// An empty list is a valid outcome; a missing or null list is not.
	if results, ok := body["results"]; !ok || results == nil {
		return nil, fmt.Errorf("%w: batch response has no results", ErrNoData)
	}

	var resp BatchMatchResponse
	if err := decode(body, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []*MatchingResult{}
	}

	return &resp, nil
}

// MatchApplication scores a single application.
func (c *Client) MatchApplication(ctx context.Context, jobID, applicationID string) (*MatchingResult, error) {
	jobID = strings.TrimSpace(jobID)
	applicationID = strings.TrimSpace(applicationID)
	if jobID == "" || applicationID == "" {
		return nil, fmt.Errorf("job id and application id are required")
	}

	var result MatchingResult
	path := fmt.Sprintf(matchOnePathFmt, url.PathEscape(jobID), url.PathEscape(applicationID))
	if err := c.do(ctx, apiCall{method: http.MethodPost, path: path, body: []byte("{}")}, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// MatchResults returns the stored results of the latest matching runs for the job.
func (c *Client) MatchResults(ctx context.Context, jobID string) (*MatchingResults, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, fmt.Errorf("job id is required")
	}

	items, err := c.GetItems(ctx, fmt.Sprintf(matchResultsPathFmt, url.PathEscape(jobID)), nil)
	if err != nil {
		return nil, err
	}

	var results []*MatchingResult
	if err := decode(items, &results); err != nil {
		return nil, err
	}

	return &MatchingResults{Items: results}, nil
}

func (m *MatchingResults) Len() int {
	return len(m.Items)
}

// ByApplication indexes results by application id. Later results win.
func (m *MatchingResults) ByApplication() map[string]*MatchingResult {
	index := make(map[string]*MatchingResult, len(m.Items))
	for _, r := range m.Items {
		if r == nil || r.ApplicationID == "" {
			continue
		}
		index[r.ApplicationID] = r
	}
	return index
}

func (m *MatchingResults) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "match_results_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return "", err
	}
	return file.Name(), nil
}
