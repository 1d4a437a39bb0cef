package matching

import (
	"fmt"
	"sync"

	"github.com/jobmatch/jobmatch/internal/jobboard"
)

// Entry is one rendered line of a batch result.
type Entry struct {
	ResultID      string
	ApplicationID string
	Percent       float64
	Strengths     []string
	Weaknesses    []string
	Summary       string
}

// Summary carries the counters the backend reported for the batch.
type Summary struct {
	Detail    string
	Total     int
	Processed int
	Returned  int
}

// Aggregator keeps the outcome of the last batch call in backend order.
// It never re-ranks or filters what the backend returned.
type Aggregator struct {
	mu    sync.RWMutex
	state State
	resp  *jobboard.BatchMatchResponse
	err   error
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Begin drops the previous outcome and marks a new call as outstanding.
func (a *Aggregator) Begin() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = Running
	a.resp = nil
	a.err = nil
}

// Resolve stores a successful response. A nil response or nil results are treated as missing data.
func (a *Aggregator) Resolve(resp *jobboard.BatchMatchResponse) error {
	if resp == nil || resp.Results == nil {
		err := fmt.Errorf("%w: %w", ErrBatchFailed, jobboard.ErrNoData)
		a.Fail(err)
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = Done
	a.resp = resp
	a.err = nil

	return nil
}

// Fail moves the aggregator to Error. The caller retries by triggering again.
func (a *Aggregator) Fail(err error) {
	if err == nil {
		err = ErrBatchFailed
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.state = Error
	a.resp = nil
	a.err = err
}

func (a *Aggregator) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

func (a *Aggregator) Err() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.err
}

func (a *Aggregator) Results() []*jobboard.MatchingResult {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.resp == nil {
		return nil
	}

	results := make([]*jobboard.MatchingResult, 0, len(a.resp.Results))
	for _, r := range a.resp.Results {
		if r != nil {
			results = append(results, r)
		}
	}
	return results
}

func (a *Aggregator) Len() int {
	return len(a.Results())
}

func (a *Aggregator) Entries() []Entry {
	results := a.Results()

	entries := make([]Entry, 0, len(results))
	for _, r := range results {
		entries = append(entries, Entry{
			ResultID:      r.ID,
			ApplicationID: r.ApplicationID,
			Percent:       r.Percent(),
			Strengths:     r.Strengths,
			Weaknesses:    r.Weaknesses,
			Summary:       r.Explanation.Summary,
		})
	}

	return entries
}

func (a *Aggregator) Summary() Summary {
	returned := a.Len()

	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.resp == nil {
		return Summary{}
	}

	return Summary{
		Detail:    a.resp.Detail,
		Total:     a.resp.TotalApplications,
		Processed: a.resp.ProcessedApplications,
		Returned:  returned,
	}
}
