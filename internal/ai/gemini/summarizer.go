package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/ai"
	"github.com/jobmatch/jobmatch/internal/jobboard"
	"github.com/jobmatch/jobmatch/internal/logger"
	"github.com/jobmatch/jobmatch/internal/matching"
	"github.com/jobmatch/jobmatch/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

type Summarizer struct {
	generator     contentGenerator
	logger        *zap.Logger
	shortlistSize int
	maxLogLen     int
}

//go:embed digest_prompt.md
var promptTemplate string

const (
	defaultShortlistSize = 5
	defaultMaxLogLength  = 200
)

func NewSummarizer(generator contentGenerator, logger *zap.Logger, shortlistSize, maxLogLength int) *Summarizer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if shortlistSize <= 0 {
		shortlistSize = defaultShortlistSize
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Summarizer{
		generator:     generator,
		logger:        logger,
		shortlistSize: shortlistSize,
		maxLogLen:     maxLogLength,
	}
}

var _ ai.Summarizer = (*Summarizer)(nil)

func (s *Summarizer) Summarize(ctx context.Context, job *jobboard.Job, entries []matching.Entry) (*ai.Digest, error) {
	if job == nil {
		return nil, errors.New("job is required")
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("nothing to summarize: %w", jobboard.ErrNoData)
	}

	jobJSON, err := json.MarshalIndent(jobPayload(job), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal job payload: %w", err)
	}

	resultsJSON, err := json.MarshalIndent(resultsPayload(entries), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal results payload: %w", err)
	}

	prompt := buildPrompt(string(jobJSON), string(resultsJSON), s.shortlistSize)
	log := logger.ForJob(s.logger, job.ID)

	log.Debug("gemini digest request",
		zap.Int("results", len(entries)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, err
	}

	log.Debug("gemini digest response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, s.maxLogLen)),
	)

	digest, err := parseResponse(raw)
	if err != nil {
		return nil, err
	}

	digest.Shortlist = knownIDs(digest.Shortlist, entries, s.shortlistSize)
	digest.Raw = raw

	return digest, nil
}

func jobPayload(job *jobboard.Job) map[string]any {
	return map[string]any{
		"id":              job.ID,
		"title":           job.Title,
		"location":        job.Location,
		"employment_type": job.EmploymentType,
		"skills":          job.Skills,
		"requirements":    job.Requirements,
	}
}

func resultsPayload(entries []matching.Entry) []map[string]any {
	payload := make([]map[string]any, 0, len(entries))
	for _, e := range entries {
		payload = append(payload, map[string]any{
			"application_id": e.ApplicationID,
			"score":          e.Percent,
			"strengths":      e.Strengths,
			"weaknesses":     e.Weaknesses,
			"summary":        e.Summary,
		})
	}
	return payload
}

func buildPrompt(jobJSON, resultsJSON string, shortlistSize int) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Job:\n{{JOB_JSON}}\n\nResults:\n{{RESULTS_JSON}}\n\nJSON Response:"
	}
	prompt := strings.ReplaceAll(template, "{{JOB_JSON}}", jobJSON)
	prompt = strings.ReplaceAll(prompt, "{{RESULTS_JSON}}", resultsJSON)
	prompt = strings.ReplaceAll(prompt, "{{SHORTLIST_SIZE}}", strconv.Itoa(shortlistSize))
	return prompt
}

func parseResponse(raw string) (*ai.Digest, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return &ai.Digest{
		Summary:   coerceString(data["summary"]),
		Shortlist: coerceStrings(data["shortlist"]),
		Concerns:  coerceStrings(data["concerns"]),
	}, nil
}

// knownIDs drops shortlisted ids that are not among the matched applications.
func knownIDs(ids []string, entries []matching.Entry, limit int) []string {
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		seen[e.ApplicationID] = false
	}

	result := make([]string, 0, len(ids))
	for _, id := range ids {
		used, ok := seen[id]
		if !ok || used {
			continue
		}
		seen[id] = true
		result = append(result, id)
		if len(result) == limit {
			break
		}
	}
	return result
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceStrings(v any) []string {
	switch val := v.(type) {
	case []any:
		result := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				result = append(result, s)
			}
		}
		return result
	case string:
		if s := strings.TrimSpace(val); s != "" {
			return []string{s}
		}
		return nil
	default:
		return nil
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
