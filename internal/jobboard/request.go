package jobboard

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/logger"
	"github.com/jobmatch/jobmatch/internal/utils"
)

const (
	contentType     = "application/json"
	contentEncoding = "gzip"
	requestIDHeader = "X-Request-ID"

	maxDetailLength = 200
)

// StatusError describes a non-2xx response from the backend.
type StatusError struct {
	Code   int
	Status string
	Detail string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("bad status: %s", e.Status)
	}
	return fmt.Sprintf("bad status: %s: %s", e.Status, e.Detail)
}

func (e *StatusError) Unwrap() error {
	if e.Code == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Item is a single undecoded entry of a list response.
type Item = any

type pageResponse struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []Item `json:"results"`
}

type apiCall struct {
	method    string
	path      string
	query     url.Values
	body      []byte
	anonymous bool
}

// GetItems makes GET requests to the API and returns items from all pages.
// Both bare arrays and paginated envelopes are accepted.
func (c *Client) GetItems(ctx context.Context, path string, q url.Values) ([]Item, error) {
	var items []Item

	next := path
	for next != "" {
		var raw any
		if err := c.do(ctx, apiCall{method: http.MethodGet, path: next, query: q}, &raw); err != nil {
			return nil, err
		}

		switch body := raw.(type) {
		case []any:
			return append(items, body...), nil
		case map[string]any:
			if _, ok := body["results"]; !ok {
				return nil, fmt.Errorf("%w: list response has no results", ErrNoData)
			}

			var page pageResponse
			if err := decode(body, &page); err != nil {
				return nil, err
			}

			items = append(items, page.Results...)

			c.logger.Debug("got page from the api",
				zap.Int("count", page.Count),
				zap.Int("collected", len(items)),
			)

			if page.Next == next {
				return items, nil
			}

			if page.Next != "" {
				c.logger.Debug("additional request needed", zap.String("next", page.Next))
			}

			next = page.Next
			// next links carry their own query string.
			q = nil
		default:
			return nil, fmt.Errorf("%w: unexpected list response", ErrNoData)
		}
	}

	return items, nil
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, target any) error {
	return c.do(ctx, apiCall{method: http.MethodGet, path: path, query: q}, target)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, payload, target any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return c.do(ctx, apiCall{method: method, path: path, body: body}, target)
}

// do performs the call, refreshing the access token once if the backend rejects it.
func (c *Client) do(ctx context.Context, call apiCall, target any) error {
	data, err := c.roundTrip(ctx, call)
	if err != nil && errors.Is(err, ErrUnauthorized) && !call.anonymous && c.canRefresh() {
		if rerr := c.refreshAccess(ctx); rerr != nil {
			return rerr
		}
		data, err = c.roundTrip(ctx, call)
	}
	if err != nil {
		return err
	}

	return unmarshal(data, target)
}

func (c *Client) roundTrip(ctx context.Context, call apiCall) ([]byte, error) {
	var body io.Reader
	if call.body != nil {
		body = bytes.NewReader(call.body)
	}

	req, err := http.NewRequestWithContext(ctx, call.method, c.resolve(call.path), body)
	if err != nil {
		return nil, err
	}

	if len(call.query) > 0 {
		q := req.URL.Query()
		for key, values := range call.query {
			for _, value := range values {
				q.Add(key, value)
			}
		}
		req.URL.RawQuery = q.Encode()
	}

	req = c.setHeaders(req, call.anonymous)
	if call.body != nil {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.request(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := readBody(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, newStatusError(resp, data)
	}

	return data, nil
}

func (c *Client) request(req *http.Request) (*http.Response, error) {
	log := logger.WithFields(c.logger, logger.RequestFields(req.Header.Get(requestIDHeader))...)

	log.Debug("make request", zap.String("method", req.Method), zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	log.Debug("got response", zap.String("status", resp.Status))

	return resp, nil
}

func (c *Client) setHeaders(req *http.Request, anonymous bool) *http.Request {
	if !anonymous && c.session != nil {
		if token := c.session.Access(); token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", contentType)
	req.Header.Set("Accept-Encoding", contentEncoding)
	req.Header.Set(requestIDHeader, uuid.NewString())

	return req
}

func (c *Client) resolve(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(c.APIURL, "/") + path
}

func readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	return io.ReadAll(reader)
}

func newStatusError(resp *http.Response, data []byte) *StatusError {
	e := &StatusError{Code: resp.StatusCode, Status: resp.Status}

	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Detail != "" {
		e.Detail = body.Detail
		return e
	}

	e.Detail = utils.TruncateForLog(string(data), maxDetailLength)
	return e
}

func unmarshal(data []byte, target any) error {
	if target == nil {
		return nil
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return errEmptyBody
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrNoData, err)
	}

	if raw == nil {
		return ErrNoData
	}

	if ptr, ok := target.(*any); ok {
		*ptr = raw
		return nil
	}

	return decode(raw, target)
}

// decode maps loosely typed json values onto the api types.
// Numeric ids become strings and single values become one-element slices.
func decode(input, target any) error {
	cfg := &mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "json",
		WeaklyTypedInput: true,
	}

	decoder, err := mapstructure.NewDecoder(cfg)
	if err != nil {
		return err
	}

	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("%w: %v", ErrNoData, err)
	}

	return nil
}
