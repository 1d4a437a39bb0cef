package jobboard

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/session"
)

const (
	apiURL    = "http://localhost:8000/api"
	userAgent = "jobmatch-cli (+https://github.com/jobmatch/jobmatch)"

	// Batch matching scores every application of a job in one call, so the
	// timeout is much larger than for plain CRUD requests.
	defaultTimeout = 5 * time.Minute
)

var (
	// ErrNoData is returned when the backend answers with an empty or malformed body.
	ErrNoData = errors.New("no data in response")
	// ErrUnauthorized is returned for 401 responses that could not be recovered by a token refresh.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransition is returned when a status change is not allowed from the current status.
	ErrInvalidTransition = errors.New("invalid status transition")

	errEmptyBody = fmt.Errorf("%w: empty body", ErrNoData)
)

type Client struct {
	session    *session.Session
	logger     *zap.Logger
	HTTPClient *http.Client
	UserAgent  string
	APIURL     string
}

// New returns a client bound to the provided session. A nil session sends anonymous requests.
func New(logger *zap.Logger, sess *session.Session) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		session: sess,
		APIURL:  apiURL,
		HTTPClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger:    logger,
		UserAgent: userAgent,
	}
}

func (c *Client) Session() *session.Session {
	return c.session
}
