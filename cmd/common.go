package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/jobboard"
	"github.com/jobmatch/jobmatch/internal/logger"
	"github.com/jobmatch/jobmatch/internal/matching"
	"github.com/jobmatch/jobmatch/internal/session"
)

const defaultExpectedDuration = matching.DefaultExpectedDuration

func defaultSessionFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "." + app + "-session.json"
	}
	return filepath.Join(dir, app, "session.json")
}

// env holds what every command needs: a logger, the parsed config and a client bound to the session.
type env struct {
	logger *zap.Logger
	config *Config
	client *jobboard.Client
}

// setup builds the command environment. It exits on failure.
func setup() *env {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Debug("starting", zap.String("version", version), zap.String("api_url", config.APIURL))

	sess, err := session.Load(config.SessionFile)
	if err != nil {
		logger.Fatal("loading session",
			zap.Error(err),
			zap.String("hint", "remove the session file or run login again"),
		)
	}

	client := jobboard.New(logger, sess)
	if config.APIURL != "" {
		client.APIURL = strings.TrimRight(config.APIURL, "/")
	}
	if config.UserAgent != "" {
		client.UserAgent = config.UserAgent
	}
	if config.Timeout > 0 {
		client.HTTPClient.Timeout = config.Timeout
	}

	return &env{logger: logger, config: config, client: client}
}

// requireLogin exits unless the session holds tokens.
func (e *env) requireLogin() {
	sess := e.client.Session()
	if sess.LoggedIn() {
		if sess.Expired(time.Now()) {
			e.logger.Debug("access token expired, it will be refreshed on first request")
		}
		return
	}

	e.logger.Fatal("no session",
		zap.Error(session.ErrNotLoggedIn),
		zap.String("hint", fmt.Sprintf("run '%s login' first", app)),
	)
}

// commandContext is cancelled on SIGINT/SIGTERM so blocking calls can be abandoned.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
