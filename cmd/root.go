package cmd

import (
	"errors"
	"io/fs"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	app = "jobmatch"
)

type Config struct {
	APIURL      string        `mapstructure:"api-url"`
	UserAgent   string        `mapstructure:"user-agent"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SessionFile string        `mapstructure:"session-file"`
	ExcludeFile string        `mapstructure:"exclude-file"`
	Match       *MatchConfig  `mapstructure:"match"`
	Review      *ReviewConfig `mapstructure:"review"`
	AI          *AIConfig     `mapstructure:"ai"`
}

type MatchConfig struct {
	ExpectedDuration time.Duration `mapstructure:"expected-duration"`
}

type ReviewConfig struct {
	MinimumScore float64 `mapstructure:"minimum-score"`
}

type AIConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Provider string        `mapstructure:"provider"`
	Gemini   *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKeyFile    string `mapstructure:"api-key-file"`
	Model         string `mapstructure:"model"`
	ShortlistSize int    `mapstructure:"shortlist-size"`
	MaxLogLength  int    `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "jobmatch is a cli for recruiters to manage job postings and run applicant matching",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	envs := map[string]string{
		"api-url":                 "JOBMATCH_API_URL",
		"session-file":            "JOBMATCH_SESSION_FILE",
		"ai.gemini.api-key-file":  "GEMINI_API_KEY_FILE",
		"match.expected-duration": "JOBMATCH_EXPECTED_DURATION",
	}
	for key, env := range envs {
		if err := viper.BindEnv(key, env); err != nil {
			log.Fatalf("binding %s environment variable: %v", env, err)
		}
	}

	viper.SetDefault("session-file", defaultSessionFile())
	viper.SetDefault("match.expected-duration", defaultExpectedDuration)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is jobmatch.yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	// A missing .env is fine; a broken one is not.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Fatalf("loading .env file: %v", err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	// Every key has a default or an env binding, so the file itself is optional.
	// An explicit --config must exist and parse.
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			log.Fatal(err)
		}
	}
}

func getConfig() (*Config, error) {
	var config *Config
	err := viper.Unmarshal(&config)
	if err != nil {
		return config, err
	}

	if config.Match == nil {
		config.Match = &MatchConfig{ExpectedDuration: defaultExpectedDuration}
	}
	if config.Review == nil {
		config.Review = &ReviewConfig{}
	}
	if config.AI == nil {
		config.AI = &AIConfig{}
	}

	return config, nil
}
