package cmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobmatch/jobmatch/internal/secrets"
)

const passwordEnv = "JOBMATCH_PASSWORD"

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and store the session",
	Run: func(cmd *cobra.Command, _ []string) {
		login(cmd)
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Run: func(_ *cobra.Command, _ []string) {
		e := setup()
		if err := e.client.Logout(); err != nil {
			e.logger.Fatal("removing session", zap.Error(err))
		}
		e.logger.Info("logged out", zap.String("session_file", e.config.SessionFile))
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Run: func(_ *cobra.Command, _ []string) {
		e := setup()
		e.requireLogin()

		sess := e.client.Session()
		user := sess.User()

		expires := "unknown"
		if at, ok := sess.ExpiresAt(); ok {
			expires = at.Local().Format(time.RFC3339)
		}

		if user == nil {
			fmt.Printf("logged in (access token expires %s)\n", expires)
			return
		}

		fmt.Printf("%s <%s>, role %s (access token expires %s)\n",
			user.FullName, user.Email, orUnknown(user.Role), expires)
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)

	loginCmd.Flags().StringP("email", "u", "", "account email")
	loginCmd.Flags().String("password-file", "", fmt.Sprintf("file with the password (default is %s env or an interactive prompt)", passwordEnv))
}

func login(cmd *cobra.Command) {
	e := setup()
	ctx, cancel := commandContext()
	defer cancel()

	email, _ := cmd.Flags().GetString("email")
	if email = strings.TrimSpace(email); email == "" {
		var err error
		email, err = (&promptui.Prompt{Label: "Email"}).Run()
		if err != nil {
			e.logger.Fatal("reading email", zap.Error(err))
		}
	}

	passwordFile, _ := cmd.Flags().GetString("password-file")
	password, err := secrets.Load(secrets.Source{
		Name: "password",
		File: passwordFile,
		Env:  passwordEnv,
	})
	if err != nil {
		// Neither a file nor the env var is set: ask for it.
		password, err = (&promptui.Prompt{Label: "Password", Mask: '*', Validate: notEmpty}).Run()
		if err != nil {
			e.logger.Fatal("reading password", zap.Error(err))
		}
	}

	user, err := e.client.Login(ctx, strings.TrimSpace(email), password)
	if err != nil {
		e.logger.Fatal("login failed", zap.Error(err))
	}

	fields := []zap.Field{zap.String("email", email), zap.String("session_file", e.config.SessionFile)}
	if user != nil {
		fields = append(fields, zap.String("role", user.Role))
	}

	e.logger.Info("logged in", fields...)
}

func notEmpty(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("must not be empty")
	}
	return nil
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
