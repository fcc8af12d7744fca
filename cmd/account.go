package cmd

import (
	"errors"
	"fmt"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/arsu-cli/arsu/api"
	"github.com/arsu-cli/arsu/auth"
	"github.com/arsu-cli/arsu/icon"
	"github.com/arsu-cli/arsu/style"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// askCredentials prompts for whatever was not given on the command line.
func askCredentials(username, password string, confirm bool) (string, string, error) {
	if username == "" {
		if err := survey.AskOne(&survey.Input{Message: "Username"}, &username, survey.WithValidator(survey.Required)); err != nil {
			return "", "", err
		}
	}

	if password == "" {
		if err := survey.AskOne(&survey.Password{Message: "Password"}, &password, survey.WithValidator(survey.Required)); err != nil {
			return "", "", err
		}

		if confirm {
			var again string
			if err := survey.AskOne(&survey.Password{Message: "Repeat password"}, &again); err != nil {
				return "", "", err
			}
			if again != password {
				return "", "", errors.New("passwords do not match")
			}
		}
	}

	return username, password, nil
}

func init() {
	rootCmd.AddCommand(loginCmd)
	loginCmd.Flags().StringP("username", "u", "", "Account username")
	loginCmd.Flags().StringP("password", "p", "", "Account password, prompted when omitted")
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and keep the session in the system keyring",
	Run: func(cmd *cobra.Command, args []string) {
		username, password, err := askCredentials(
			lo.Must(cmd.Flags().GetString("username")),
			lo.Must(cmd.Flags().GetString("password")),
			false,
		)
		handleErr(err)

		session, err := api.New(nil).Login(cmd.Context(), username, password)
		handleErr(err)
		handleErr(auth.Begin(session))

		fmt.Printf("%s logged in as %s\n", style.Fg(style.Green)(icon.Get(icon.Success)), style.Fg(style.Purple)(session.Username))
	},
}

func init() {
	rootCmd.AddCommand(logoutCmd)
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "End the current session",
	Run: func(cmd *cobra.Command, args []string) {
		handleErr(auth.End())
		fmt.Printf("%s logged out\n", style.Fg(style.Green)(icon.Get(icon.Success)))
	},
}

func init() {
	rootCmd.AddCommand(registerCmd)
	registerCmd.Flags().StringP("username", "u", "", "Account username")
	registerCmd.Flags().StringP("password", "p", "", "Account password, prompted when omitted")
	registerCmd.Flags().StringP("email", "e", "", "Contact email")
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account",
	Run: func(cmd *cobra.Command, args []string) {
		username, password, err := askCredentials(
			lo.Must(cmd.Flags().GetString("username")),
			lo.Must(cmd.Flags().GetString("password")),
			true,
		)
		handleErr(err)

		user, err := api.New(nil).Register(cmd.Context(), username, password, lo.Must(cmd.Flags().GetString("email")))
		handleErr(err)

		fmt.Printf("%s registered %s, run %s to log in\n",
			style.Fg(style.Green)(icon.Get(icon.Success)),
			style.Fg(style.Purple)(user.Username),
			style.Fg(style.Yellow)("arsu login"),
		)
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged in user",
	Run: func(cmd *cobra.Command, args []string) {
		session, err := auth.Current()
		handleErr(err)

		fmt.Println(style.Bold(session.Username))
		if !session.ExpiresAt.IsZero() {
			fmt.Println(style.Faint("expires in " + time.Until(session.ExpiresAt).Round(time.Minute).String()))
		}
	},
}
