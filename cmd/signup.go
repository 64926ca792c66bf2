package cmd

import (
	"errors"
	"fmt"
	"net/mail"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexdraft/internal/backend"
)

const minPasswordLength = 8

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account on the drafting backend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		emailPrompt := promptui.Prompt{
			Label: "Email",
			Validate: func(s string) error {
				if _, err := mail.ParseAddress(s); err != nil {
					return errors.New("enter a valid email address")
				}
				return nil
			},
		}
		email, err := emailPrompt.Run()
		if err != nil {
			return fmt.Errorf("email: %w", err)
		}

		passwordPrompt := promptui.Prompt{
			Label: "Password",
			Mask:  '*',
			Validate: func(s string) error {
				if len(s) < minPasswordLength {
					return fmt.Errorf("password must be at least %d characters", minPasswordLength)
				}
				return nil
			},
		}
		password, err := passwordPrompt.Run()
		if err != nil {
			return fmt.Errorf("password: %w", err)
		}

		err = newClient(cfg).Signup(cmd.Context(), backend.SignupRequest{Email: email, Password: password})
		if errors.Is(err, backend.ErrServerRejected) {
			return fmt.Errorf("the backend refused the signup: %w", err)
		}
		if err != nil {
			return err
		}

		fmt.Printf("Account created for %s.\n", email)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(signupCmd)
}
