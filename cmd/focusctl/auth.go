package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"focusblock/internal/client/api"
	clientconfig "focusblock/internal/client/config"
)

func newRegisterCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the auth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, err := loadClientConfig()
			if err != nil {
				return err
			}

			result, err := api.New(cfg.ServerURL, "").Register(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			cfg.Token = result.Token
			if err := clientconfig.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "registered %s\n", result.User.Email)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the auth token",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, cfg, err := loadClientConfig()
			if err != nil {
				return err
			}

			token, err := api.New(cfg.ServerURL, "").Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}

			cfg.Token = token
			if err := clientconfig.Save(path, cfg); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged in")
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("password")
	return cmd
}
