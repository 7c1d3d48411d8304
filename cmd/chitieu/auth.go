package main

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"chitieu/internal/apiclient"
)

var errNotRemote = errors.New("login needs DATA_BACKEND=remote")

func (a *app) requireRemote(cmd *cobra.Command) (*apiclient.Client, error) {
	client, err := a.remoteClient(cmd.Context())
	if err != nil {
		return nil, err
	}
	if client == nil {
		return nil, errNotRemote
	}
	return client, nil
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the remote API and print the access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.requireRemote(cmd)
			if err != nil {
				return err
			}
			if password == "" {
				password = os.Getenv("CHITIEU_PASSWORD")
			}
			token, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			a.printf("API_TOKEN=%s\n", token)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (default $CHITIEU_PASSWORD)")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the remote API session",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.requireRemote(cmd)
			if err != nil {
				return err
			}
			if err := client.Logout(cmd.Context()); err != nil {
				return err
			}
			a.printf("Logged out\n")
			return nil
		},
	}
}
