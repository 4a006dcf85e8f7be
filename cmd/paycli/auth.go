package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"net/http"
	"strings"

	"github.com/Bessima/bookbind-pay/internal/clients/backend"
	"github.com/spf13/cobra"
)

func loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Sign in and store the session locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app, args []string) error {
				if password == "" {
					var err error
					if password, err = readLine("Password: "); err != nil {
						return err
					}
				}

				response, err := a.client.Login(ctx, args[0], password)
				if err != nil {
					return loginError(err)
				}
				if err := a.identity.Login(response.AccessToken, nil); err != nil {
					return err
				}

				user, err := a.identity.Refresh(ctx, a.client)
				if err != nil {
					return explain(err)
				}
				fmt.Printf("Signed in as %s\n", user.Username)
				return nil
			})(args)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (prompted when empty)")

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app, args []string) error {
				a.identity.Logout(ctx, a.client)
				fmt.Println("Signed out")
				return nil
			})(args)
		},
	}
}

func whoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(ctx context.Context, a *app, args []string) error {
				user, err := a.identity.Refresh(ctx, a.client)
				if err != nil {
					return explain(err)
				}
				fmt.Printf("%s <%s>\n", user.Username, user.Email)
				return nil
			})(args)
		},
	}
}

func loginError(err error) error {
	if backend.StatusCode(err) == http.StatusUnauthorized {
		return errors.New("login failed: wrong username or password")
	}
	return fmt.Errorf("login failed: %w", err)
}

func readLine(prompt string) (string, error) {
	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("empty input")
	}
	return line, nil
}
