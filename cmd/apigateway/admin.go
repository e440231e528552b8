package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thedevkitchen/apigateway/internal/audit"
	"github.com/thedevkitchen/apigateway/internal/config"
	"github.com/thedevkitchen/apigateway/internal/oauth"
	"github.com/thedevkitchen/apigateway/internal/observability/logger"
	"github.com/thedevkitchen/apigateway/internal/security/password"
	tokens "github.com/thedevkitchen/apigateway/internal/security/token"
	"github.com/thedevkitchen/apigateway/internal/store/core"
)

// withRepo abre el store, corre fn y cierra. Para comandos administrativos.
func withRepo(ctx context.Context, fn func(context.Context, *config.Config, core.Repository) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	repo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer repo.Close()
	return fn(ctx, cfg, repo)
}

func clientCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Manage OAuth applications",
	}
	cmd.AddCommand(clientCreateCmd(), clientRotateSecretCmd())
	return cmd
}

func clientCreateCmd() *cobra.Command {
	var name string
	c := &cobra.Command{
		Use:   "create",
		Short: "Register a new OAuth application",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, _ *config.Config, repo core.Repository) error {
				clientID, err := tokens.NewClientID()
				if err != nil {
					return err
				}
				secret, err := tokens.NewClientSecret()
				if err != nil {
					return err
				}
				hash, err := password.Hash(secret)
				if err != nil {
					return err
				}

				app := &core.Application{Name: name, ClientID: clientID, SecretHash: hash, Active: true}
				if err := repo.CreateApplication(ctx, app); err != nil {
					return err
				}

				// el secret se imprime una única vez; no queda en ningún lado
				fmt.Printf("client_id:     %s\nclient_secret: %s\n", clientID, secret)
				return nil
			})
		},
	}
	c.Flags().StringVar(&name, "name", "", "application name")
	_ = c.MarkFlagRequired("name")
	return c
}

func clientRotateSecretCmd() *cobra.Command {
	var clientID string
	c := &cobra.Command{
		Use:   "rotate-secret",
		Short: "Rotate an application secret and revoke its live tokens",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, cfg *config.Config, repo core.Repository) error {
				app, err := repo.GetApplicationByClientID(ctx, clientID)
				if err != nil {
					return err
				}

				secret, err := tokens.NewClientSecret()
				if err != nil {
					return err
				}
				hash, err := password.Hash(secret)
				if err != nil {
					return err
				}
				if err := repo.UpdateApplicationSecret(ctx, app.ID, hash); err != nil {
					return err
				}

				grant := oauth.NewGrant(repo, buildCodec(cfg), audit.NewRecorder(repo))
				n, err := grant.RevokeAllForApplication(ctx, app.ID)
				if err != nil {
					return err
				}

				fmt.Printf("client_id:     %s\nclient_secret: %s\nrevoked tokens: %d\n", clientID, secret, n)
				return nil
			})
		},
	}
	c.Flags().StringVar(&clientID, "client-id", "", "client_id of the application")
	_ = c.MarkFlagRequired("client-id")
	return c
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "user",
		Short: "Manage end users",
	}
	cmd.AddCommand(userCreateCmd())
	return cmd
}

func userCreateCmd() *cobra.Command {
	var name, email, pass string
	c := &cobra.Command{
		Use:   "create",
		Short: "Create an end user",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, _ *config.Config, repo core.Repository) error {
				hash, err := password.Hash(pass)
				if err != nil {
					return err
				}
				u := &core.User{Name: name, Email: email, PasswordHash: hash, Active: true}
				if err := repo.CreateUser(ctx, u); err != nil {
					return err
				}
				fmt.Printf("user id: %s\n", u.ID)
				return nil
			})
		},
	}
	c.Flags().StringVar(&name, "name", "", "display name")
	c.Flags().StringVar(&email, "email", "", "login email")
	c.Flags().StringVar(&pass, "password", "", "initial password")
	_ = c.MarkFlagRequired("email")
	_ = c.MarkFlagRequired("password")
	return c
}
