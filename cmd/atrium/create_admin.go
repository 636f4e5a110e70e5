package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/atriumcrm/atrium/internal/auth"
	"github.com/atriumcrm/atrium/internal/config"
	"github.com/atriumcrm/atrium/internal/org"
	"github.com/atriumcrm/atrium/internal/user"
)

var createAdminCmd = &cobra.Command{
	Use:   "create-admin EMAIL NAME PASSWORD ORG_NAME",
	Short: "Create a user owning a fresh organization",
	Args:  cobra.ExactArgs(4),
	RunE:  runCreateAdmin,
}

func init() {
	rootCmd.AddCommand(createAdminCmd)
}

func runCreateAdmin(cmd *cobra.Command, args []string) error {
	email, name, password, orgName := args[0], args[1], args[2], args[3]

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	userStore := user.NewStore(pool)
	authService := auth.NewService(userStore, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	orgService := org.NewService(org.NewStore(pool), userStore)

	u, err := authService.Register(ctx, user.CreateUserInput{
		Email:    email,
		Password: password,
		Name:     name,
	})
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	o, err := orgService.Create(ctx, orgName, u.ID)
	if err != nil {
		return fmt.Errorf("creating organization: %w", err)
	}

	fmt.Printf("Created user %s (%s) as owner of organization %s (%s)\n", u.Email, u.ID, o.Name, o.ID)
	return nil
}
