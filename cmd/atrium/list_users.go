package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/atriumcrm/atrium/internal/config"
	"github.com/atriumcrm/atrium/internal/user"
)

var listUsersCmd = &cobra.Command{
	Use:   "list-users",
	Short: "Print registered users",
	RunE:  runListUsers,
}

func init() {
	rootCmd.AddCommand(listUsersCmd)
}

func runListUsers(cmd *cobra.Command, args []string) error {
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

	users, err := user.NewStore(pool).List(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%-38s  %-30s  %-20s  %s\n", "ID", "EMAIL", "NAME", "ACTIVE")
	for _, u := range users {
		fmt.Printf("%-38s  %-30s  %-20s  %t\n", u.ID, u.Email, u.Name, u.IsActive)
	}
	fmt.Printf("\n%d user(s)\n", len(users))
	return nil
}
