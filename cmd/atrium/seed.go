package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/atriumcrm/atrium/internal/auth"
	"github.com/atriumcrm/atrium/internal/config"
	"github.com/atriumcrm/atrium/internal/contact"
	"github.com/atriumcrm/atrium/internal/deal"
	"github.com/atriumcrm/atrium/internal/org"
	"github.com/atriumcrm/atrium/internal/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo organization with contacts and deals",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

const (
	seedEmail    = "demo@atrium.local"
	seedPassword = "demo-password-1"
)

var demoContacts = []contact.CreateInput{
	{Name: "Ada Balcombe", Email: strPtr("ada@northwind.example"), Phone: strPtr("+44 20 7946 0018")},
	{Name: "Marcus Chen", Email: strPtr("marcus@initech.example")},
	{Name: "Priya Raman", Email: strPtr("priya@globex.example"), Phone: strPtr("+1 415 555 0143")},
}

var demoDeals = []deal.CreateInput{
	{Title: "Northwind annual licence", Amount: 1_200_000, Currency: "GBP", Stage: deal.StageProposal},
	{Title: "Initech pilot", Amount: 450_000},
	{Title: "Globex expansion", Amount: 8_750_000, Currency: "USD", Stage: deal.StageNegotiation},
}

func runSeed(cmd *cobra.Command, args []string) error {
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
	orgStore := org.NewStore(pool)
	orgService := org.NewService(orgStore, userStore)
	contactService := contact.NewService(contact.NewStore(pool))
	dealService := deal.NewService(deal.NewStore(pool), contactService, deal.NopEvents{})
	authService := auth.NewService(userStore, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	// Check if seed has already run.
	switch _, err := userStore.GetByEmail(ctx, seedEmail); {
	case err == nil:
		slog.Info("demo data already exists, skipping seed")
		return nil
	case !errors.Is(err, user.ErrNotFound):
		return fmt.Errorf("checking existing demo user: %w", err)
	}

	u, err := authService.Register(ctx, user.CreateUserInput{
		Email:    seedEmail,
		Password: seedPassword,
		Name:     "Demo User",
	})
	if err != nil {
		return fmt.Errorf("creating demo user: %w", err)
	}

	o, err := orgService.Create(ctx, "Demo Organization", u.ID)
	if err != nil {
		return fmt.Errorf("creating demo organization: %w", err)
	}

	for i, in := range demoContacts {
		c, err := contactService.Create(ctx, in, o.ID, u.ID)
		if err != nil {
			return fmt.Errorf("creating contact %q: %w", in.Name, err)
		}
		slog.Info("created contact", "name", c.Name, "id", c.ID)

		din := demoDeals[i]
		din.ContactID = &c.ID
		d, err := dealService.Create(ctx, din, o.ID, u.ID)
		if err != nil {
			return fmt.Errorf("creating deal %q: %w", din.Title, err)
		}
		slog.Info("created deal", "title", d.Title, "id", d.ID)
	}

	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Organization: %s (%s)\n", o.Name, o.ID)
	fmt.Printf("User:         %s / %s\n", seedEmail, seedPassword)
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  curl -X POST http://localhost:8080/api/v1/auth/login -d '{\"email\":\"%s\",\"password\":\"%s\"}'\n", seedEmail, seedPassword)
	fmt.Printf("  curl -H 'Authorization: Bearer <token>' -H 'X-Organization-Id: %s' http://localhost:8080/api/v1/deals\n", o.ID)

	return nil
}

func strPtr(s string) *string { return &s }
