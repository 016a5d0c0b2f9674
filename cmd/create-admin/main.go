// Command create-admin adds an admin user to admin_users.
//
//	create-admin -username root -password 's3cret-pass'
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/phillip/ngo-admin-console/auth"
	"github.com/phillip/ngo-admin-console/config"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-admin", flag.ContinueOnError)
	username := fs.String("username", "", "admin username")
	password := fs.String("password", "", "admin password, at least 8 characters")
	if err := fs.Parse(args); err != nil {
		return err
	}

	// no tokens are issued here, so JWT_SECRET is not required
	cfg, err := config.LoadStore()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Setup(ctx); err != nil {
		return fmt.Errorf("setup: %w", err)
	}
	defer cfg.Close(context.Background())

	u, err := auth.CreateAdmin(ctx, cfg.DB, *username, *password)
	if err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	cfg.Logger().Infow("admin created", "id", u.ID, "username", u.Username)
	return nil
}
