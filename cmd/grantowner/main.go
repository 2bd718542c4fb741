// grantowner provisions the bootstrap owner account. It is the only path
// that produces a user with the owner role; the admin API refuses to.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"safe-haven/pkg/config"
	"safe-haven/pkg/database"
	"safe-haven/services/api-service/models"
	"safe-haven/services/api-service/store"
)

func main() {
	_ = godotenv.Load()

	email := flag.String("email", "admin@safehaven.com", "owner account email")
	password := flag.String("password", "", "owner account password (required)")
	name := flag.String("name", "Admin User", "owner account display name")
	flag.Parse()

	if *password == "" {
		fmt.Fprintln(os.Stderr, "error: -password is required")
		os.Exit(1)
	}

	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	db, err := database.Connect(cfg.Mongo.URI, cfg.Mongo.Database)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(*password), bcrypt.DefaultCost)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to hash password: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	users := store.NewMongoUserStore(db)

	user, err := users.FindByEmail(ctx, *email)
	switch {
	case err == nil:
		user.Name = *name
		user.Password = string(hash)
		user.Role = models.RoleOwner
		user.Status = models.StatusActive
		user.IsVerified = true
		user.OTP = ""
		user.OTPExpires = time.Time{}
		if err := users.Update(ctx, user); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to update user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("User %s promoted to owner.\n", *email)

	case errors.Is(err, store.ErrNotFound):
		user = &models.User{
			Name:       *name,
			Email:      *email,
			Password:   string(hash),
			Role:       models.RoleOwner,
			Status:     models.StatusActive,
			IsVerified: true,
			CreatedAt:  time.Now(),
		}
		if err := users.Insert(ctx, user); err != nil {
			fmt.Fprintf(os.Stderr, "error: failed to create user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("User %s created as owner.\n", *email)

	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
