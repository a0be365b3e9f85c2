// Command tokengen issues bearer tokens for organizers and door staff.
package main

import (
	"fmt"
	"os"
	"time"

	"tixify/config"
	"tixify/internal/auth"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, "tokengen:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var (
		subject   string
		role      string
		organizer string
		ttl     time.Duration
		secret  string
	)

	flagSet := pflag.NewFlagSet("tokengen", pflag.ContinueOnError)
	flagSet.StringVar(&subject, "subject", "", "organizer id or staff account the token is issued to")
	flagSet.StringVar(&role, "role", string(auth.RoleStaff), "organizer or staff")
	flagSet.StringVar(&organizer, "organizer", "", "organizer a staff token is scoped to (organizers are scoped to themselves)")
	flagSet.DurationVar(&ttl, "ttl", 12*time.Hour, "token lifetime")
	flagSet.StringVar(&secret, "secret", "", "JWT secret (default: JWT_SECRET from the environment)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if secret == "" {
		secret = config.LoadConfig().Auth.JWTSecret
	}
	if subject == "" {
		return fmt.Errorf("--subject is required")
	}
	if ttl <= 0 {
		return fmt.Errorf("--ttl must be positive")
	}

	authn, err := auth.NewAuthenticator(secret)
	if err != nil {
		return err
	}
	token, err := authn.Issue(subject, auth.Role(role), organizer, ttl)
	if err != nil {
		return fmt.Errorf("issue token for role %q: %w", role, err)
	}
	fmt.Println(token)
	return nil
}
