// Command qr-links-token mints a bearer token for an owner, for local development and tests.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/vadimbarashkov/qr-links/internal/adapter/token"
	"github.com/vadimbarashkov/qr-links/internal/config"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	flags := flag.NewFlagSet("qr-links-token", flag.ContinueOnError)
	owner := flags.String("owner", "", "owner id to put in the token subject")
	ttl := flags.Duration("ttl", 24*time.Hour, "token lifetime, 0 for no expiry")
	configPath := flags.String("config", os.Getenv("CONFIG_PATH"), "path to the service config file")

	if err := flags.Parse(args); err != nil {
		return err
	}

	if *owner == "" {
		return errors.New("-owner is required")
	}

	if err := loadDotEnv(); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	signed, err := token.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer).Issue(*owner, *ttl)
	if err != nil {
		return err
	}

	fmt.Println(signed)

	return nil
}

func loadDotEnv() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
