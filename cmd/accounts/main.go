// Command accounts is a CLI client for the hosted identity platform.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/darshan87986/your-account-space/internal/provider"
)

// ---- session file store ----

type sessionFile struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Email        string    `json:"email"`
}

func cfgDir() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "account-space")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "account-space")
}

func sessionPath() string { return filepath.Join(cfgDir(), "session.json") }

func saveSession(sf sessionFile) error {
	_ = os.MkdirAll(cfgDir(), 0o700)
	f, err := os.Create(sessionPath())
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(sf)
}

func loadSession() (sessionFile, error) {
	var sf sessionFile
	b, err := os.ReadFile(sessionPath())
	if err != nil {
		return sf, err
	}
	if err := json.Unmarshal(b, &sf); err != nil {
		return sf, err
	}
	if sf.AccessToken == "" {
		return sf, errors.New("no saved session (login required)")
	}
	return sf, nil
}

func clearSessionFile() { _ = os.Remove(sessionPath()) }

// ---- utils ----

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func usage() {
	fmt.Fprintf(os.Stderr, `accounts CLI
Usage:
  accounts -url URL -key KEY <cmd> [args]

Commands:
  version
  register -e <email> -p <password> -n <name>
  login    -e <email> -p <password>            (saves session)
  whoami                                       (prints current user)
  logout                                       (revokes and clears session)
`)
	os.Exit(2)
}

// ---- main ----

var (
	version   = "dev"
	buildDate = "unknown"
)

// main dispatches subcommands against the identity platform.
func main() {
	platformURL := flag.String("url", os.Getenv("PLATFORM_URL"), "platform base URL")
	anonKey := flag.String("key", os.Getenv("PLATFORM_ANON_KEY"), "platform public API key")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
	}
	cmd := flag.Arg(0)

	logger := zap.NewNop()
	client := provider.NewHTTP(provider.Config{URL: *platformURL, AnonKey: *anonKey}, logger)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cmd {

	case "version":
		fmt.Printf("accounts %s (%s)\n", version, buildDate)

	case "register":
		fs := flag.NewFlagSet("register", flag.ExitOnError)
		email := fs.String("e", "", "email")
		password := fs.String("p", "", "password")
		name := fs.String("n", "", "display name")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -e and -p")
			os.Exit(1)
		}

		user, err := client.SignUp(ctx, *email, *password, map[string]string{"name": *name})
		if err != nil {
			fail(err)
		}
		fmt.Println(user.ID)

	case "login":
		fs := flag.NewFlagSet("login", flag.ExitOnError)
		email := fs.String("e", "", "email")
		password := fs.String("p", "", "password")
		_ = fs.Parse(flag.Args()[1:])
		if *email == "" || *password == "" {
			fmt.Fprintln(os.Stderr, "need -e and -p")
			os.Exit(1)
		}

		sess, err := client.SignInWithPassword(ctx, *email, *password)
		if err != nil {
			fail(err)
		}
		if err := saveSession(sessionFile{
			AccessToken:  sess.AccessToken,
			RefreshToken: sess.RefreshToken,
			ExpiresAt:    sess.ExpiresAt,
			Email:        sess.User.Email,
		}); err != nil {
			fail(err)
		}
		fmt.Println("ok")

	case "whoami":
		sf, err := loadSession()
		if err != nil {
			fail(err)
		}
		sess, err := client.AdoptSession(ctx, sf.AccessToken, sf.RefreshToken)
		if err != nil {
			fail(err)
		}
		printJSON(map[string]string{
			"id":    sess.User.ID.String(),
			"email": sess.User.Email,
			"name":  sess.User.Name,
		})

	case "logout":
		sf, err := loadSession()
		if err != nil {
			fail(err)
		}
		if _, err := client.AdoptSession(ctx, sf.AccessToken, sf.RefreshToken); err == nil {
			if err := client.SignOut(ctx); err != nil {
				fail(err)
			}
		}
		clearSessionFile()
		fmt.Println("ok")

	default:
		usage()
	}
}
