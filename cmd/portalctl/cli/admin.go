package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/roadassist/portal/internal/directory"
)

// Test seams over the terminal.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// Migrations are seams so the command tree can be exercised without Postgres.
var (
	migrateUp   = directory.Migrate
	migrateDown = directory.MigrateDown
)

func newMigrateCommand(env Env) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the user directory schema",
	}
	cmd.PersistentFlags().StringVar(&dsn, "dsn", os.Getenv("PG_DSN"), "postgres connection string (defaults to $PG_DSN)")

	run := func(name string, fn func(string) error) *cobra.Command {
		return &cobra.Command{
			Use:   name,
			Short: "Apply " + name + " migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				if strings.TrimSpace(dsn) == "" {
					return errors.New("migrate: --dsn or PG_DSN is required")
				}
				if err := fn(dsn); err != nil {
					return fmt.Errorf("migrate %s: %w", name, err)
				}
				fmt.Fprintf(env.Stdout, "migrate %s: ok\n", name)
				return nil
			},
		}
	}
	cmd.AddCommand(
		run("up", func(dsn string) error { return migrateUp(dsn) }),
		run("down", func(dsn string) error { return migrateDown(dsn) }),
	)
	return cmd
}

func newUsersCommand(env Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "User directory helpers",
	}
	hash := &cobra.Command{
		Use:   "hash-password",
		Short: "Hash a password for seeding directory_users",
		Long:  "Reads a password from the terminal without echo, or the first line of stdin when piped, and prints its bcrypt hash.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(env)
			if err != nil {
				return err
			}
			if password == "" {
				return errors.New("hash-password: empty password")
			}
			hashed, err := directory.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(env.Stdout, hashed)
			return nil
		},
	}
	cmd.AddCommand(hash)
	return cmd
}

func promptPassword(env Env) (string, error) {
	if f, ok := env.Stdin.(*os.File); ok && isTerminal(int(f.Fd())) {
		fmt.Fprint(env.Stderr, "Password: ")
		raw, err := readPassword(int(f.Fd()))
		fmt.Fprintln(env.Stderr)
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
	line, err := bufio.NewReader(env.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
