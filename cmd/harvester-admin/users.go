package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/target/harvester-api/config"
	"github.com/target/harvester-api/internal/bootstrap"
	"github.com/target/harvester-api/internal/data"
	"github.com/target/harvester-api/internal/domain/model"
)

const userCommandTimeout = 30 * time.Second

// userAdmin is the subset of AuthService the user commands need.
type userAdmin interface {
	CreateUser(ctx context.Context, req *model.CreateUserRequest) (*model.User, error)
	DeactivateUser(ctx context.Context, email string) error
}

type userAdminOpener func(ctx context.Context, cmdCtx *commandContext) (userAdmin, func(), error)

// openPostgresUsers connects to the configured database. Users are only
// persisted by the postgres store; the memory store forgets them on exit.
func openPostgresUsers(ctx context.Context, cmdCtx *commandContext) (userAdmin, func(), error) {
	if cmdCtx.Config.Store.Driver != config.StoreDriverPostgres {
		return nil, nil, fmt.Errorf("user commands need STORE_DRIVER=postgres, got %q", cmdCtx.Config.Store.Driver)
	}
	db, err := bootstrap.ConnectDB(ctx, bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	closeDB := func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}
	admin, err := bootstrap.NewUserAdmin(data.NewUserRepo(db, data.RealTimeProvider{}), cmdCtx.Config.Auth, cmdCtx.Logger)
	if err != nil {
		closeDB()
		return nil, nil, err
	}
	return admin, closeDB, nil
}

type createUserOptions struct {
	Email    string
	Password string
	// PasswordStdin reads the password from the first line of stdin.
	PasswordStdin bool
}

func parseCreateUserFlags(args []string, stderr io.Writer) (createUserOptions, error) {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts createUserOptions
	fs.StringVar(&opts.Email, "email", "", "Email address the user logs in with (required)")
	fs.StringVar(&opts.Password, "password", "", "Password (at least 8 characters)")
	fs.BoolVar(&opts.PasswordStdin, "password-stdin", false, "Read the password from stdin instead of -password")

	if err := fs.Parse(args); err != nil {
		return createUserOptions{}, err
	}
	opts.Email = strings.TrimSpace(opts.Email)
	if opts.Email == "" {
		return createUserOptions{}, errors.New("--email is required")
	}
	if opts.PasswordStdin && opts.Password != "" {
		return createUserOptions{}, errors.New("use either --password or --password-stdin, not both")
	}
	if !opts.PasswordStdin && opts.Password == "" {
		return createUserOptions{}, errors.New("--password or --password-stdin is required")
	}
	return opts, nil
}

func readPassword(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return "", errors.New("empty password on stdin")
	}
	return line, nil
}

func runCreateUser(cmdCtx *commandContext, args []string) error {
	opts, err := parseCreateUserFlags(args, cmdCtx.Stderr)
	if err != nil {
		return err
	}
	if opts.PasswordStdin {
		if opts.Password, err = readPassword(cmdCtx.Stdin); err != nil {
			return err
		}
	}

	return withUserAdmin(cmdCtx, func(ctx context.Context, admin userAdmin) error {
		user, err := admin.CreateUser(ctx, &model.CreateUserRequest{Email: opts.Email, Password: opts.Password})
		if err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		cmdCtx.Logger.Info("user created", "user_id", user.ID)
		return writef(cmdCtx.Stdout, "created user %s (%s)\n", user.Email, user.ID)
	})
}

func parseDeactivateUserFlags(args []string, stderr io.Writer) (string, error) {
	fs := flag.NewFlagSet("deactivate-user", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var email string
	fs.StringVar(&email, "email", "", "Email address of the user to deactivate (required)")
	if err := fs.Parse(args); err != nil {
		return "", err
	}
	email = strings.TrimSpace(email)
	if email == "" {
		return "", errors.New("--email is required")
	}
	return email, nil
}

func runDeactivateUser(cmdCtx *commandContext, args []string) error {
	email, err := parseDeactivateUserFlags(args, cmdCtx.Stderr)
	if err != nil {
		return err
	}
	return withUserAdmin(cmdCtx, func(ctx context.Context, admin userAdmin) error {
		if err := admin.DeactivateUser(ctx, model.NormalizeEmail(email)); err != nil {
			return fmt.Errorf("deactivate user: %w", err)
		}
		return writef(cmdCtx.Stdout, "deactivated user %s\n", model.NormalizeEmail(email))
	})
}

func withUserAdmin(cmdCtx *commandContext, f func(context.Context, userAdmin) error) error {
	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, userCommandTimeout)
	defer cancel()

	admin, closeFn, err := cmdCtx.users(ctx, cmdCtx)
	if err != nil {
		return err
	}
	if closeFn != nil {
		defer closeFn()
	}
	return f(ctx, admin)
}
