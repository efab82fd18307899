// Command authsvc-admin provides operational commands for the auth service:
// migrations, admin promotion, and session inspection/cleanup.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flixbase/authsvc/config"
	"github.com/flixbase/authsvc/internal/bootstrap"
	"github.com/flixbase/authsvc/internal/service"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
}

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultCommandTimeout   = 2 * time.Minute

	sessionKeyPattern = "session:*"
)

func main() {
	logger := bootstrap.InitLogger()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(2)
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmdName)
		printUsage()
		os.Exit(2)
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1)
	}

	cmdCtx := &commandContext{
		Ctx:    context.Background(),
		Logger: logger,
		Config: cfg,
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		os.Exit(1)
	}
}

func commands() map[string]command {
	return map[string]command{
		"migrate": {
			name:        "migrate",
			description: "Run database migrations",
			run:         runMigrate,
		},
		"promote": {
			name:        "promote",
			description: "Grant a user admin rights (creates the account if absent)",
			run:         runPromote,
		},
		"list-users": {
			name:        "list-users",
			description: "List user accounts",
			run:         runListUsers,
		},
		"clear-sessions": {
			name:        "clear-sessions",
			description: "Remove active session records from Redis",
			run:         runClearSessions,
		},
	}
}

func printUsage() {
	fmt.Fprintf(os.Stdout, "Usage: authsvc-admin <command> [flags]\n\n")
	fmt.Fprintf(os.Stdout, "Available commands:\n")
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(os.Stdout, "  %-16s %s\n", name, cmds[name].description)
	}
}

type migrateOptions struct {
	Timeout time.Duration
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	var opts migrateOptions
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout, "migration timeout")
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("parse migrate flags: %w", err)
	}
	return opts, nil
}

func runMigrate(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)

	return bootstrap.RunMigrations(ctx, db, cmdCtx.Logger)
}

type promoteOptions struct {
	Email    string
	Name     string
	Password string
}

func parsePromoteFlags(args []string) (promoteOptions, error) {
	var opts promoteOptions
	fs := flag.NewFlagSet("promote", flag.ContinueOnError)
	fs.StringVar(&opts.Email, "email", "", "email of the account to promote (required)")
	fs.StringVar(&opts.Name, "name", "", "display name for the account")
	fs.StringVar(&opts.Password, "password", "", "password for the account (required)")
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("parse promote flags: %w", err)
	}
	if opts.Email == "" {
		return opts, errors.New("-email is required")
	}
	if opts.Password == "" {
		return opts, errors.New("-password is required")
	}
	return opts, nil
}

func runPromote(cmdCtx *commandContext, args []string) error {
	opts, err := parsePromoteFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, redisClient, err := connectInfra(cmdCtx)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)
	defer closeRedis(cmdCtx.Logger, redisClient)

	auth := bootstrap.BuildAuthService(&bootstrap.ServiceDeps{
		Config:      &cmdCtx.Config,
		DB:          db,
		RedisClient: redisClient,
		Logger:      cmdCtx.Logger,
	})

	user, err := auth.PromoteToAdmin(ctx, service.PromoteInput{
		Name:     opts.Name,
		Email:    opts.Email,
		Password: opts.Password,
	})
	if err != nil {
		return fmt.Errorf("promote %s: %w", opts.Email, err)
	}

	cmdCtx.Logger.InfoContext(ctx, "user promoted", "email", user.Email, "is_admin", user.IsAdmin)
	return nil
}

type listUsersOptions struct {
	Limit  int
	Offset int
}

func parseListUsersFlags(args []string) (listUsersOptions, error) {
	var opts listUsersOptions
	fs := flag.NewFlagSet("list-users", flag.ContinueOnError)
	fs.IntVar(&opts.Limit, "limit", 50, "maximum number of accounts to list")
	fs.IntVar(&opts.Offset, "offset", 0, "number of accounts to skip")
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("parse list-users flags: %w", err)
	}
	if opts.Limit <= 0 {
		return opts, errors.New("-limit must be positive")
	}
	return opts, nil
}

func runListUsers(cmdCtx *commandContext, args []string) error {
	opts, err := parseListUsersFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeDB(cmdCtx.Logger, db)

	rows, err := db.QueryContext(ctx,
		`SELECT email, name, is_admin, created_at FROM users ORDER BY created_at, email LIMIT $1 OFFSET $2`,
		opts.Limit, opts.Offset)
	if err != nil {
		return fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tNAME\tADMIN\tCREATED")
	count := 0
	for rows.Next() {
		var (
			email, name string
			isAdmin     bool
			createdAt   time.Time
		)
		if scanErr := rows.Scan(&email, &name, &isAdmin, &createdAt); scanErr != nil {
			return fmt.Errorf("scan user row: %w", scanErr)
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\n", email, name, isAdmin, createdAt.Format(time.RFC3339))
		count++
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return fmt.Errorf("iterate user rows: %w", rowsErr)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}

	cmdCtx.Logger.InfoContext(ctx, "listed users", "count", count)
	return nil
}

type clearSessionsOptions struct {
	Email  string
	All    bool
	DryRun bool
}

func parseClearSessionsFlags(args []string) (clearSessionsOptions, error) {
	var opts clearSessionsOptions
	fs := flag.NewFlagSet("clear-sessions", flag.ContinueOnError)
	fs.StringVar(&opts.Email, "email", "", "clear the session for a single user")
	fs.BoolVar(&opts.All, "all", false, "clear every session record")
	fs.BoolVar(&opts.DryRun, "dry-run", false, "list matching sessions without deleting")
	if err := fs.Parse(args); err != nil {
		return opts, fmt.Errorf("parse clear-sessions flags: %w", err)
	}
	if opts.Email == "" && !opts.All {
		return opts, errors.New("specify -email or -all")
	}
	if opts.Email != "" && opts.All {
		return opts, errors.New("-email and -all are mutually exclusive")
	}
	return opts, nil
}

func runClearSessions(cmdCtx *commandContext, args []string) error {
	opts, err := parseClearSessionsFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, defaultCommandTimeout)
	defer cancel()

	redisClient, err := bootstrap.ConnectRedis(cmdCtx.Config.Redis, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer closeRedis(cmdCtx.Logger, redisClient)

	pattern := sessionKeyPattern
	if opts.Email != "" {
		pattern = "session:" + opts.Email
	}

	removed := 0
	iter := redisClient.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		if opts.DryRun {
			fmt.Fprintln(os.Stdout, key)
			removed++
			continue
		}
		if delErr := redisClient.Del(ctx, key).Err(); delErr != nil {
			return fmt.Errorf("delete session key %s: %w", key, delErr)
		}
		removed++
	}
	if iterErr := iter.Err(); iterErr != nil {
		return fmt.Errorf("scan session keys: %w", iterErr)
	}

	action := "cleared"
	if opts.DryRun {
		action = "matched"
	}
	cmdCtx.Logger.InfoContext(ctx, "clear sessions complete", "action", action, "count", removed)
	return nil
}

func connectInfra(cmdCtx *commandContext) (*sql.DB, redis.UniversalClient, error) {
	db, err := bootstrap.ConnectDB(cmdCtx.Config.Postgres, cmdCtx.Logger)
	if err != nil {
		return nil, nil, err
	}
	redisClient, err := bootstrap.ConnectRedis(cmdCtx.Config.Redis, cmdCtx.Logger)
	if err != nil {
		closeDB(cmdCtx.Logger, db)
		return nil, nil, err
	}
	return db, redisClient, nil
}

func closeDB(logger *slog.Logger, db *sql.DB) {
	if err := db.Close(); err != nil {
		logger.Warn("db close failed", "error", err)
	}
}

func closeRedis(logger *slog.Logger, client redis.UniversalClient) {
	if err := client.Close(); err != nil {
		logger.Warn("redis close failed", "error", err)
	}
}
