package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/freightquote-backend/internal/salesreps"
	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/db"
	"github.com/angelmondragon/freightquote-backend/pkg/enums"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	"github.com/angelmondragon/freightquote-backend/pkg/migrate"
)

// bootstrapPasswordEnv keeps the first manager's password out of shell history.
const bootstrapPasswordEnv = "FREIGHTQUOTE_BOOTSTRAP_PASSWORD"

type flags struct {
	dir      string
	name     string
	version  string
	email    string
	repName  string
	position string
	role     string
}

type command struct {
	usage string
	needs bool // needs a database connection
	run   func(ctx context.Context, env *runEnv) error
}

type runEnv struct {
	cfg   *config.Config
	logg  *logger.Logger
	flags flags
	db    *db.Client
	sqlDB *sql.DB
}

var commands = map[string]command{
	"create": {usage: "write an empty migration (-name)", run: func(_ context.Context, e *runEnv) error {
		if e.flags.name == "" {
			return errors.New("missing -name for create")
		}
		path, err := migrate.CreateSQLMigration(e.flags.dir, e.flags.name)
		if err != nil {
			return err
		}
		fmt.Println("created migration:", path)
		return nil
	}},
	"validate": {usage: "check filenames and goose markers", run: func(_ context.Context, e *runEnv) error {
		if err := migrate.ValidateDir(e.flags.dir); err != nil {
			return err
		}
		fmt.Println("migration validation passed")
		return nil
	}},
	"up":     {usage: "apply pending migrations", needs: true, run: gooseCommand("up")},
	"down":   {usage: "roll back the last migration", needs: true, run: gooseCommand("down")},
	"status": {usage: "print applied and pending migrations", needs: true, run: gooseCommand("status")},
	"version": {usage: "move to -version (YYYYMMDDHHMMSS)", needs: true, run: func(ctx context.Context, e *runEnv) error {
		if e.flags.version == "" {
			return errors.New("missing -version for version command")
		}
		return migrate.MigrateToVersion(ctx, e.sqlDB, e.flags.dir, e.flags.version, os.Stdout)
	}},
	"bootstrap-rep": {usage: "add a rep (-email -rep-name -role) with the password in " + bootstrapPasswordEnv, needs: true, run: bootstrapRep},
}

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	var f flags
	cmdName := flag.String("cmd", "up", "migration command: "+commandNames())
	flag.StringVar(&f.dir, "dir", migrate.DefaultDir, "goose migrations directory")
	flag.StringVar(&f.name, "name", "", "migration name (for create)")
	flag.StringVar(&f.version, "version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	flag.StringVar(&f.email, "email", "", "rep email (for bootstrap-rep)")
	flag.StringVar(&f.repName, "rep-name", "", "rep display name (for bootstrap-rep)")
	flag.StringVar(&f.position, "position", "", "rep position printed on contract documents")
	flag.StringVar(&f.role, "role", string(enums.RoleManager), "rep role (for bootstrap-rep)")
	flag.Usage = usage
	flag.Parse()

	cmd, ok := commands[*cmdName]
	if !ok {
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmdName)
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	logg = logger.ForService("migrate", cfg.App)

	ctx = logg.WithFields(ctx, map[string]any{
		"env": cfg.App.Env,
		"cmd": *cmdName,
		"dir": f.dir,
	})
	env := &runEnv{cfg: cfg, logg: logg, flags: f}

	if cmd.needs {
		env.db, err = db.New(ctx, cfg.DB, logg)
		requireResource(ctx, logg, "database", err)
		defer func() {
			if err := env.db.Close(); err != nil {
				logg.Error(ctx, "error closing database", err)
			}
		}()
		env.sqlDB, err = env.db.DB().DB()
		requireResource(ctx, logg, "sql database", err)
	}

	logg.Info(ctx, "migrate ready")
	if err := cmd.run(ctx, env); err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", *cmdName, err)
		os.Exit(1)
	}
}

func gooseCommand(name string) func(context.Context, *runEnv) error {
	return func(ctx context.Context, e *runEnv) error {
		return migrate.Run(ctx, e.sqlDB, e.flags.dir, name, os.Stdout)
	}
}

func bootstrapRep(ctx context.Context, e *runEnv) error {
	password := os.Getenv(bootstrapPasswordEnv)
	if password == "" {
		return fmt.Errorf("%s is not set", bootstrapPasswordEnv)
	}
	role, err := enums.ParseSalesRepRole(e.flags.role)
	if err != nil {
		return err
	}

	rep, created, err := salesreps.Seed(ctx, salesreps.NewRepository(e.db.DB()), e.cfg.Password, salesreps.RegisterRequest{
		Email:    e.flags.email,
		Name:     e.flags.repName,
		Position: e.flags.position,
		Role:     role,
		Password: password,
	})
	if err != nil {
		return err
	}

	ctx = e.logg.WithFields(ctx, map[string]any{"sales_rep_id": rep.ID, "role": rep.Role})
	if !created {
		e.logg.Warn(ctx, "sales rep already registered, left unchanged")
		return nil
	}
	e.logg.Info(ctx, "sales rep registered")
	return nil
}

func commandNames() string {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: migrate -cmd=<command> [flags]\n\ncommands:\n")
	names := strings.Split(commandNames(), "|")
	for _, name := range names {
		fmt.Fprintf(flag.CommandLine.Output(), "  %-14s %s\n", name, commands[name].usage)
	}
	fmt.Fprintln(flag.CommandLine.Output())
	flag.PrintDefaults()
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
