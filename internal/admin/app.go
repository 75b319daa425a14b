// Package admin implements the operator CLI: applying migrations and
// creating accounts without going through the web form.
package admin

import (
	"bufio"
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophsecrets/internal/common"
	"github.com/dmitrijs2005/gophsecrets/internal/logging"
	"github.com/dmitrijs2005/gophsecrets/internal/server/auth"
	"github.com/dmitrijs2005/gophsecrets/internal/server/config"
	"github.com/dmitrijs2005/gophsecrets/internal/server/models"
	"github.com/dmitrijs2005/gophsecrets/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophsecrets/internal/server/services"
)

var ErrUnknownCommand = errors.New("unknown command")

const usage = `Usage: gophsecrets-cli [-c config.json] [-d dsn] [-i iterations] <command>

Commands:
  migrate                          apply pending database migrations
  adduser [-name N] [-email E]     create an account (password is prompted)
  help                             show this message
`

// Registrar creates accounts.
type Registrar interface {
	Register(ctx context.Context, name, email, password string) (*models.User, error)
}

type App struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	accounts Registrar
	in       *bufio.Reader
	out      io.Writer
}

// NewApp opens the database named in cfg and wires the account service.
func NewApp(cfg *config.Config, in io.Reader, out io.Writer, l logging.Logger) (*App, error) {
	db, rm, err := repomanager.Open(cfg.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	repomanager.SetLogger(l)
	svc := services.NewAuthService(db, rm, auth.NewPBKDF2Hasher(cfg.PBKDF2Iterations), l)

	return &App{db: db, rm: rm, accounts: svc, in: bufio.NewReader(in), out: out}, nil
}

func (a *App) Close() error {
	return a.db.Close()
}

// Run executes the first command word found in args. Global flags that
// precede it belong to the config loader and are skipped here.
func (a *App) Run(ctx context.Context, args []string) error {
	cmd, rest := splitCommand(args)

	switch cmd {
	case "migrate":
		return a.migrate(ctx)
	case "adduser":
		return a.addUser(ctx, rest)
	case "", "help":
		fmt.Fprint(a.out, usage)
		return nil
	}

	fmt.Fprint(a.out, usage)
	return fmt.Errorf("%w: %s", ErrUnknownCommand, cmd)
}

// globalBoolFlags are the config flags that take no value.
var globalBoolFlags = map[string]bool{"-m": true, "--m": true, "-dev": true, "--dev": true}

// splitCommand returns the first argument that is neither a flag nor a
// flag's value, together with everything after it.
func splitCommand(args []string) (string, []string) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if strings.HasPrefix(arg, "-") {
			if !strings.Contains(arg, "=") && !globalBoolFlags[arg] {
				i++
			}
			continue
		}
		return arg, args[i+1:]
	}
	return "", nil
}

func (a *App) migrate(ctx context.Context) error {
	if err := a.rm.RunMigrations(ctx, a.db); err != nil {
		return fmt.Errorf("migrations failed: %w", err)
	}
	fmt.Fprintln(a.out, "Migrations applied")
	return nil
}

func (a *App) addUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("adduser", flag.ContinueOnError)
	fs.SetOutput(a.out)
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "login email")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if *name == "" {
		if *name, err = GetSimpleText(a.in, "Name", a.out); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = GetSimpleText(a.in, "Email", a.out); err != nil {
			return err
		}
	}
	if *name == "" || *email == "" {
		return errors.New(common.MsgAllFieldsRequired)
	}

	pw, err := GetPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)
	if len(pw) == 0 {
		return errors.New(common.MsgAllFieldsRequired)
	}

	if err := a.migrate(ctx); err != nil {
		return err
	}

	user, err := a.accounts.Register(ctx, *name, *email, string(pw))
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return errors.New(common.MsgAccountExists)
		}
		return err
	}

	fmt.Fprintf(a.out, "Created user %d (%s)\n", user.ID, user.Email)
	return nil
}
