package database

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/shaiso/Tubesmith/internal/host"
)

// Ошибки провижининга базы данных.
var (
	// ErrRoleCreate — не удалось создать роль приложения.
	ErrRoleCreate = errors.New("database role creation failed")

	// ErrDatabaseCreate — не удалось создать базу приложения.
	ErrDatabaseCreate = errors.New("database creation failed")

	// ErrVerify — созданная роль не может подключиться к базе.
	ErrVerify = errors.New("database connectivity verification failed")
)

// verifyTimeout — таймаут проверочного подключения.
const verifyTimeout = 10 * time.Second

// Params — параметры провижининга.
type Params struct {
	Host string
	Port int
	User string
	Pass string
	Name string
}

// Provisioner создаёт роль и базу PostgreSQL и проверяет доступ.
type Provisioner struct {
	host   host.Host
	logger *slog.Logger

	// verify подменяется в тестах; по умолчанию — pgx ping.
	verify func(ctx context.Context, dsn string) error
}

// NewProvisioner создаёт Provisioner.
func NewProvisioner(h host.Host, logger *slog.Logger) *Provisioner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Provisioner{host: h, logger: logger, verify: pgxVerify}
}

// Ensure создаёт роль и базу, если их ещё нет, и проверяет
// подключение от имени роли приложения.
func (p *Provisioner) Ensure(ctx context.Context, params Params) error {
	roleExists, err := p.exists(ctx, fmt.Sprintf("SELECT 1 FROM pg_roles WHERE rolname=%s", quoteLiteral(params.User)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRoleCreate, err)
	}
	if roleExists {
		p.logger.Info("database role already exists", "role", params.User)
	} else {
		p.logger.Info("creating database role", "role", params.User)
		stmt := fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD %s",
			quoteIdent(params.User), quoteLiteral(params.Pass))
		if err := p.psqlExec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %v", ErrRoleCreate, err)
		}
	}

	dbExists, err := p.exists(ctx, fmt.Sprintf("SELECT 1 FROM pg_database WHERE datname=%s", quoteLiteral(params.Name)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseCreate, err)
	}
	if dbExists {
		p.logger.Info("database already exists", "database", params.Name)
	} else {
		p.logger.Info("creating database", "database", params.Name)
		stmt := fmt.Sprintf("CREATE DATABASE %s OWNER %s",
			quoteIdent(params.Name), quoteIdent(params.User))
		if err := p.psqlExec(ctx, stmt); err != nil {
			return fmt.Errorf("%w: %v", ErrDatabaseCreate, err)
		}
	}

	verifyCtx, cancel := context.WithTimeout(ctx, verifyTimeout)
	defer cancel()
	if err := p.verify(verifyCtx, DSN(params)); err != nil {
		return fmt.Errorf("%w: %v", ErrVerify, err)
	}
	p.logger.Info("database connectivity verified", "database", params.Name, "role", params.User)

	return nil
}

// exists выполняет проверочный запрос через psql (peer auth).
func (p *Provisioner) exists(ctx context.Context, query string) (bool, error) {
	out, err := p.host.Output(ctx, host.Command{
		Name: "psql",
		Args: []string{"-tAc", query},
		User: "postgres",
	})
	if err != nil {
		return false, err
	}
	return strings.Contains(out, "1"), nil
}

// psqlExec выполняет DDL через psql (peer auth).
func (p *Provisioner) psqlExec(ctx context.Context, stmt string) error {
	return p.host.Run(ctx, host.Command{
		Name: "psql",
		Args: []string{"-c", stmt},
		User: "postgres",
	})
}

// DSN собирает строку подключения роли приложения.
// Пароль кодируется через url.UserPassword: он пришёл от оператора
// и может содержать любые символы.
func DSN(params Params) string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(params.User, params.Pass),
		Host:     fmt.Sprintf("%s:%d", params.Host, params.Port),
		Path:     "/" + params.Name,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

// pgxVerify подключается к базе от имени роли приложения.
func pgxVerify(ctx context.Context, dsn string) error {
	cfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return fmt.Errorf("parse dsn: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer conn.Close(ctx)

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// quoteIdent экранирует идентификатор SQL (имя роли или базы).
func quoteIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// quoteLiteral экранирует строковый литерал SQL.
func quoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}
