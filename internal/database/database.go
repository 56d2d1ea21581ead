// Package database wires the bun ORM to a Postgres connection via
// pgdriver, runs schema migrations, and registers sonic as bun's JSON
// marshal provider for jsonb columns.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"io"

	"github.com/auracore/styleforge/internal/config"
	"github.com/auracore/styleforge/internal/database/migrations"
	"github.com/bytedance/sonic"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunjson"
	"github.com/uptrace/bun/migrate"
	"go.uber.org/zap"
)

func init() {
	// Use sonic instead of encoding/json for bun's jsonb marshal/unmarshal
	// path, matching the descriptor extractor's own JSON handling.
	bunjson.SetProvider(sonicProvider{})
}

type sonicProvider struct{}

func (sonicProvider) Marshal(v any) ([]byte, error) { return sonic.Marshal(v) }

func (sonicProvider) Unmarshal(data []byte, v any) error { return sonic.Unmarshal(data, v) }

func (sonicProvider) NewEncoder(w io.Writer) bunjson.Encoder { return sonic.ConfigDefault.NewEncoder(w) }

func (sonicProvider) NewDecoder(r io.Reader) bunjson.Decoder { return sonic.ConfigDefault.NewDecoder(r) }

// Client wraps a bun.DB connection along with the migrator used to bring
// the schema up to date.
type Client struct {
	DB     *bun.DB
	logger *zap.Logger
}

// New opens a Postgres connection per cfg and returns a Client ready for
// use; callers should call RunMigrations before serving traffic.
func New(cfg *config.Postgres, logger *zap.Logger) (*Client, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	sqldb.SetMaxOpenConns(cfg.MaxConns)

	db := bun.NewDB(sqldb, pgdialect.New())

	return &Client{DB: db, logger: logger.Named("database")}, nil
}

// RunMigrations applies every pending migration registered in the
// migrations package.
func (c *Client) RunMigrations(ctx context.Context) error {
	migrator := migrate.NewMigrator(c.DB, migrations.Migrations)

	if err := migrator.Init(ctx); err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	if group.IsZero() {
		c.logger.Info("no new migrations to run")
		return nil
	}

	c.logger.Info("migrations applied", zap.String("group", group.String()))

	return nil
}

// Close closes the underlying connection pool.
func (c *Client) Close() error {
	return c.DB.Close()
}
