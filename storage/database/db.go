package database

import (
	"embed"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/bmwamba/darasa/core"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func init() {
	// modernc's driver is not known to sqlx; it takes "?" placeholders.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// Open connects to the configured engine: lib/pq for postgres, modernc
// sqlite for local files.
func Open(conf *core.Config) (*sqlx.DB, error) {
	switch conf.Database.Engine {
	case "postgres":
		return openPostgres(conf)
	case "sqlite":
		return sqlx.Open("sqlite", conf.Database.Name+".db?_pragma=foreign_keys(1)")
	default:
		return nil, errors.Errorf("unsupported database engine %q", conf.Database.Engine)
	}
}

func openPostgres(conf *core.Config) (*sqlx.DB, error) {
	sslMode := "require"
	if conf.Database.DisableTLS {
		sslMode = "disable"
	}
	q := make(url.Values)
	q.Set("sslmode", sslMode)
	q.Set("timezone", "utc")

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(conf.Database.User, conf.Database.Password),
		Host:     conf.Database.Address(),
		Path:     conf.Database.Name,
		RawQuery: q.Encode(),
	}
	return sqlx.Open("postgres", u.String())
}

// Ping waits for the database to be ready. Waits 100ms longer between each attempt.
func Ping(db *sqlx.DB) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err = db.Ping()
		if err == nil {
			break
		}
		time.Sleep(time.Duration(attempts) * 100 * time.Millisecond)
	}

	if err != nil {
		return errors.Wrap(err, "DB ping timeout")
	}
	return nil
}

func prepareGoose(engine string) error {
	goose.SetBaseFS(migrationsFS)
	dialect := engine
	if engine == "sqlite" {
		dialect = "sqlite3"
	}
	return errors.Wrap(goose.SetDialect(dialect), "setting goose dialect")
}

func Migrate(db *sqlx.DB, engine string) error {
	if err := prepareGoose(engine); err != nil {
		return err
	}
	if err := goose.Up(db.DB, "migrations"); err != nil {
		return errors.Wrap(err, "migrating database")
	}
	return nil
}

// RunMigrationCommand executes an arbitrary goose command against the
// embedded migrations. Used by the admin CLI.
func RunMigrationCommand(db *sqlx.DB, engine, command string, args ...string) error {
	if err := prepareGoose(engine); err != nil {
		return err
	}
	return goose.Run(command, db.DB, "migrations", args...)
}
