// Package datasource opens the database handle described by an
// environment's data source. Nothing here runs at build time; sessions open
// their handle on first use.
package datasource

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cast"

	"sqlmap-builder/config"
)

// Pool property names understood for POOLED data sources.
const (
	PropMaxActive   = "poolMaximumActiveConnections"
	PropMaxIdle     = "poolMaximumIdleConnections"
	PropMaxCheckout = "poolMaximumCheckoutTime"
	PropMaxIdleTime = "poolTimeToWait"
)

var drivers = config.NewRegistry[string]()

func init() {
	for _, alias := range []string{"postgres", "postgresql", "pq", "org.postgresql.Driver"} {
		drivers.Register(strings.ToLower(alias), "postgres")
	}
}

// RegisterDriver maps a driver property value to a database/sql driver name.
// The driver package itself must be imported by the caller.
func RegisterDriver(alias, sqlDriver string) {
	drivers.Register(strings.ToLower(alias), sqlDriver)
}

// DriverName resolves the sql driver for a data source.
func DriverName(ds config.DataSource) (string, error) {
	driver := strings.TrimSpace(ds.Driver())
	if driver == "" {
		return "", fmt.Errorf("data source has no driver property")
	}

	name, ok := drivers.Get(strings.ToLower(driver))
	if !ok {
		return "", fmt.Errorf("unsupported driver %q (known: %s)", driver, strings.Join(drivers.Names(), ", "))
	}

	return name, nil
}

// DSN returns the connection string of a data source. A "jdbc:" prefix is
// dropped, and username/password are added when the url carries none.
func DSN(ds config.DataSource) (string, error) {
	raw := strings.TrimPrefix(strings.TrimSpace(ds.URL()), "jdbc:")
	if raw == "" {
		return "", fmt.Errorf("data source has no url property")
	}

	// key=value connection strings are passed through
	if !strings.Contains(raw, "://") {
		return raw, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid data source url: %w", err)
	}

	if u.User == nil && ds.Username() != "" {
		if ds.Password() != "" {
			u.User = url.UserPassword(ds.Username(), ds.Password())
		} else {
			u.User = url.User(ds.Username())
		}
	}

	return u.String(), nil
}

// Open returns a database handle for ds. The connection itself is
// established lazily by database/sql.
func Open(ds config.DataSource) (*sqlx.DB, error) {
	if ds.Type == config.DataSourceJNDI {
		return nil, fmt.Errorf("JNDI data sources cannot be opened")
	}

	driver, err := DriverName(ds)
	if err != nil {
		return nil, err
	}

	dsn, err := DSN(ds)
	if err != nil {
		return nil, err
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s data source: %w", driver, err)
	}

	if err := configurePool(db, ds); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Ping opens ds and verifies that the database answers.
func Ping(ctx context.Context, ds config.DataSource) error {
	db, err := Open(ds)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping data source: %w", err)
	}

	return nil
}

func configurePool(db *sqlx.DB, ds config.DataSource) error {
	if ds.Type == config.DataSourceUnpooled {
		db.SetMaxIdleConns(0)
		return nil
	}

	if v, ok := ds.Property(PropMaxActive); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", PropMaxActive, v, err)
		}

		db.SetMaxOpenConns(n)
	}

	if v, ok := ds.Property(PropMaxIdle); ok {
		n, err := cast.ToIntE(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", PropMaxIdle, v, err)
		}

		db.SetMaxIdleConns(n)
	}

	for prop, set := range map[string]func(time.Duration){
		PropMaxCheckout: db.SetConnMaxLifetime,
		PropMaxIdleTime: db.SetConnMaxIdleTime,
	} {
		v, ok := ds.Property(prop)
		if !ok {
			continue
		}

		ms, err := cast.ToInt64E(v)
		if err != nil {
			return fmt.Errorf("%s=%q: %w", prop, v, err)
		}

		set(time.Duration(ms) * time.Millisecond)
	}

	return nil
}
