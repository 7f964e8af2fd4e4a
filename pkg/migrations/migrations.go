package migrations

import (
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/pkg/errors"
)

// Do applies every pending up-migration found in migrationsPath.
// Drivers are registered by the caller through blank imports.
func Do(connectionString, migrationsPath string, logger *slog.Logger) error {
	m, err := migrate.New("file://"+migrationsPath, connectionString)
	if err != nil {
		return errors.Wrap(err, "init migrations")
	}
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Error("close migrations", slog.Any("source_err", srcErr), slog.Any("db_err", dbErr))
		}
	}()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Debug("migrations: no change")
		return nil
	} else if err != nil {
		return errors.Wrap(err, "apply migrations")
	}

	version, dirty, err := m.Version()
	if err != nil {
		return errors.Wrap(err, "migrations version")
	}
	logger.Info("migrations applied", slog.Uint64("version", uint64(version)), slog.Bool("dirty", dirty))

	return nil
}
