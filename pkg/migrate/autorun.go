package migrate

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/landhub-backend/pkg/logger"
)

// AutoRun brings conn up to the embedded schema. It is a no-op on sqlite and
// other non-postgres connections, which test suites migrate with AutoMigrate.
func AutoRun(ctx context.Context, conn *gorm.DB, logg *logger.Logger) error {
	if logg == nil {
		logg = logger.Nop()
	}
	if name := conn.Dialector.Name(); name != dialect {
		logg.Warn(logg.WithField(ctx, "dialect", name), "auto migrate skipped")
		return nil
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}
	source, err := Source("")
	if err != nil {
		return err
	}
	runner, err := NewRunner(sqlDB, source, logg)
	if err != nil {
		return err
	}

	pending, err := runner.provider.HasPending(ctx)
	if err != nil {
		return fmt.Errorf("goose pending: %w", err)
	}
	if !pending {
		logg.Info(ctx, "schema up to date")
		return nil
	}
	return runner.Up(ctx)
}
