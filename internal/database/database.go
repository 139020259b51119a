package database

import (
	"fmt"
	"sync/atomic"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fxops/confirmhub/internal/database/migrations"
	"github.com/fxops/confirmhub/internal/refdata"
	"github.com/fxops/confirmhub/internal/types"
)

// NewDatabase initializes and returns a new GORM DB connection
func NewDatabase(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		dsn = "confirmhub.db"
	}
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	// Run migrations
	if err := migrations.AddReferenceData(db); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := migrations.SeedDemoReferenceData(db); err != nil {
		return nil, fmt.Errorf("failed to seed reference data: %w", err)
	}

	// Auto-migrate other schemas
	err = db.AutoMigrate(
		&types.MessageIn{},
		&types.Trade{},
		&types.TradeSystemLink{},
		&types.TradeWorkflowEvent{},
	)
	if err != nil {
		return nil, err
	}

	return db, nil
}

var testDBSeq atomic.Int64

// NewTestDatabase opens an isolated in-memory database for tests. Each call
// gets its own named shared-cache database so the connection pool sees one
// store.
func NewTestDatabase() (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	err = db.AutoMigrate(
		&types.MessageIn{},
		&types.Trade{},
		&types.TradeSystemLink{},
		&types.TradeWorkflowEvent{},
		&refdata.CounterpartyMapping{},
		&refdata.TraderRouting{},
		&refdata.PortfolioCode{},
		&refdata.CalypsoBook{},
		&refdata.ExpiryCut{},
		&refdata.BrokerMapping{},
	)
	if err != nil {
		return nil, err
	}
	return db, nil
}
