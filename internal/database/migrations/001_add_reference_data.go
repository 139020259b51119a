package migrations

import (
	"github.com/fxops/confirmhub/internal/refdata"
	"gorm.io/gorm"
)

func AddReferenceData(db *gorm.DB) error {
	// Create the reference-data tables the parsers look up against
	return db.AutoMigrate(
		&refdata.CounterpartyMapping{},
		&refdata.TraderRouting{},
		&refdata.PortfolioCode{},
		&refdata.CalypsoBook{},
		&refdata.ExpiryCut{},
		&refdata.BrokerMapping{},
	)
}
