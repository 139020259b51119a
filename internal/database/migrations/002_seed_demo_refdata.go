package migrations

import (
	"gorm.io/gorm"

	"github.com/fxops/confirmhub/internal/refdata"
	"github.com/fxops/confirmhub/internal/types"
)

// SeedDemoReferenceData loads a starter mapping set covering the supported
// venues so a fresh database can book trades end to end. Inserts are
// idempotent; existing rows are left alone.
func SeedDemoReferenceData(db *gorm.DB) error {
	counterparties := []refdata.CounterpartyMapping{
		{SourceType: types.SourceFix, VenueCode: types.VenueVolbroker, ExternalName: "BANKABC", Code: "BANKABC-LDN"},
		{SourceType: types.SourceEmail, VenueCode: types.VenueTullett, ExternalName: "BANK ABC LONDON", Code: "BANKABC-LDN"},
		{SourceType: types.SourceEmail, VenueCode: types.VenueBarclays, ExternalName: "ACME FUND LP", Code: "ACME-FUND"},
		{SourceType: types.SourceEmail, VenueCode: types.VenueNatWest, ExternalName: "ACME FUND LP", Code: "ACME-FUND"},
	}
	for _, row := range counterparties {
		err := db.Where(refdata.CounterpartyMapping{SourceType: row.SourceType, VenueCode: row.VenueCode, ExternalName: row.ExternalName}).
			FirstOrCreate(&row).Error
		if err != nil {
			return err
		}
	}

	routings := []refdata.TraderRouting{
		{VenueCode: types.VenueVolbroker, TraderCode: "PWL", InternalUserID: "U1001", InvID: "INV1001", ReportingEntityID: "RE-LDN"},
		{VenueCode: types.VenueTullett, TraderCode: "JSMITH", InternalUserID: "U1001", InvID: "INV1001", ReportingEntityID: "RE-LDN"},
		{VenueCode: types.VenueBarclays, TraderCode: "MJONES", InternalUserID: "U1002", InvID: "INV1002", ReportingEntityID: "RE-LDN"},
		{VenueCode: types.VenueNatWest, TraderCode: "PWILLIAMS", InternalUserID: "U1003", InvID: "INV1003", ReportingEntityID: "RE-LDN"},
	}
	for _, row := range routings {
		err := db.Where(refdata.TraderRouting{VenueCode: row.VenueCode, TraderCode: row.TraderCode}).
			FirstOrCreate(&row).Error
		if err != nil {
			return err
		}
	}

	portfolios := []refdata.PortfolioCode{
		{SystemCode: types.SystemMX3, CurrencyPair: "EURUSD", ProductType: types.ProductOptionVanilla, Code: "FXO-LDN"},
		{SystemCode: types.SystemMX3, CurrencyPair: "EURUSD", ProductType: types.ProductForward, Code: "FXC-LDN"},
		{SystemCode: types.SystemMX3, CurrencyPair: "GBPUSD", ProductType: types.ProductForward, Code: "FXC-LDN"},
		{SystemCode: types.SystemMX3, CurrencyPair: "USDINR", ProductType: types.ProductNdf, Code: "FXC-NDF"},
	}
	for _, row := range portfolios {
		err := db.Where(refdata.PortfolioCode{SystemCode: row.SystemCode, CurrencyPair: row.CurrencyPair, ProductType: row.ProductType}).
			FirstOrCreate(&row).Error
		if err != nil {
			return err
		}
	}

	books := []refdata.CalypsoBook{
		{TraderID: "U1001", Book: "LDN-FXO-1"},
		{TraderID: "U1002", Book: "LDN-FXC-1"},
		{TraderID: "U1003", Book: "LDN-FXC-2"},
	}
	for _, row := range books {
		if err := db.Where(refdata.CalypsoBook{TraderID: row.TraderID}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}

	cuts := []refdata.ExpiryCut{
		{CurrencyPair: "EURUSD", Cut: "NY 10:00"},
		{CurrencyPair: "GBPUSD", Cut: "NY 10:00"},
		{CurrencyPair: "USDJPY", Cut: "TOK 15:00"},
	}
	for _, row := range cuts {
		if err := db.Where(refdata.ExpiryCut{CurrencyPair: row.CurrencyPair}).FirstOrCreate(&row).Error; err != nil {
			return err
		}
	}

	brokers := []refdata.BrokerMapping{
		{VenueCode: types.VenueTullett, ExternalBroker: "TP LONDON", Code: "TPL"},
	}
	for _, row := range brokers {
		err := db.Where(refdata.BrokerMapping{VenueCode: row.VenueCode, ExternalBroker: row.ExternalBroker}).
			FirstOrCreate(&row).Error
		if err != nil {
			return err
		}
	}

	return nil
}
