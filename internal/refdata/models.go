package refdata

import (
	"gorm.io/gorm"

	"github.com/fxops/confirmhub/internal/types"
)

// CounterpartyMapping maps a venue's external counterparty name to the
// internal counterparty code.
type CounterpartyMapping struct {
	gorm.Model   `json:"-"`
	SourceType   types.SourceType `json:"source_type"`
	VenueCode    string           `gorm:"index" json:"venue_code"`
	ExternalName string           `gorm:"index" json:"external_name"`
	Code         string           `json:"code"`
}

// TraderRouting maps a venue trader short code to the internal identities
// needed for booking and reporting.
type TraderRouting struct {
	gorm.Model        `json:"-"`
	VenueCode         string `gorm:"index" json:"venue_code"`
	TraderCode        string `gorm:"index" json:"trader_code"`
	InternalUserID    string `json:"internal_user_id"`
	InvID             string `json:"inv_id"`
	ReportingEntityID string `json:"reporting_entity_id"`
}

// PortfolioCode maps (system, currency pair, product type) to the portfolio
// the trade books into.
type PortfolioCode struct {
	gorm.Model   `json:"-"`
	SystemCode   types.SystemCode  `gorm:"index" json:"system_code"`
	CurrencyPair string            `gorm:"index" json:"currency_pair"`
	ProductType  types.ProductType `json:"product_type"`
	Code         string            `json:"code"`
}

// CalypsoBook maps an internal trader id to a Calypso book.
type CalypsoBook struct {
	gorm.Model `json:"-"`
	TraderID   string `gorm:"index" json:"trader_id"`
	Book       string `json:"book"`
}

// ExpiryCut is the option expiry time-of-day convention per currency pair.
type ExpiryCut struct {
	gorm.Model   `json:"-"`
	CurrencyPair string `gorm:"index" json:"currency_pair"`
	Cut          string `json:"cut"`
}

// BrokerMapping normalizes an external broker name per venue.
type BrokerMapping struct {
	gorm.Model     `json:"-"`
	VenueCode      string `gorm:"index" json:"venue_code"`
	ExternalBroker string `gorm:"index" json:"external_broker"`
	Code           string `json:"code"`
}
