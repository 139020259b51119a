package types

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductType classifies one canonical trade leg.
type ProductType string

const (
	ProductSpot          ProductType = "Spot"
	ProductForward       ProductType = "Forward"
	ProductSwap          ProductType = "Swap"
	ProductNdf           ProductType = "Ndf"
	ProductOptionVanilla ProductType = "OptionVanilla"
	ProductOptionNdo     ProductType = "OptionNdo"
)

// SystemCode identifies a downstream booking or reporting system.
type SystemCode string

const (
	SystemMX3          SystemCode = "MX3"
	SystemCalypso      SystemCode = "CALYPSO"
	SystemVolbrokerStp SystemCode = "VOLBROKER-STP"
	SystemRtns         SystemCode = "RTNS"
)

// LinkStatus is the booking state of a trade with respect to one system.
type LinkStatus string

const (
	StatusNew       LinkStatus = "New"
	StatusPending   LinkStatus = "Pending"
	StatusBooked    LinkStatus = "Booked"
	StatusError     LinkStatus = "Error"
	StatusCancelled LinkStatus = "Cancelled"
)

// Terminal reports whether the status is final for automated processing.
func (s LinkStatus) Terminal() bool {
	return s == StatusBooked || s == StatusError || s == StatusCancelled
}

// Workflow event types.
const (
	EventTradeNormalized    = "TradeNormalized"
	EventWarning            = "WARNING"
	EventBookingConfirmed   = "BookingConfirmed"
	EventBookingRejected    = "BookingRejected"
	EventMessageParseFailed = "MessageParseFailed"
	EventSideFallbackUsed   = "SideFallbackUsed"
)

// Trade is one canonical leg of a confirmed deal. Exactly one product-specific
// field set is populated; fields belonging to other product types stay blank.
type Trade struct {
	gorm.Model   `json:"-"`
	TradeID      string      `gorm:"uniqueIndex" json:"trade_id"`
	MessageID    string      `json:"message_id"`
	ProductType  ProductType `json:"product_type"`
	CurrencyPair string      `json:"currency_pair"` // 6 chars, base then quote
	BuySell      string      `json:"buy_sell"`      // Buy or Sell of the base currency

	Notional         decimal.Decimal `gorm:"type:decimal(20,4)" json:"notional"`
	NotionalCurrency string          `json:"notional_currency"`

	TradeDate      time.Time  `json:"trade_date"`
	ExecutionTime  *time.Time `json:"execution_time,omitempty"`
	SettlementDate *time.Time `json:"settlement_date,omitempty"`
	ExpiryDate     *time.Time `json:"expiry_date,omitempty"`
	FixingDate     *time.Time `json:"fixing_date,omitempty"`

	CounterpartyCode string `json:"counterparty_code"`
	TraderID         string `json:"trader_id"`
	BrokerRef        string `json:"broker_ref"`
	BrokerCode       string `json:"broker_code,omitempty"`
	UTI              string `json:"uti,omitempty"`
	TVTIC            string `json:"tvtic,omitempty"`

	// Option fields
	Strike          decimal.Decimal `gorm:"type:decimal(20,8)" json:"strike,omitempty"`
	CallPut         string          `json:"call_put,omitempty"` // Call or Put relative to base
	Premium         decimal.Decimal `gorm:"type:decimal(20,4)" json:"premium,omitempty"`
	PremiumCurrency string          `json:"premium_currency,omitempty"`
	ExpiryCut       string          `json:"expiry_cut,omitempty"`

	// Forward / hedge fields
	HedgeRate  decimal.Decimal `gorm:"type:decimal(20,8)" json:"hedge_rate,omitempty"`
	SwapPoints decimal.Decimal `gorm:"type:decimal(20,8)" json:"swap_points,omitempty"`
	HedgeType  string          `json:"hedge_type,omitempty"`

	// NDF fields
	SettlementCurrency string `json:"settlement_currency,omitempty"`
	FixingSource       string `json:"fixing_source,omitempty"`

	// Downstream enrichment, set by lookup after parsing
	MX3Portfolio string `json:"mx3_portfolio,omitempty"`
	CalypsoBook  string `json:"calypso_book,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TradeSystemLink tracks one trade's booking status against one external
// system. At most one active link exists per (trade, system) pair; links are
// soft-deleted, never removed.
type TradeSystemLink struct {
	gorm.Model      `json:"-"`
	TradeID         string     `gorm:"index:idx_trade_system" json:"trade_id"`
	SystemCode      SystemCode `gorm:"index:idx_trade_system" json:"system_code"`
	Status          LinkStatus `json:"status"`
	SystemTradeID   string     `json:"system_trade_id,omitempty"`
	LastError       string     `json:"last_error,omitempty"`
	StatusChangedAt time.Time  `json:"status_changed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TradeWorkflowEvent is an append-only audit record attached to a trade or a
// message. Soft parse problems (missing lookups) land here as WARNING events
// rather than aborting the parse.
type TradeWorkflowEvent struct {
	gorm.Model `json:"-"`
	EventID    string     `gorm:"uniqueIndex" json:"event_id"`
	TradeID    string     `gorm:"index" json:"trade_id,omitempty"`
	MessageID  string     `json:"message_id,omitempty"`
	EventType  string     `json:"event_type"`
	SystemCode SystemCode `json:"system_code,omitempty"`
	Details    string     `json:"details"`
	Initiator  string     `json:"initiator"`
	CreatedAt  time.Time  `json:"created_at"`
}
