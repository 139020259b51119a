// Package refdata provides the reference-data lookups the parsers depend on.
// Every lookup returns the empty string on a miss; callers degrade gracefully
// (sentinel value plus a WARNING workflow event) rather than failing the parse.
package refdata

import (
	"gorm.io/gorm"

	"github.com/fxops/confirmhub/internal/types"
)

// Lookups is the read-side contract the parsers consume. Implemented by
// Service; tests substitute fixtures.
type Lookups interface {
	ResolveCounterpartyCode(sourceType types.SourceType, venue, externalName string) string
	GetTraderRoutingInfo(venue, traderCode string) *TraderRouting
	GetPortfolioCode(system types.SystemCode, ccyPair string, product types.ProductType) string
	GetCalypsoBookByTraderID(traderID string) string
	GetExpiryCutByCurrencyPair(ccyPair string) string
	GetBrokerMapping(venue, externalBroker string) string
}

// Service is the gorm-backed Lookups implementation.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) ResolveCounterpartyCode(sourceType types.SourceType, venue, externalName string) string {
	var m CounterpartyMapping
	err := s.db.Where("source_type = ? AND venue_code = ? AND external_name = ?",
		sourceType, venue, externalName).First(&m).Error
	if err != nil {
		return ""
	}
	return m.Code
}

func (s *Service) GetTraderRoutingInfo(venue, traderCode string) *TraderRouting {
	var r TraderRouting
	err := s.db.Where("venue_code = ? AND trader_code = ?", venue, traderCode).First(&r).Error
	if err != nil {
		return nil
	}
	return &r
}

func (s *Service) GetPortfolioCode(system types.SystemCode, ccyPair string, product types.ProductType) string {
	var p PortfolioCode
	err := s.db.Where("system_code = ? AND currency_pair = ? AND product_type = ?",
		system, ccyPair, product).First(&p).Error
	if err != nil {
		return ""
	}
	return p.Code
}

func (s *Service) GetCalypsoBookByTraderID(traderID string) string {
	var b CalypsoBook
	if err := s.db.Where("trader_id = ?", traderID).First(&b).Error; err != nil {
		return ""
	}
	return b.Book
}

func (s *Service) GetExpiryCutByCurrencyPair(ccyPair string) string {
	var c ExpiryCut
	if err := s.db.Where("currency_pair = ?", ccyPair).First(&c).Error; err != nil {
		return ""
	}
	return c.Cut
}

func (s *Service) GetBrokerMapping(venue, externalBroker string) string {
	var m BrokerMapping
	if err := s.db.Where("venue_code = ? AND external_broker = ?", venue, externalBroker).First(&m).Error; err != nil {
		return ""
	}
	return m.Code
}
