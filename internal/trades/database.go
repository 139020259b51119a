package trades

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/fxops/confirmhub/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) GetTrade(tradeID string) (*types.Trade, error) {
	var trade types.Trade
	if err := d.db.Where("trade_id = ?", tradeID).First(&trade).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &trade, nil
}

func (d *Database) GetTradesByMessage(messageID string) ([]types.Trade, error) {
	var trades []types.Trade
	if err := d.db.Where("message_id = ?", messageID).Find(&trades).Error; err != nil {
		return nil, err
	}
	return trades, nil
}

// GetLink returns the active link for one (trade, system) pair.
func (d *Database) GetLink(tradeID string, system types.SystemCode) (*types.TradeSystemLink, error) {
	var link types.TradeSystemLink
	err := d.db.Where("trade_id = ? AND system_code = ?", tradeID, system).First(&link).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (d *Database) GetLinksByTrade(tradeID string) ([]types.TradeSystemLink, error) {
	var links []types.TradeSystemLink
	if err := d.db.Where("trade_id = ?", tradeID).Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// GetLinksByStatus lists all active links for one system in one status.
func (d *Database) GetLinksByStatus(system types.SystemCode, status types.LinkStatus) ([]types.TradeSystemLink, error) {
	var links []types.TradeSystemLink
	if err := d.db.Where("system_code = ? AND status = ?", system, status).Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// UpdateLinkStatus transitions one link and stamps the change time.
func (d *Database) UpdateLinkStatus(link *types.TradeSystemLink, status types.LinkStatus) error {
	link.Status = status
	link.StatusChangedAt = time.Now().UTC()
	return d.db.Save(link).Error
}

// SoftDeleteLink marks a link deleted; links are never hard-deleted.
func (d *Database) SoftDeleteLink(link *types.TradeSystemLink) error {
	return d.db.Delete(link).Error
}

func (d *Database) CreateEvent(event *types.TradeWorkflowEvent) error {
	return d.db.Create(event).Error
}

func (d *Database) GetEventsByTrade(tradeID string) ([]types.TradeWorkflowEvent, error) {
	var events []types.TradeWorkflowEvent
	if err := d.db.Where("trade_id = ?", tradeID).Order("created_at asc").Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

func (d *Database) CountEventsByTrade(tradeID string) (int64, error) {
	var count int64
	if err := d.db.Model(&types.TradeWorkflowEvent{}).Where("trade_id = ?", tradeID).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
