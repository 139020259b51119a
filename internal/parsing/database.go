package parsing

import (
	"errors"

	"gorm.io/gorm"

	"github.com/fxops/confirmhub/internal/types"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) CreateMessage(msg *types.MessageIn) error {
	return d.db.Create(msg).Error
}

func (d *Database) GetMessage(messageID string) (*types.MessageIn, error) {
	var msg types.MessageIn
	if err := d.db.Where("message_id = ?", messageID).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (d *Database) GetMessageByHash(hash string) (*types.MessageIn, error) {
	var msg types.MessageIn
	if err := d.db.Where("payload_hash = ?", hash).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

func (d *Database) GetUnparsedMessages() ([]types.MessageIn, error) {
	var msgs []types.MessageIn
	if err := d.db.Where("parsed = ? AND parse_error = ?", false, "").Find(&msgs).Error; err != nil {
		return nil, err
	}
	return msgs, nil
}

func (d *Database) UpdateMessage(msg *types.MessageIn) error {
	return d.db.Save(msg).Error
}

// DeleteParseResults drops the trades and links an earlier parse of the
// message produced, so a reprocess can reissue the same trade ids. Trades
// carry a unique index on trade_id and are removed outright; links are
// soft-deleted as everywhere else. Workflow events stay: the audit trail is
// append-only.
func (d *Database) DeleteParseResults(messageID string) error {
	var tradeIDs []string
	if err := d.db.Model(&types.Trade{}).Where("message_id = ?", messageID).Pluck("trade_id", &tradeIDs).Error; err != nil {
		return err
	}
	if len(tradeIDs) == 0 {
		return nil
	}
	if err := d.db.Where("trade_id IN ?", tradeIDs).Delete(&types.TradeSystemLink{}).Error; err != nil {
		return err
	}
	return d.db.Unscoped().Where("message_id = ?", messageID).Delete(&types.Trade{}).Error
}

func (d *Database) CreateTrade(trade *types.Trade) error {
	return d.db.Create(trade).Error
}

func (d *Database) CreateLink(link *types.TradeSystemLink) error {
	return d.db.Create(link).Error
}

func (d *Database) CreateEvent(event *types.TradeWorkflowEvent) error {
	return d.db.Create(event).Error
}
