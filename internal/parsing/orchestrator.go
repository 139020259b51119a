package parsing

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/fxops/confirmhub/internal/types"
)

var (
	ErrMessageNotFound  = errors.New("message not found")
	ErrDuplicateMessage = errors.New("duplicate message payload")
)

// Outcome summarizes one orchestration run over a single message.
type Outcome struct {
	MessageID string   `json:"message_id"`
	Parsed    bool     `json:"parsed"`
	Reason    string   `json:"reason,omitempty"`
	TradeIDs  []string `json:"trade_ids,omitempty"`
}

// Orchestrator selects the parser for a message and persists the resulting
// trades, links and events as one unit per message. Persistence is not atomic
// across the set; a crash mid-persist leaves a recoverable inconsistency, not
// corruption, because downstream reconciliation is re-keyed by trade id.
type Orchestrator struct {
	db       *Database
	registry *Registry
}

func NewOrchestrator(gormDB *gorm.DB, registry *Registry) *Orchestrator {
	return &Orchestrator{
		db:       NewDatabase(gormDB),
		registry: registry,
	}
}

// IngestMessage stores one raw inbound message, rejecting exact payload
// duplicates by hash.
func (o *Orchestrator) IngestMessage(msg *types.MessageIn) error {
	sum := sha256.Sum256([]byte(msg.RawPayload))
	msg.PayloadHash = hex.EncodeToString(sum[:])

	existing, err := o.db.GetMessageByHash(msg.PayloadHash)
	if err != nil {
		return err
	}
	if existing != nil {
		return ErrDuplicateMessage
	}

	if msg.MessageID == "" {
		msg.MessageID = uuid.New().String()
	}
	if msg.ReceivedUtc.IsZero() {
		msg.ReceivedUtc = time.Now().UTC()
	}
	return o.db.CreateMessage(msg)
}

// ProcessMessage parses and persists one message by id. Already-parsed
// messages are a no-op unless reprocess is set.
func (o *Orchestrator) ProcessMessage(messageID string, reprocess bool) (*Outcome, error) {
	logger := log.With().
		Str("service", "parse_orchestrator").
		Str("message_id", messageID).
		Logger()

	msg, err := o.db.GetMessage(messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, ErrMessageNotFound
	}
	if msg.Parsed {
		if !reprocess {
			logger.Debug().Msg("message already parsed, skipping")
			return &Outcome{MessageID: messageID, Parsed: true, Reason: "already parsed"}, nil
		}
		// the parser will reissue the same trade ids, so the previous
		// results have to go before re-persisting
		if err := o.db.DeleteParseResults(messageID); err != nil {
			return nil, fmt.Errorf("superseding previous parse results: %w", err)
		}
		logger.Info().Msg("superseded previous parse results for reprocess")
	}

	parser, ok := o.registry.Resolve(msg)
	if !ok {
		return o.recordFailure(logger, msg, fmt.Sprintf("no parser for %s/%s", msg.SourceType, msg.SourceVenueCode))
	}

	result := parser.Parse(msg)
	if result.Failed {
		return o.recordFailure(logger, msg, result.Reason)
	}

	outcome := &Outcome{MessageID: messageID, Parsed: true}
	for _, pt := range result.Trades {
		trade := pt.Trade
		if err := o.db.CreateTrade(&trade); err != nil {
			return nil, fmt.Errorf("persisting trade %s: %w", trade.TradeID, err)
		}
		for _, link := range pt.Links {
			link := link
			if err := o.db.CreateLink(&link); err != nil {
				return nil, fmt.Errorf("persisting link %s/%s: %w", link.TradeID, link.SystemCode, err)
			}
		}
		for _, event := range pt.Events {
			event := event
			if err := o.db.CreateEvent(&event); err != nil {
				return nil, fmt.Errorf("persisting event for %s: %w", trade.TradeID, err)
			}
		}
		outcome.TradeIDs = append(outcome.TradeIDs, trade.TradeID)
	}

	msg.Parsed = true
	msg.ParseError = ""
	if err := o.db.UpdateMessage(msg); err != nil {
		return nil, err
	}

	logger.Info().Int("trades", len(outcome.TradeIDs)).Msg("message processed")
	return outcome, nil
}

// ProcessPendingMessages batches over every unparsed message.
func (o *Orchestrator) ProcessPendingMessages() ([]Outcome, error) {
	msgs, err := o.db.GetUnparsedMessages()
	if err != nil {
		return nil, err
	}

	outcomes := make([]Outcome, 0, len(msgs))
	for _, msg := range msgs {
		outcome, err := o.ProcessMessage(msg.MessageID, false)
		if err != nil {
			log.Error().Err(err).Str("message_id", msg.MessageID).Msg("failed to process pending message")
			continue
		}
		outcomes = append(outcomes, *outcome)
	}
	return outcomes, nil
}

func (o *Orchestrator) recordFailure(logger zerolog.Logger, msg *types.MessageIn, reason string) (*Outcome, error) {
	msg.Parsed = false
	msg.ParseError = reason
	if err := o.db.UpdateMessage(msg); err != nil {
		return nil, err
	}
	event := newEvent("", msg.MessageID, types.EventMessageParseFailed, "", reason)
	if err := o.db.CreateEvent(&event); err != nil {
		return nil, err
	}
	logger.Warn().Str("reason", reason).Msg("message failed to parse")
	return &Outcome{MessageID: msg.MessageID, Reason: reason}, nil
}
