// Package parsing turns raw inbound confirmation messages into canonical
// trades. One parser exists per venue/channel; the registry resolves the
// parser for a message once, from its (source type, venue, FIX message type)
// tuple, and the orchestrator persists whatever the parser produced.
package parsing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fxops/confirmhub/internal/currency"
	"github.com/fxops/confirmhub/internal/refdata"
	"github.com/fxops/confirmhub/internal/types"
)

// Sentinel values substituted when a reference-data lookup misses. The trade
// still reaches storage for manual correction; the miss is recorded as a
// WARNING workflow event.
const (
	SentinelCounterparty = "UNKNOWN-CPTY"
	SentinelPortfolio    = "UNMAPPED"
	SentinelBook         = "UNMAPPED"

	initiator = "stp-hub"
)

// Parser is the per-venue contract: CanParse matches on source type, venue
// code and (for FIX) message type; Parse returns a structural failure or zero
// or more canonical trades with their links and events attached.
type Parser interface {
	CanParse(msg *types.MessageIn) bool
	Parse(msg *types.MessageIn) types.ParseResult
}

// Config carries the firm-level constants the parsers need.
type Config struct {
	OwnPartyID   string // our firm's FIX party identifier
	UTINamespace string // prefix for constructed UTIs
}

// Deps bundles the collaborators shared by every parser.
type Deps struct {
	Lookups    refdata.Lookups
	Convention *currency.Convention
	Config     Config
}

type parserKey struct {
	source     types.SourceType
	venue      string
	fixMsgType string
}

// Registry is the closed dispatch table over the supported venues. Parsers
// are registered once at construction; resolution is a single map lookup.
type Registry struct {
	table map[parserKey]Parser
}

// NewRegistry builds the registration table for the four supported channels.
func NewRegistry(deps Deps) *Registry {
	return &Registry{table: map[parserKey]Parser{
		{types.SourceEmail, types.VenueBarclays, ""}:  NewBarclaysParser(deps),
		{types.SourceEmail, types.VenueTullett, ""}:   NewTullettParser(deps),
		{types.SourceEmail, types.VenueNatWest, ""}:   NewNatWestParser(deps),
		{types.SourceFix, types.VenueVolbroker, "AE"}: NewVolbrokerParser(deps),
	}}
}

// Resolve returns the parser for the message, or false when no channel
// matches.
func (r *Registry) Resolve(msg *types.MessageIn) (Parser, bool) {
	key := parserKey{source: msg.SourceType, venue: msg.SourceVenueCode}
	if msg.SourceType == types.SourceFix {
		key.fixMsgType = msg.FixMsgType
	}
	p, ok := r.table[key]
	if !ok || !p.CanParse(msg) {
		return nil, false
	}
	return p, true
}

// newEvent builds one append-only workflow event.
func newEvent(tradeID, messageID, eventType string, system types.SystemCode, details string) types.TradeWorkflowEvent {
	return types.TradeWorkflowEvent{
		EventID:    uuid.New().String(),
		TradeID:    tradeID,
		MessageID:  messageID,
		EventType:  eventType,
		SystemCode: system,
		Details:    details,
		Initiator:  initiator,
		CreatedAt:  time.Now().UTC(),
	}
}

func warningEvent(tradeID, messageID, details string) types.TradeWorkflowEvent {
	return newEvent(tradeID, messageID, types.EventWarning, "", details)
}

// systemsForVenue is the link fan-out per trade: every trade books into MX3
// and Calypso and reports through RTNS; Volbroker trades additionally track
// the venue's own STP feed.
func systemsForVenue(venue string) []types.SystemCode {
	systems := []types.SystemCode{types.SystemMX3, types.SystemCalypso, types.SystemRtns}
	if venue == types.VenueVolbroker {
		systems = append(systems, types.SystemVolbrokerStp)
	}
	return systems
}

func newLinks(tradeID, venue string) []types.TradeSystemLink {
	now := time.Now().UTC()
	var links []types.TradeSystemLink
	for _, sys := range systemsForVenue(venue) {
		links = append(links, types.TradeSystemLink{
			TradeID:         tradeID,
			SystemCode:      sys,
			Status:          types.StatusNew,
			StatusChangedAt: now,
		})
	}
	return links
}

// enrich resolves the downstream portfolio and book codes for a trade,
// substituting sentinels and appending one WARNING per missing mapping.
func enrich(deps Deps, trade *types.Trade, messageID string) []types.TradeWorkflowEvent {
	var events []types.TradeWorkflowEvent

	if code := deps.Lookups.GetPortfolioCode(types.SystemMX3, trade.CurrencyPair, trade.ProductType); code != "" {
		trade.MX3Portfolio = code
	} else {
		trade.MX3Portfolio = SentinelPortfolio
		events = append(events, warningEvent(trade.TradeID, messageID,
			fmt.Sprintf("no MX3 portfolio code for %s %s", trade.CurrencyPair, trade.ProductType)))
	}

	if book := deps.Lookups.GetCalypsoBookByTraderID(trade.TraderID); book != "" {
		trade.CalypsoBook = book
	} else {
		trade.CalypsoBook = SentinelBook
		events = append(events, warningEvent(trade.TradeID, messageID,
			fmt.Sprintf("no Calypso book for trader %s", trade.TraderID)))
	}

	return events
}

// resolveCounterparty maps the external name, substituting the sentinel and a
// WARNING on a miss.
func resolveCounterparty(deps Deps, msg *types.MessageIn, tradeID, externalName string) (string, []types.TradeWorkflowEvent) {
	if externalName == "" {
		return SentinelCounterparty, []types.TradeWorkflowEvent{
			warningEvent(tradeID, msg.MessageID, "no counterparty present in message")}
	}
	if code := deps.Lookups.ResolveCounterpartyCode(msg.SourceType, msg.SourceVenueCode, externalName); code != "" {
		return code, nil
	}
	return SentinelCounterparty, []types.TradeWorkflowEvent{
		warningEvent(tradeID, msg.MessageID, fmt.Sprintf("no counterparty mapping for %q", externalName))}
}

// buildUTI concatenates the namespace prefix with a per-leg identifier; both
// must be present for a UTI to be constructed.
func buildUTI(namespace, legID string) string {
	if namespace == "" || legID == "" {
		return ""
	}
	return namespace + legID
}
