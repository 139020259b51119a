package parsing

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fxops/confirmhub/internal/types"
)

const emailDateLayout = "2 Jan 2006"

var (
	tullettSectionRe = regexp.MustCompile(`(?m)^(Option\s+\d+|Confirmation of Hedge Details)\s*$`)

	fieldLineRe  = regexp.MustCompile(`(?m)^([A-Za-z /]+):\s*(.+?)\s*$`)
	ccyAmountRe  = regexp.MustCompile(`([A-Z]{3})\s+([\d,]+(?:\.\d+)?)`)
	ccyCallPutRe = regexp.MustCompile(`([A-Z]{3})\s+(Call|Put)`)
	pairSlashRe  = regexp.MustCompile(`([A-Z]{3})\s*/\s*([A-Z]{3})`)
)

// TullettParser handles TP ICAP broker confirmation emails: plain text with an
// optional run of "Option N" blocks plus a "Confirmation of Hedge Details"
// section, each becoming its own canonical trade.
type TullettParser struct {
	deps Deps
}

func NewTullettParser(deps Deps) *TullettParser {
	return &TullettParser{deps: deps}
}

func (p *TullettParser) CanParse(msg *types.MessageIn) bool {
	return msg.SourceType == types.SourceEmail && msg.SourceVenueCode == types.VenueTullett
}

func (p *TullettParser) Parse(msg *types.MessageIn) types.ParseResult {
	logger := log.With().
		Str("parser", "tullett").
		Str("message_id", msg.MessageID).
		Logger()

	body := strings.ReplaceAll(msg.RawPayload, "\r\n", "\n")
	if strings.TrimSpace(body) == "" {
		return types.ParseFailed("empty payload")
	}

	header, sections := splitSections(body)
	hf := parseFieldLines(header)

	ref := hf["Deal Ref"]
	if ref == "" {
		return types.ParseFailed("no deal reference in header")
	}
	tradeDate, err := time.Parse(emailDateLayout, hf["Trade Date"])
	if err != nil {
		return types.ParseFailed("missing or malformed trade date")
	}
	traderCode := hf["Trader"]
	routing := p.deps.Lookups.GetTraderRoutingInfo(msg.SourceVenueCode, traderCode)
	if routing == nil {
		return types.ParseFailed(fmt.Sprintf("no trader routing for %q on %s", traderCode, msg.SourceVenueCode))
	}
	if len(sections) == 0 {
		return types.ParseFailed("no option or hedge sections found")
	}

	brokerCode := p.deps.Lookups.GetBrokerMapping(msg.SourceVenueCode, hf["Broker"])
	counterparty := hf["Counterparty"]

	var parsed []types.ParsedTrade
	optionCount, hedgeCount := 0, 0
	for _, sec := range sections {
		var pt types.ParsedTrade
		var err error
		if sec.hedge {
			hedgeCount++
			pt, err = p.buildHedgeLeg(msg, sec.fields, fmt.Sprintf("%s-H%d", ref, hedgeCount))
		} else {
			optionCount++
			pt, err = p.buildOptionLeg(msg, sec.fields, fmt.Sprintf("%s-O%d", ref, optionCount))
		}
		if err != nil {
			return types.ParseFailed(err.Error())
		}

		pt.Trade.TradeDate = tradeDate
		pt.Trade.TraderID = routing.InternalUserID
		pt.Trade.BrokerRef = ref
		pt.Trade.BrokerCode = brokerCode
		pt.Trade.UTI = buildUTI(p.deps.Config.UTINamespace, pt.Trade.TradeID)
		pt.Trade.TVTIC = pt.Trade.TradeID

		code, cptyEvents := resolveCounterparty(p.deps, msg, pt.Trade.TradeID, counterparty)
		pt.Trade.CounterpartyCode = code
		pt.Events = append(pt.Events, cptyEvents...)
		if brokerCode == "" && hf["Broker"] != "" {
			pt.Events = append(pt.Events, warningEvent(pt.Trade.TradeID, msg.MessageID,
				fmt.Sprintf("no broker mapping for %q", hf["Broker"])))
		}
		pt.Events = append(pt.Events, enrich(p.deps, &pt.Trade, msg.MessageID)...)
		pt.Events = append(pt.Events, newEvent(pt.Trade.TradeID, msg.MessageID, types.EventTradeNormalized, "",
			fmt.Sprintf("%s %s %s %s", pt.Trade.ProductType, pt.Trade.BuySell, pt.Trade.Notional, pt.Trade.CurrencyPair)))
		pt.Links = newLinks(pt.Trade.TradeID, msg.SourceVenueCode)
		parsed = append(parsed, pt)
	}

	logger.Info().Int("legs", len(parsed)).Str("ref", ref).Msg("parsed tullett confirmation")
	return types.ParseOk(parsed)
}

type emailSection struct {
	hedge  bool
	fields map[string]string
}

// splitSections separates the header from the Option N / hedge blocks.
func splitSections(body string) (header string, sections []emailSection) {
	locs := tullettSectionRe.FindAllStringSubmatchIndex(body, -1)
	if len(locs) == 0 {
		return body, nil
	}
	header = body[:locs[0][0]]
	for i, loc := range locs {
		end := len(body)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		title := body[loc[2]:loc[3]]
		sections = append(sections, emailSection{
			hedge:  strings.HasPrefix(title, "Confirmation of Hedge"),
			fields: parseFieldLines(body[loc[1]:end]),
		})
	}
	return header, sections
}

// parseFieldLines extracts "Key: Value" lines into a map.
func parseFieldLines(text string) map[string]string {
	fields := make(map[string]string)
	for _, m := range fieldLineRe.FindAllStringSubmatch(text, -1) {
		fields[strings.TrimSpace(m[1])] = m[2]
	}
	return fields
}

func parsePairField(raw string) (base3, quote3 string, ok bool) {
	m := pairSlashRe.FindStringSubmatch(raw)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

func parseCcyAmount(raw string) (ccy string, amt decimal.Decimal, ok bool) {
	m := ccyAmountRe.FindStringSubmatch(raw)
	if m == nil {
		return "", decimal.Zero, false
	}
	amt, err := decimal.NewFromString(strings.ReplaceAll(m[2], ",", ""))
	if err != nil {
		return "", decimal.Zero, false
	}
	return m[1], amt, true
}

func directionFromField(raw string) (string, bool) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "WE BUY", "BUY":
		return "Buy", true
	case "WE SELL", "SELL":
		return "Sell", true
	}
	return "", false
}

func (p *TullettParser) buildOptionLeg(msg *types.MessageIn, f map[string]string, tradeID string) (types.ParsedTrade, error) {
	a, b, ok := parsePairField(f["Currency Pair"])
	if !ok {
		return types.ParsedTrade{}, fmt.Errorf("%s: missing currency pair", tradeID)
	}
	pair := p.deps.Convention.Pair(a, b)

	direction, ok := directionFromField(f["Direction"])
	if !ok {
		return types.ParsedTrade{}, fmt.Errorf("%s: missing direction", tradeID)
	}
	notionalCcy, notional, ok := parseCcyAmount(f["Notional"])
	if !ok {
		return types.ParsedTrade{}, fmt.Errorf("%s: missing notional", tradeID)
	}
	strike, err := decimal.NewFromString(f["Strike"])
	if err != nil {
		return types.ParsedTrade{}, fmt.Errorf("%s: missing strike", tradeID)
	}

	trade := types.Trade{
		TradeID:          tradeID,
		MessageID:        msg.MessageID,
		ProductType:      types.ProductOptionVanilla,
		CurrencyPair:     pair,
		BuySell:          direction,
		Notional:         notional,
		NotionalCurrency: notionalCcy,
		Strike:           strike,
	}

	var events []types.TradeWorkflowEvent

	// "EUR Call" style: call/put stated relative to a named currency
	if m := ccyCallPutRe.FindStringSubmatch(f["Call/Put"]); m != nil {
		callPut, ambiguous := p.deps.Convention.MapCallPutToBase(m[2], pair, m[1])
		trade.CallPut = callPut
		if ambiguous {
			events = append(events, warningEvent(tradeID, msg.MessageID,
				fmt.Sprintf("call/put currency %q matches neither side of %s", m[1], pair)))
		}
	} else {
		return types.ParsedTrade{}, fmt.Errorf("%s: missing call/put", tradeID)
	}

	if expiry, err := time.Parse(emailDateLayout, f["Expiry Date"]); err == nil {
		trade.ExpiryDate = &expiry
	}
	if ccy, amt, ok := parseCcyAmount(f["Premium"]); ok {
		trade.Premium = amt
		trade.PremiumCurrency = ccy
	}
	if cut := f["Cut"]; cut != "" {
		trade.ExpiryCut = cut
	} else {
		trade.ExpiryCut = p.deps.Lookups.GetExpiryCutByCurrencyPair(pair)
	}

	return types.ParsedTrade{Trade: trade, Events: events}, nil
}

func (p *TullettParser) buildHedgeLeg(msg *types.MessageIn, f map[string]string, tradeID string) (types.ParsedTrade, error) {
	a, b, ok := parsePairField(f["Currency Pair"])
	if !ok {
		return types.ParsedTrade{}, fmt.Errorf("%s: missing currency pair", tradeID)
	}
	pair := p.deps.Convention.Pair(a, b)

	direction, ok := directionFromField(f["Direction"])
	if !ok {
		return types.ParsedTrade{}, fmt.Errorf("%s: missing direction", tradeID)
	}
	notionalCcy, notional, ok := parseCcyAmount(f["Hedge Amount"])
	if !ok {
		return types.ParsedTrade{}, fmt.Errorf("%s: missing hedge amount", tradeID)
	}
	rate, err := decimal.NewFromString(f["Hedge Rate"])
	if err != nil {
		return types.ParsedTrade{}, fmt.Errorf("%s: missing hedge rate", tradeID)
	}

	trade := types.Trade{
		TradeID:          tradeID,
		MessageID:        msg.MessageID,
		ProductType:      types.ProductForward,
		CurrencyPair:     pair,
		BuySell:          direction,
		Notional:         notional,
		NotionalCurrency: notionalCcy,
		HedgeRate:        rate,
		HedgeType:        "Forward",
	}
	if settle, err := time.Parse(emailDateLayout, f["Value Date"]); err == nil {
		trade.SettlementDate = &settle
	}
	return types.ParsedTrade{Trade: trade}, nil
}
