package parsing

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/fxops/confirmhub/internal/currency"
	"github.com/fxops/confirmhub/internal/fixmsg"
	"github.com/fxops/confirmhub/internal/types"
)

const (
	fixDateLayout = "20060102"
	fixTimeLayout = "20060102-15:04:05"
)

// VolbrokerParser handles Volbroker FIX drop-copy trade capture reports (AE).
// A single report may carry an option leg and its forward hedge leg; each leg
// becomes its own canonical trade.
type VolbrokerParser struct {
	deps Deps
}

func NewVolbrokerParser(deps Deps) *VolbrokerParser {
	return &VolbrokerParser{deps: deps}
}

func (p *VolbrokerParser) CanParse(msg *types.MessageIn) bool {
	return msg.SourceType == types.SourceFix &&
		msg.SourceVenueCode == types.VenueVolbroker &&
		msg.FixMsgType == "AE"
}

func (p *VolbrokerParser) Parse(msg *types.MessageIn) types.ParseResult {
	logger := log.With().
		Str("parser", "volbroker").
		Str("message_id", msg.MessageID).
		Logger()

	fields := fixmsg.Lex(msg.RawPayload)
	if len(fields) == 0 {
		return types.ParseFailed("payload is not a FIX tag stream")
	}
	if mt := fields.First(fixmsg.TagMsgType); mt != "" && mt != "AE" {
		return types.ParseFailed(fmt.Sprintf("unsupported FIX message type %q", mt))
	}

	ref := fields.First(fixmsg.TagTradeReportID)
	if ref == "" {
		return types.ParseFailed("missing TradeReportID(571)")
	}
	tradeDate, err := time.Parse(fixDateLayout, fields.First(fixmsg.TagTradeDate))
	if err != nil {
		return types.ParseFailed("missing or malformed TradeDate(75)")
	}
	var execTime *time.Time
	if ts, err := time.Parse(fixTimeLayout, fields.First(fixmsg.TagTransactTime)); err == nil {
		execTime = &ts
	}

	sides := fixmsg.ExtractSides(fields, p.deps.Config.OwnPartyID)
	if !sides.Found {
		return types.ParseFailed("no side information in message")
	}

	parties := fixmsg.ExtractParties(fields)
	traderCode := fixmsg.Trader(parties)
	routing := p.deps.Lookups.GetTraderRoutingInfo(msg.SourceVenueCode, traderCode)
	if routing == nil {
		return types.ParseFailed(fmt.Sprintf("no trader routing for %q on %s", traderCode, msg.SourceVenueCode))
	}

	legs := fixmsg.GroupLegs(fields)
	if len(legs) == 0 {
		return types.ParseFailed("no legs in message")
	}

	counterpartyName := fixmsg.Counterparty(parties, p.deps.Config.OwnPartyID)

	var parsed []types.ParsedTrade
	optionCount, hedgeCount := 0, 0
	for i, leg := range legs {
		pt, err := p.buildLeg(msg, leg, legContext{
			ref:              ref,
			tradeDate:        tradeDate,
			execTime:         execTime,
			sides:            sides,
			traderID:         routing.InternalUserID,
			counterpartyName: counterpartyName,
			optionCount:      &optionCount,
			hedgeCount:       &hedgeCount,
		})
		if err != nil {
			return types.ParseFailed(fmt.Sprintf("leg %d: %v", i+1, err))
		}
		parsed = append(parsed, pt)
	}

	if sides.Fallback {
		fallback := newEvent(parsed[0].Trade.TradeID, msg.MessageID, types.EventSideFallbackUsed, "",
			"own side not identified; using first Side tag as baseline direction")
		parsed[0].Events = append(parsed[0].Events, fallback)
		logger.Warn().Str("baseline", sides.Baseline).Msg("own-side fallback used")
	}

	logger.Info().Int("legs", len(parsed)).Str("ref", ref).Msg("parsed volbroker trade capture report")
	return types.ParseOk(parsed)
}

type legContext struct {
	ref              string
	tradeDate        time.Time
	execTime         *time.Time
	sides            fixmsg.SideInfo
	traderID         string
	counterpartyName string
	optionCount      *int
	hedgeCount       *int
}

func (p *VolbrokerParser) buildLeg(msg *types.MessageIn, leg fixmsg.Fields, ctx legContext) (types.ParsedTrade, error) {
	symbol := leg.First(fixmsg.TagLegSymbol)
	ccys := strings.Split(symbol, "/")
	if len(ccys) != 2 || len(ccys[0]) != 3 || len(ccys[1]) != 3 {
		return types.ParsedTrade{}, fmt.Errorf("malformed leg symbol %q", symbol)
	}
	pair := p.deps.Convention.Pair(ccys[0], ccys[1])

	qty, err := decimal.NewFromString(leg.First(fixmsg.TagLegQty))
	if err != nil {
		return types.ParsedTrade{}, fmt.Errorf("missing or malformed LegQty(687)")
	}

	secType := strings.ToUpper(leg.First(fixmsg.TagLegSecurityType))
	isOption := secType == "OPT"
	var tradeID string
	if isOption {
		*ctx.optionCount++
		tradeID = fmt.Sprintf("%s-O%d", ctx.ref, *ctx.optionCount)
	} else {
		*ctx.hedgeCount++
		tradeID = fmt.Sprintf("%s-H%d", ctx.ref, *ctx.hedgeCount)
	}

	legRefID := leg.First(fixmsg.TagLegRefID)
	trade := types.Trade{
		TradeID:          tradeID,
		MessageID:        msg.MessageID,
		CurrencyPair:     pair,
		BuySell:          fixmsg.LegDirection(ctx.sides.Baseline, leg.First(fixmsg.TagLegSide)),
		Notional:         qty,
		NotionalCurrency: strings.ToUpper(leg.First(fixmsg.TagLegCurrency)),
		TradeDate:        ctx.tradeDate,
		ExecutionTime:    ctx.execTime,
		TraderID:         ctx.traderID,
		BrokerRef:        ctx.ref,
		UTI:              buildUTI(p.deps.Config.UTINamespace, legRefID),
		TVTIC:            legRefID,
	}
	if trade.NotionalCurrency == "" {
		trade.NotionalCurrency = currency.Base(pair)
	}

	var events []types.TradeWorkflowEvent

	if isOption {
		trade.ProductType = types.ProductOptionVanilla
		strike, err := decimal.NewFromString(leg.First(fixmsg.TagLegStrikePrice))
		if err != nil {
			return types.ParsedTrade{}, fmt.Errorf("option leg missing LegStrikePrice(612)")
		}
		trade.Strike = strike

		strikeCcy := leg.First(fixmsg.TagLegStrikeCcy)
		callPut, ambiguous := p.deps.Convention.MapCallPutToBase(leg.First(fixmsg.TagLegCFICode), pair, strikeCcy)
		trade.CallPut = callPut
		if ambiguous {
			events = append(events, warningEvent(tradeID, msg.MessageID,
				fmt.Sprintf("strike currency %q matches neither side of %s; call/put taken as-is", strikeCcy, pair)))
		}

		if expiry, err := time.Parse(fixDateLayout, leg.First(fixmsg.TagLegMaturityDate)); err == nil {
			trade.ExpiryDate = &expiry
		}
		if premium, err := decimal.NewFromString(leg.First(fixmsg.TagLegPrice)); err == nil {
			trade.Premium = premium
			trade.PremiumCurrency = strings.ToUpper(leg.First(fixmsg.TagLegSettlCcy))
		}
		trade.ExpiryCut = p.deps.Lookups.GetExpiryCutByCurrencyPair(pair)
	} else {
		trade.ProductType = types.ProductForward
		trade.HedgeType = "Forward"
		if rate, err := decimal.NewFromString(leg.First(fixmsg.TagLegPrice)); err == nil {
			trade.HedgeRate = rate
		}
		if settle, err := time.Parse(fixDateLayout, leg.First(fixmsg.TagLegMaturityDate)); err == nil {
			trade.SettlementDate = &settle
		}
	}

	code, cptyEvents := resolveCounterparty(p.deps, msg, tradeID, ctx.counterpartyName)
	trade.CounterpartyCode = code
	events = append(events, cptyEvents...)
	events = append(events, enrich(p.deps, &trade, msg.MessageID)...)
	events = append(events, newEvent(tradeID, msg.MessageID, types.EventTradeNormalized, "",
		fmt.Sprintf("%s %s %s %s", trade.ProductType, trade.BuySell, trade.Notional, pair)))

	return types.ParsedTrade{
		Trade:  trade,
		Links:  newLinks(tradeID, msg.SourceVenueCode),
		Events: events,
	}, nil
}
