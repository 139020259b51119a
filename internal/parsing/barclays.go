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

var dealtLineRe = regexp.MustCompile(
	`We (buy|sell)\s+([A-Z]{3})\s+([\d,]+(?:\.\d+)?)\s+against\s+([A-Z]{3})\s+([\d,]+(?:\.\d+)?)(?:\s+at\s+([\d.]+))?`)

// BarclaysParser handles Barclays BARX confirmation emails: plain text
// covering spot, forward, NDF and swap deals. Swaps produce one canonical
// trade per leg.
type BarclaysParser struct {
	deps Deps
}

func NewBarclaysParser(deps Deps) *BarclaysParser {
	return &BarclaysParser{deps: deps}
}

func (p *BarclaysParser) CanParse(msg *types.MessageIn) bool {
	return msg.SourceType == types.SourceEmail && msg.SourceVenueCode == types.VenueBarclays
}

func (p *BarclaysParser) Parse(msg *types.MessageIn) types.ParseResult {
	logger := log.With().
		Str("parser", "barclays").
		Str("message_id", msg.MessageID).
		Logger()

	body := strings.ReplaceAll(msg.RawPayload, "\r\n", "\n")
	if strings.TrimSpace(body) == "" {
		return types.ParseFailed("empty payload")
	}
	fields := parseFieldLines(body)

	ref := fields["Our Ref"]
	if ref == "" {
		return types.ParseFailed("no deal reference in header")
	}
	tradeDate, err := time.Parse(emailDateLayout, fields["Trade Date"])
	if err != nil {
		return types.ParseFailed("missing or malformed trade date")
	}
	routing := p.deps.Lookups.GetTraderRoutingInfo(msg.SourceVenueCode, fields["Trader"])
	if routing == nil {
		return types.ParseFailed(fmt.Sprintf("no trader routing for %q on %s", fields["Trader"], msg.SourceVenueCode))
	}

	product := strings.ToUpper(fields["Product"])
	var parsed []types.ParsedTrade
	if product == "SWAP" {
		parsed, err = p.buildSwapLegs(msg, body, fields, ref)
	} else {
		parsed, err = p.buildSingleLeg(msg, body, fields, ref, product, tradeDate)
	}
	if err != nil {
		return types.ParseFailed(err.Error())
	}

	for i := range parsed {
		pt := &parsed[i]
		pt.Trade.TradeDate = tradeDate
		pt.Trade.TraderID = routing.InternalUserID
		pt.Trade.BrokerRef = ref
		pt.Trade.UTI = buildUTI(p.deps.Config.UTINamespace, pt.Trade.TradeID)
		pt.Trade.TVTIC = pt.Trade.TradeID

		code, cptyEvents := resolveCounterparty(p.deps, msg, pt.Trade.TradeID, fields["Counterparty"])
		pt.Trade.CounterpartyCode = code
		pt.Events = append(pt.Events, cptyEvents...)
		pt.Events = append(pt.Events, enrich(p.deps, &pt.Trade, msg.MessageID)...)
		pt.Events = append(pt.Events, newEvent(pt.Trade.TradeID, msg.MessageID, types.EventTradeNormalized, "",
			fmt.Sprintf("%s %s %s %s", pt.Trade.ProductType, pt.Trade.BuySell, pt.Trade.Notional, pt.Trade.CurrencyPair)))
		pt.Links = newLinks(pt.Trade.TradeID, msg.SourceVenueCode)
	}

	logger.Info().Int("legs", len(parsed)).Str("ref", ref).Msg("parsed barclays confirmation")
	return types.ParseOk(parsed)
}

// dealtLeg is one "We buy/sell X against Y at R" line.
type dealtLeg struct {
	buySell  string
	pair     string
	notional decimal.Decimal
	ccy      string
	rate     decimal.Decimal
	hasRate  bool
}

func (p *BarclaysParser) parseDealtLine(m []string) (dealtLeg, error) {
	boughtCcy, soldCcy := m[2], m[4]
	boughtAmt, err1 := decimal.NewFromString(strings.ReplaceAll(m[3], ",", ""))
	soldAmt, err2 := decimal.NewFromString(strings.ReplaceAll(m[5], ",", ""))
	if err1 != nil || err2 != nil {
		return dealtLeg{}, fmt.Errorf("malformed amounts in dealt line")
	}
	if m[1] == "sell" {
		boughtCcy, soldCcy = soldCcy, boughtCcy
		boughtAmt, soldAmt = soldAmt, boughtAmt
	}

	pair, buySell, notional, ccy := p.deps.Convention.NormalizeBoughtSold(boughtCcy, boughtAmt, soldCcy, soldAmt)
	leg := dealtLeg{buySell: buySell, pair: pair, notional: notional, ccy: ccy}
	if m[6] != "" {
		if rate, err := decimal.NewFromString(m[6]); err == nil {
			leg.rate = rate
			leg.hasRate = true
		}
	}
	return leg, nil
}

func (p *BarclaysParser) buildSingleLeg(msg *types.MessageIn, body string, fields map[string]string, ref, product string, tradeDate time.Time) ([]types.ParsedTrade, error) {
	m := dealtLineRe.FindStringSubmatch(body)
	if m == nil {
		return nil, fmt.Errorf("no dealt amounts found")
	}
	leg, err := p.parseDealtLine(m)
	if err != nil {
		return nil, err
	}

	trade := types.Trade{
		TradeID:          ref + "-1",
		MessageID:        msg.MessageID,
		CurrencyPair:     leg.pair,
		BuySell:          leg.buySell,
		Notional:         leg.notional,
		NotionalCurrency: leg.ccy,
	}

	var settle *time.Time
	if d, err := time.Parse(emailDateLayout, fields["Value Date"]); err == nil {
		settle = &d
	}
	trade.SettlementDate = settle

	switch product {
	case "NDF":
		trade.ProductType = types.ProductNdf
		trade.SettlementCurrency = strings.ToUpper(fields["Settlement Currency"])
		trade.FixingSource = fields["Fixing Source"]
		if d, err := time.Parse(emailDateLayout, fields["Fixing Date"]); err == nil {
			trade.FixingDate = &d
		}
	case "FORWARD", "FWD":
		trade.ProductType = types.ProductForward
		if leg.hasRate {
			trade.HedgeRate = leg.rate
		}
	case "SPOT":
		trade.ProductType = types.ProductSpot
	default:
		// no explicit product: spot settles within the spot window,
		// anything later is a forward
		if settle != nil && settle.After(tradeDate.AddDate(0, 0, 3)) {
			trade.ProductType = types.ProductForward
			if leg.hasRate {
				trade.HedgeRate = leg.rate
			}
		} else {
			trade.ProductType = types.ProductSpot
		}
	}

	return []types.ParsedTrade{{Trade: trade}}, nil
}

func (p *BarclaysParser) buildSwapLegs(msg *types.MessageIn, body string, fields map[string]string, ref string) ([]types.ParsedTrade, error) {
	matches := dealtLineRe.FindAllStringSubmatch(body, -1)
	if len(matches) != 2 {
		return nil, fmt.Errorf("swap requires a near and a far dealt line, found %d", len(matches))
	}

	near, err := p.parseDealtLine(matches[0])
	if err != nil {
		return nil, fmt.Errorf("near leg: %w", err)
	}
	far, err := p.parseDealtLine(matches[1])
	if err != nil {
		return nil, fmt.Errorf("far leg: %w", err)
	}

	nearTrade := types.Trade{
		TradeID:          ref + "-N1",
		MessageID:        msg.MessageID,
		ProductType:      types.ProductSwap,
		CurrencyPair:     near.pair,
		BuySell:          near.buySell,
		Notional:         near.notional,
		NotionalCurrency: near.ccy,
		HedgeRate:        near.rate,
	}
	if d, err := time.Parse(emailDateLayout, fields["Near Value Date"]); err == nil {
		nearTrade.SettlementDate = &d
	}

	farTrade := types.Trade{
		TradeID:          ref + "-F1",
		MessageID:        msg.MessageID,
		ProductType:      types.ProductSwap,
		CurrencyPair:     far.pair,
		BuySell:          far.buySell,
		Notional:         far.notional,
		NotionalCurrency: far.ccy,
		HedgeRate:        far.rate,
	}
	if d, err := time.Parse(emailDateLayout, fields["Far Value Date"]); err == nil {
		farTrade.SettlementDate = &d
	}
	if pts, err := decimal.NewFromString(fields["Swap Points"]); err == nil {
		farTrade.SwapPoints = pts
	}

	return []types.ParsedTrade{{Trade: nearTrade}, {Trade: farTrade}}, nil
}
