package parsing

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/fxops/confirmhub/internal/types"
)

// NatWestParser handles NatWest Markets confirmation emails: HTML bodies
// carrying a two-column field table per deal (spot, forward or NDF).
type NatWestParser struct {
	deps Deps
}

func NewNatWestParser(deps Deps) *NatWestParser {
	return &NatWestParser{deps: deps}
}

func (p *NatWestParser) CanParse(msg *types.MessageIn) bool {
	return msg.SourceType == types.SourceEmail && msg.SourceVenueCode == types.VenueNatWest
}

func (p *NatWestParser) Parse(msg *types.MessageIn) types.ParseResult {
	logger := log.With().
		Str("parser", "natwest").
		Str("message_id", msg.MessageID).
		Logger()

	if strings.TrimSpace(msg.RawPayload) == "" {
		return types.ParseFailed("empty payload")
	}
	fields, err := extractHTMLFields(msg.RawPayload)
	if err != nil {
		return types.ParseFailed(fmt.Sprintf("unparseable HTML body: %v", err))
	}
	if len(fields) == 0 {
		return types.ParseFailed("no field table in HTML body")
	}

	ref := fields["Reference"]
	if ref == "" {
		return types.ParseFailed("no deal reference in field table")
	}
	tradeDate, err := time.Parse(emailDateLayout, fields["Trade Date"])
	if err != nil {
		return types.ParseFailed("missing or malformed trade date")
	}
	routing := p.deps.Lookups.GetTraderRoutingInfo(msg.SourceVenueCode, fields["Trader"])
	if routing == nil {
		return types.ParseFailed(fmt.Sprintf("no trader routing for %q on %s", fields["Trader"], msg.SourceVenueCode))
	}

	buyCcy, buyAmt, okBuy := parseCcyAmount(fields["We Buy"])
	sellCcy, sellAmt, okSell := parseCcyAmount(fields["We Sell"])
	if !okBuy || !okSell {
		return types.ParseFailed("missing bought/sold amounts")
	}
	pair, buySell, notional, notionalCcy := p.deps.Convention.NormalizeBoughtSold(buyCcy, buyAmt, sellCcy, sellAmt)

	trade := types.Trade{
		TradeID:          ref + "-1",
		MessageID:        msg.MessageID,
		CurrencyPair:     pair,
		BuySell:          buySell,
		Notional:         notional,
		NotionalCurrency: notionalCcy,
		TradeDate:        tradeDate,
		TraderID:         routing.InternalUserID,
		BrokerRef:        ref,
		UTI:              buildUTI(p.deps.Config.UTINamespace, ref+"-1"),
		TVTIC:            ref + "-1",
	}
	if d, err := time.Parse(emailDateLayout, fields["Value Date"]); err == nil {
		trade.SettlementDate = &d
	}

	switch strings.ToUpper(fields["Product"]) {
	case "FX NDF", "NDF":
		trade.ProductType = types.ProductNdf
		trade.SettlementCurrency = strings.ToUpper(fields["Settlement Currency"])
		trade.FixingSource = fields["Fixing Source"]
		if d, err := time.Parse(emailDateLayout, fields["Fixing Date"]); err == nil {
			trade.FixingDate = &d
		}
	case "FX FORWARD", "FORWARD":
		trade.ProductType = types.ProductForward
		if r, err := decimal.NewFromString(fields["Rate"]); err == nil {
			trade.HedgeRate = r
		}
	case "FX SPOT", "SPOT":
		trade.ProductType = types.ProductSpot
	default:
		return types.ParseFailed(fmt.Sprintf("unsupported product %q", fields["Product"]))
	}

	var events []types.TradeWorkflowEvent
	code, cptyEvents := resolveCounterparty(p.deps, msg, trade.TradeID, fields["Counterparty"])
	trade.CounterpartyCode = code
	events = append(events, cptyEvents...)
	events = append(events, enrich(p.deps, &trade, msg.MessageID)...)
	events = append(events, newEvent(trade.TradeID, msg.MessageID, types.EventTradeNormalized, "",
		fmt.Sprintf("%s %s %s %s", trade.ProductType, trade.BuySell, trade.Notional, trade.CurrencyPair)))

	logger.Info().Str("ref", ref).Str("product", string(trade.ProductType)).Msg("parsed natwest confirmation")
	return types.ParseOk([]types.ParsedTrade{{
		Trade:  trade,
		Links:  newLinks(trade.TradeID, msg.SourceVenueCode),
		Events: events,
	}})
}

// extractHTMLFields walks the HTML body and collects every two-cell table row
// as a field name/value pair.
func extractHTMLFields(body string) (map[string]string, error) {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}

	fields := make(map[string]string)
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			cells := rowCells(n)
			if len(cells) == 2 {
				fields[cells[0]] = cells[1]
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return fields, nil
}

func rowCells(tr *html.Node) []string {
	var cells []string
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
			cells = append(cells, strings.TrimSpace(nodeText(c)))
		}
	}
	return cells
}

func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}
