package parsing

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fxops/confirmhub/internal/types"
)

func TestVolbrokerParsesOptionAndHedgeLegs(t *testing.T) {
	parser := NewVolbrokerParser(testDeps(allLookups()))

	result := parser.Parse(fixMessage(volbrokerAE))

	require.False(t, result.Failed, result.Reason)
	require.Len(t, result.Trades, 2)

	option := result.Trades[0].Trade
	assert.Equal(t, "VB445-O1", option.TradeID)
	assert.Equal(t, types.ProductOptionVanilla, option.ProductType)
	assert.Equal(t, "EURUSD", option.CurrencyPair)
	// own side is Buy and the leg is "as defined"
	assert.Equal(t, "Buy", option.BuySell)
	// raw flag is a call on the quote currency, so the base-currency view is a put
	assert.Equal(t, "Put", option.CallPut)
	assert.True(t, option.Strike.Equal(decimal.RequireFromString("1.1050")))
	assert.True(t, option.Notional.Equal(decimal.NewFromInt(10_000_000)))
	assert.Equal(t, "EUR", option.NotionalCurrency)
	assert.True(t, option.Premium.Equal(decimal.NewFromInt(125_000)))
	assert.Equal(t, "USD", option.PremiumCurrency)
	assert.Equal(t, "NY 10:00", option.ExpiryCut)
	assert.Equal(t, "E02YTESTLEG001", option.UTI)
	assert.Equal(t, "LEG001", option.TVTIC)
	assert.Equal(t, time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), option.TradeDate)
	require.NotNil(t, option.ExpiryDate)
	assert.Equal(t, time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC), *option.ExpiryDate)

	hedge := result.Trades[1].Trade
	assert.Equal(t, "VB445-H1", hedge.TradeID)
	assert.Equal(t, types.ProductForward, hedge.ProductType)
	assert.Equal(t, "Forward", hedge.HedgeType)
	// the hedge leg is "opposite", flipping the baseline direction
	assert.Equal(t, "Sell", hedge.BuySell)
	assert.True(t, hedge.HedgeRate.Equal(decimal.RequireFromString("1.0925")))
	assert.Empty(t, hedge.CallPut, "option fields must not leak onto the hedge leg")
	assert.True(t, hedge.Strike.IsZero())

	// both legs resolved the same counterparty and trader
	for _, pt := range result.Trades {
		assert.Equal(t, "CPTY001", pt.Trade.CounterpartyCode)
		assert.Equal(t, "U123", pt.Trade.TraderID)
	}
}

func TestVolbrokerLegIDsAreDistinct(t *testing.T) {
	parser := NewVolbrokerParser(testDeps(allLookups()))

	result := parser.Parse(fixMessage(volbrokerAE))

	require.False(t, result.Failed)
	seen := make(map[string]bool)
	for _, pt := range result.Trades {
		assert.False(t, seen[pt.Trade.TradeID], "duplicate trade id %s", pt.Trade.TradeID)
		seen[pt.Trade.TradeID] = true
	}
}

func TestVolbrokerLinkFanOut(t *testing.T) {
	parser := NewVolbrokerParser(testDeps(allLookups()))

	result := parser.Parse(fixMessage(volbrokerAE))

	require.False(t, result.Failed)
	var systems []types.SystemCode
	for _, link := range result.Trades[0].Links {
		assert.Equal(t, types.StatusNew, link.Status)
		systems = append(systems, link.SystemCode)
	}
	assert.ElementsMatch(t, []types.SystemCode{
		types.SystemMX3, types.SystemCalypso, types.SystemRtns, types.SystemVolbrokerStp,
	}, systems)
}

func TestVolbrokerOwnSideFallbackIsFlagged(t *testing.T) {
	// remove our party id so the own side cannot be identified
	payload := strings.ReplaceAll(volbrokerAE, "448=OURBANK", "448=OTHERBANK")
	parser := NewVolbrokerParser(testDeps(allLookups()))

	result := parser.Parse(fixMessage(payload))

	require.False(t, result.Failed)
	found := false
	for _, e := range result.Trades[0].Events {
		if e.EventType == types.EventSideFallbackUsed {
			found = true
		}
	}
	assert.True(t, found, "expected a SideFallbackUsed event")
}

func TestVolbrokerStructuralFailures(t *testing.T) {
	deps := testDeps(allLookups())

	t.Run("garbage payload", func(t *testing.T) {
		result := NewVolbrokerParser(deps).Parse(fixMessage("not a fix message at all"))
		assert.True(t, result.Failed)
	})

	t.Run("no legs", func(t *testing.T) {
		result := NewVolbrokerParser(deps).Parse(fixMessage("35=AE|571=VB1|75=20250512|552=1|54=1|448=OURBANK|452=1"))
		assert.True(t, result.Failed)
	})

	t.Run("no trader routing", func(t *testing.T) {
		lookups := allLookups()
		lookups.routing = nil
		result := NewVolbrokerParser(testDeps(lookups)).Parse(fixMessage(volbrokerAE))
		assert.True(t, result.Failed)
		assert.Contains(t, result.Reason, "trader routing")
	})

	t.Run("missing trade date", func(t *testing.T) {
		payload := strings.ReplaceAll(volbrokerAE, "75=20250512|", "")
		result := NewVolbrokerParser(deps).Parse(fixMessage(payload))
		assert.True(t, result.Failed)
	})
}

func TestVolbrokerAmbiguousStrikeCurrencyWarns(t *testing.T) {
	// strike currency matches neither side of the pair
	payload := strings.ReplaceAll(volbrokerAE, "942=USD", "942=CHF")
	parser := NewVolbrokerParser(testDeps(allLookups()))

	result := parser.Parse(fixMessage(payload))

	require.False(t, result.Failed)
	option := result.Trades[0]
	// pass-through: raw call stays a call
	assert.Equal(t, "Call", option.Trade.CallPut)
	assert.GreaterOrEqual(t, warningCount(option.Events), 1)
}
