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

func TestTullettParsesOptionsAndHedge(t *testing.T) {
	parser := NewTullettParser(testDeps(allLookups()))

	result := parser.Parse(emailMessage(types.VenueTullett, tullettEmail))

	require.False(t, result.Failed, result.Reason)
	require.Len(t, result.Trades, 3)

	o1 := result.Trades[0].Trade
	assert.Equal(t, "TP445821-O1", o1.TradeID)
	assert.Equal(t, types.ProductOptionVanilla, o1.ProductType)
	assert.Equal(t, "EURUSD", o1.CurrencyPair)
	assert.Equal(t, "Buy", o1.BuySell)
	assert.Equal(t, "Call", o1.CallPut)
	assert.True(t, o1.Strike.Equal(decimal.RequireFromString("1.1050")))
	assert.True(t, o1.Notional.Equal(decimal.NewFromInt(10_000_000)))
	assert.Equal(t, "EUR", o1.NotionalCurrency)
	assert.True(t, o1.Premium.Equal(decimal.NewFromInt(125_000)))
	assert.Equal(t, "USD", o1.PremiumCurrency)
	// cut comes from the email itself, not the reference-data fallback
	assert.Equal(t, "NY 10:00", o1.ExpiryCut)
	assert.Equal(t, time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC), o1.TradeDate)
	require.NotNil(t, o1.ExpiryDate)
	assert.Equal(t, time.Date(2025, 8, 12, 0, 0, 0, 0, time.UTC), *o1.ExpiryDate)

	o2 := result.Trades[1].Trade
	assert.Equal(t, "TP445821-O2", o2.TradeID)
	assert.Equal(t, "Sell", o2.BuySell)
	assert.Equal(t, "Put", o2.CallPut)
	assert.True(t, o2.Strike.Equal(decimal.RequireFromString("1.0850")))

	h1 := result.Trades[2].Trade
	assert.Equal(t, "TP445821-H1", h1.TradeID)
	assert.Equal(t, types.ProductForward, h1.ProductType)
	assert.Equal(t, "Forward", h1.HedgeType)
	assert.Equal(t, "Sell", h1.BuySell)
	assert.True(t, h1.Notional.Equal(decimal.NewFromInt(12_000_000)))
	assert.True(t, h1.HedgeRate.Equal(decimal.RequireFromString("1.0925")))
	require.NotNil(t, h1.SettlementDate)
	assert.Equal(t, time.Date(2025, 8, 14, 0, 0, 0, 0, time.UTC), *h1.SettlementDate)

	for _, pt := range result.Trades {
		assert.Equal(t, "CPTY001", pt.Trade.CounterpartyCode)
		assert.Equal(t, "U123", pt.Trade.TraderID)
		assert.Equal(t, "TPL", pt.Trade.BrokerCode)
		assert.Equal(t, "TP445821", pt.Trade.BrokerRef)
		assert.Equal(t, "E02YTEST"+pt.Trade.TradeID, pt.Trade.UTI)
		assert.Zero(t, warningCount(pt.Events))
	}
}

func TestTullettPortfolioMissDegradesToWarning(t *testing.T) {
	lookups := allLookups()
	lookups.mx3Portfolio = ""
	parser := NewTullettParser(testDeps(lookups))

	result := parser.Parse(emailMessage(types.VenueTullett, tullettEmail))

	require.False(t, result.Failed, "a lookup miss must not fail the parse")
	for _, pt := range result.Trades {
		assert.Equal(t, SentinelPortfolio, pt.Trade.MX3Portfolio)
		assert.Equal(t, "LDN-FX-1", pt.Trade.CalypsoBook)
		require.Equal(t, 1, warningCount(pt.Events))
		for _, e := range pt.Events {
			if e.EventType == types.EventWarning {
				assert.Contains(t, e.Details, "EURUSD")
			}
		}
	}
}

func TestTullettBrokerMappingMissWarnsPerTrade(t *testing.T) {
	lookups := allLookups()
	lookups.broker = ""
	parser := NewTullettParser(testDeps(lookups))

	result := parser.Parse(emailMessage(types.VenueTullett, tullettEmail))

	require.False(t, result.Failed)
	for _, pt := range result.Trades {
		assert.Empty(t, pt.Trade.BrokerCode)
		assert.Equal(t, 1, warningCount(pt.Events))
	}
}

func TestTullettStructuralFailures(t *testing.T) {
	deps := testDeps(allLookups())

	t.Run("empty payload", func(t *testing.T) {
		result := NewTullettParser(deps).Parse(emailMessage(types.VenueTullett, "  \n"))
		assert.True(t, result.Failed)
	})

	t.Run("no deal reference", func(t *testing.T) {
		payload := strings.Replace(tullettEmail, "Deal Ref: TP445821\n", "", 1)
		result := NewTullettParser(deps).Parse(emailMessage(types.VenueTullett, payload))
		assert.True(t, result.Failed)
		assert.Contains(t, result.Reason, "deal reference")
	})

	t.Run("malformed trade date", func(t *testing.T) {
		payload := strings.Replace(tullettEmail, "12 May 2025", "2025-05-12", 1)
		result := NewTullettParser(deps).Parse(emailMessage(types.VenueTullett, payload))
		assert.True(t, result.Failed)
	})

	t.Run("no sections", func(t *testing.T) {
		header := tullettEmail[:strings.Index(tullettEmail, "Option 1")]
		result := NewTullettParser(deps).Parse(emailMessage(types.VenueTullett, header))
		assert.True(t, result.Failed)
		assert.Contains(t, result.Reason, "section")
	})

	t.Run("option without strike", func(t *testing.T) {
		payload := strings.Replace(tullettEmail, "Strike: 1.1050\n", "", 1)
		result := NewTullettParser(deps).Parse(emailMessage(types.VenueTullett, payload))
		assert.True(t, result.Failed)
	})

	t.Run("no trader routing", func(t *testing.T) {
		lookups := allLookups()
		lookups.routing = nil
		result := NewTullettParser(testDeps(lookups)).Parse(emailMessage(types.VenueTullett, tullettEmail))
		assert.True(t, result.Failed)
	})
}
