package parsing

import (
	"github.com/fxops/confirmhub/internal/currency"
	"github.com/fxops/confirmhub/internal/refdata"
	"github.com/fxops/confirmhub/internal/types"
)

// fakeLookups is a fully-populated reference-data stub; tests blank out
// individual fields to simulate lookup misses.
type fakeLookups struct {
	counterparty string
	routing      *refdata.TraderRouting
	mx3Portfolio string
	calypsoBook  string
	expiryCut    string
	broker       string
}

func allLookups() *fakeLookups {
	return &fakeLookups{
		counterparty: "CPTY001",
		routing:      &refdata.TraderRouting{InternalUserID: "U123", InvID: "INV9", ReportingEntityID: "RE1"},
		mx3Portfolio: "FXO-LDN",
		calypsoBook:  "LDN-FX-1",
		expiryCut:    "NY 10:00",
		broker:       "TPL",
	}
}

func (f *fakeLookups) ResolveCounterpartyCode(types.SourceType, string, string) string {
	return f.counterparty
}

func (f *fakeLookups) GetTraderRoutingInfo(string, string) *refdata.TraderRouting {
	return f.routing
}

func (f *fakeLookups) GetPortfolioCode(types.SystemCode, string, types.ProductType) string {
	return f.mx3Portfolio
}

func (f *fakeLookups) GetCalypsoBookByTraderID(string) string {
	return f.calypsoBook
}

func (f *fakeLookups) GetExpiryCutByCurrencyPair(string) string {
	return f.expiryCut
}

func (f *fakeLookups) GetBrokerMapping(string, string) string {
	return f.broker
}

func testDeps(lookups refdata.Lookups) Deps {
	return Deps{
		Lookups:    lookups,
		Convention: currency.Default(),
		Config: Config{
			OwnPartyID:   "OURBANK",
			UTINamespace: "E02YTEST",
		},
	}
}

const volbrokerAE = "8=FIX.4.4|35=AE|571=VB445|75=20250512|60=20250512-14:03:22|" +
	"555=2|600=EUR/USD|609=OPT|687=10000000|556=EUR|624=B|612=1.1050|942=USD|608=OC|611=20250812|566=125000|675=USD|654=LEG001|" +
	"600=EUR/USD|609=FWD|687=5000000|556=EUR|624=C|566=1.0925|611=20250814|654=LEG002|" +
	"552=2|54=1|453=2|448=OURBANK|452=1|523=JSM|448=VOLBROKER|452=16|54=2|453=2|448=BANKABC|452=1|448=TRD9|452=122|523=PWL"

const tullettEmail = `TP ICAP FX OPTIONS CONFIRMATION

Deal Ref: TP445821
Trade Date: 12 May 2025
Trader: JSMITH
Counterparty: BANK ABC LONDON
Broker: TP LONDON

Option 1
Direction: We Buy
Currency Pair: EUR/USD
Call/Put: EUR Call
Notional: EUR 10,000,000
Strike: 1.1050
Expiry Date: 12 Aug 2025
Cut: NY 10:00
Premium: USD 125,000

Option 2
Direction: We Sell
Currency Pair: EUR/USD
Call/Put: EUR Put
Notional: EUR 10,000,000
Strike: 1.0850
Expiry Date: 12 Aug 2025
Cut: NY 10:00
Premium: USD 98,500

Confirmation of Hedge Details
Direction: We Sell
Currency Pair: EUR/USD
Hedge Amount: EUR 12,000,000
Hedge Rate: 1.0925
Value Date: 14 Aug 2025
`

const barclaysForwardEmail = `BARX FX CONFIRMATION

Our Ref: BX99123
Trade Date: 14 May 2025
Trader: MJONES
Counterparty: ACME FUND LP

We buy EUR 5,000,000.00 against USD 5,425,000.00 at 1.0850
Value Date: 18 Aug 2025
`

const barclaysSwapEmail = `BARX FX CONFIRMATION

Our Ref: BX77045
Trade Date: 14 May 2025
Trader: MJONES
Counterparty: ACME FUND LP
Product: Swap

Near Leg: We sell EUR 5,000,000.00 against USD 5,425,000.00 at 1.0850
Near Value Date: 16 May 2025
Far Leg: We buy EUR 5,000,000.00 against USD 5,432,500.00 at 1.0865
Far Value Date: 16 Jun 2025
Swap Points: 15
`

const barclaysNdfEmail = `BARX FX CONFIRMATION

Our Ref: BX55200
Trade Date: 14 May 2025
Trader: MJONES
Counterparty: ACME FUND LP
Product: NDF

We buy USD 3,000,000.00 against INR 250,500,000.00 at 83.5000
Value Date: 18 Jun 2025
Fixing Date: 16 Jun 2025
Fixing Source: RBIB
Settlement Currency: USD
`

const natwestForwardEmail = `<html><body>
<p>NatWest Markets FX Confirmation</p>
<table>
<tr><td>Reference</td><td>NW35771</td></tr>
<tr><td>Product</td><td>FX Forward</td></tr>
<tr><td>Trade Date</td><td>14 May 2025</td></tr>
<tr><td>Value Date</td><td>14 Aug 2025</td></tr>
<tr><td>Trader</td><td>PWILLIAMS</td></tr>
<tr><td>Counterparty</td><td>ACME FUND LP</td></tr>
<tr><td>We Buy</td><td>GBP 2,500,000.00</td></tr>
<tr><td>We Sell</td><td>USD 3,175,000.00</td></tr>
<tr><td>Rate</td><td>1.2700</td></tr>
</table>
</body></html>
`

func emailMessage(venue, payload string) *types.MessageIn {
	return &types.MessageIn{
		MessageID:       "msg-" + venue,
		SourceType:      types.SourceEmail,
		SourceVenueCode: venue,
		RawPayload:      payload,
	}
}

func fixMessage(payload string) *types.MessageIn {
	return &types.MessageIn{
		MessageID:       "msg-volbroker",
		SourceType:      types.SourceFix,
		SourceVenueCode: types.VenueVolbroker,
		FixMsgType:      "AE",
		RawPayload:      payload,
	}
}

func warningCount(events []types.TradeWorkflowEvent) int {
	n := 0
	for _, e := range events {
		if e.EventType == types.EventWarning {
			n++
		}
	}
	return n
}
