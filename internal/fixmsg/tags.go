// Package fixmsg parses raw FIX drop-copy payloads into tag sequences, per-leg
// groups and party/side structures. It deliberately works on the raw tag stream
// rather than a session-level FIX library: drop-copy exports arrive with SOH,
// pipe or space delimiters, and repeating-group access over a known handful of
// tags is simpler done directly.
package fixmsg

// FIX tag numbers used by the drop-copy parsers.
const (
	TagMsgType         = 35
	TagSide            = 54
	TagSymbol          = 55
	TagTransactTime    = 60
	TagTradeDate       = 75
	TagNoPartyIDs      = 453
	TagPartyID         = 448
	TagPartyRole       = 452
	TagPartySubID      = 523
	TagNoSides         = 552
	TagNoLegs          = 555
	TagLegCurrency     = 556
	TagLegPrice        = 566
	TagTradeReportID   = 571
	TagLegSymbol       = 600
	TagLegCFICode      = 608
	TagLegSecurityType = 609
	TagLegMaturityDate = 611
	TagLegStrikePrice  = 612
	TagLegSide         = 624
	TagLegRefID        = 654
	TagLegSettlCcy     = 675
	TagLegQty          = 687
	TagLegStrikeCcy    = 942
)

// Party roles relevant to counterparty and trader resolution.
const (
	RoleCustomer      = "1"
	RoleExecutingFirm = "12"
	RoleTrader        = "122"
)

// Leg side values under the FIX "as defined"/"opposite" convention.
const (
	LegSideAsDefined = "B"
	LegSideOpposite  = "C"
)

// Field is one (tag, value) pair in message order.
type Field struct {
	Tag   int
	Value string
}

// Fields is an ordered tag sequence. Duplicate tags are preserved because
// repeating groups reuse the same tag number per occurrence.
type Fields []Field

// First returns the value of the first occurrence of tag, or "".
func (f Fields) First(tag int) string {
	for _, fld := range f {
		if fld.Tag == tag {
			return fld.Value
		}
	}
	return ""
}
