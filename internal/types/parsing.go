package types

// ParsedTrade bundles one canonical trade with the system links and workflow
// events that should be persisted alongside it.
type ParsedTrade struct {
	Trade  Trade
	Links  []TradeSystemLink
	Events []TradeWorkflowEvent
}

// ParseResult is the transient outcome of one parser invocation. It is either
// a structural failure with a reason, or zero or more parsed trades; it is
// consumed by the orchestrator and never persisted.
type ParseResult struct {
	Failed bool
	Reason string
	Trades []ParsedTrade
}

// ParseFailed builds a structural-failure result.
func ParseFailed(reason string) ParseResult {
	return ParseResult{Failed: true, Reason: reason}
}

// ParseOk builds a successful result.
func ParseOk(trades []ParsedTrade) ParseResult {
	return ParseResult{Trades: trades}
}
