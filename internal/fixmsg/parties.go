package fixmsg

// Party is one entry of the PARTIES repeating group. Role and SubID attach to
// the most recently opened PartyID.
type Party struct {
	ID    string
	Role  string
	SubID string
}

// SideInfo carries the firm's baseline direction for a message. When no side
// could be tied to the firm's own party the first Side tag in the message is
// used instead and Fallback is set; callers must surface that, since a wrong
// fallback flips every buy/sell in the message.
type SideInfo struct {
	Baseline string
	Found    bool
	Fallback bool
}

type side struct {
	value   string
	parties []Party
}

// ExtractSides walks the SIDES repeating group and determines the baseline
// direction: the Side value of the side block that contains the firm's own
// party id with role Customer.
func ExtractSides(fields Fields, ownPartyID string) SideInfo {
	var sides []side
	cur := -1
	inSides := false
	for _, f := range fields {
		switch f.Tag {
		case TagNoSides:
			inSides = true
		case TagSide:
			if inSides {
				sides = append(sides, side{value: f.Value})
				cur = len(sides) - 1
			}
		case TagPartyID:
			if cur >= 0 {
				sides[cur].parties = append(sides[cur].parties, Party{ID: f.Value})
			}
		case TagPartyRole:
			if cur >= 0 && len(sides[cur].parties) > 0 {
				sides[cur].parties[len(sides[cur].parties)-1].Role = f.Value
			}
		}
	}

	for _, s := range sides {
		for _, p := range s.parties {
			if p.ID == ownPartyID && p.Role == RoleCustomer {
				return SideInfo{Baseline: s.value, Found: true}
			}
		}
	}
	if len(sides) > 0 {
		return SideInfo{Baseline: sides[0].value, Found: true, Fallback: true}
	}
	return SideInfo{}
}

// LegDirection resolves a per-leg side code against the baseline: "as defined"
// keeps the baseline direction, "opposite" flips it. Baseline values follow
// FIX tag 54 ("1" buy, "2" sell).
func LegDirection(baseline, legSide string) string {
	buy := baseline == "1"
	if legSide == LegSideOpposite {
		buy = !buy
	}
	if buy {
		return "Buy"
	}
	return "Sell"
}

// ExtractParties collects the PARTIES repeating group in message order.
func ExtractParties(fields Fields) []Party {
	var parties []Party
	for _, f := range fields {
		switch f.Tag {
		case TagPartyID:
			parties = append(parties, Party{ID: f.Value})
		case TagPartyRole:
			if len(parties) > 0 {
				parties[len(parties)-1].Role = f.Value
			}
		case TagPartySubID:
			if len(parties) > 0 {
				parties[len(parties)-1].SubID = f.Value
			}
		}
	}
	return parties
}

// Counterparty resolves the counterparty id: the last Customer party that is
// not the firm itself, falling back to the last ExecutingFirm party.
func Counterparty(parties []Party, ownPartyID string) string {
	result := ""
	for _, p := range parties {
		if p.Role == RoleCustomer && p.ID != ownPartyID {
			result = p.ID
		}
	}
	if result != "" {
		return result
	}
	for _, p := range parties {
		if p.Role == RoleExecutingFirm {
			result = p.ID
		}
	}
	return result
}

// Trader resolves the trader identity: the party with role Trader, preferring
// its sub-id (trader short code) over the party id.
func Trader(parties []Party) string {
	for _, p := range parties {
		if p.Role == RoleTrader {
			if p.SubID != "" {
				return p.SubID
			}
			return p.ID
		}
	}
	return ""
}
