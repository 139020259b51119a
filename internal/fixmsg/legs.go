package fixmsg

// GroupLegs partitions the tag sequence into per-leg sub-sequences. A
// LegSymbol tag opens a new group; accumulation stops for good once the
// NoSides tag is seen, because the header/party/side section follows the legs.
// A leg group that never accumulated a tag after its start marker is dropped.
func GroupLegs(fields Fields) []Fields {
	var legs []Fields
	var current Fields
	inLeg := false

	flush := func() {
		// the group must carry at least one tag beyond its start marker
		if inLeg && len(current) > 1 {
			legs = append(legs, current)
		}
		current = nil
	}

	for _, f := range fields {
		switch {
		case f.Tag == TagNoSides:
			flush()
			return legs
		case f.Tag == TagLegSymbol:
			flush()
			inLeg = true
			current = Fields{f}
		case inLeg:
			current = append(current, f)
		}
	}
	flush()
	return legs
}
