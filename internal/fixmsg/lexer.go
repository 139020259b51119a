package fixmsg

import (
	"strconv"
	"strings"
)

const soh = "\x01"

// Lex splits a raw FIX payload into an ordered tag sequence. The delimiter is
// probed in order: SOH, then pipe, then whitespace. Fields with a non-numeric
// tag or an empty value are dropped. An unparseable payload yields an empty
// sequence; callers must treat that as a hard parse failure.
func Lex(raw string) Fields {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var parts []string
	switch {
	case strings.Contains(raw, soh):
		parts = strings.Split(raw, soh)
	case strings.Contains(raw, "|"):
		parts = strings.Split(raw, "|")
	default:
		parts = strings.Fields(raw)
	}

	fields := make(Fields, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		eq := strings.Index(part, "=")
		if eq <= 0 {
			continue
		}
		tag, err := strconv.Atoi(part[:eq])
		if err != nil {
			continue
		}
		value := part[eq+1:]
		if value == "" {
			continue
		}
		fields = append(fields, Field{Tag: tag, Value: value})
	}
	return fields
}
