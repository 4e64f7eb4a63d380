package telemetry

import (
	"strconv"
	"strings"
	"time"
)

// ParseLine decodes one telemetry line into a Record stamped with ts.
// Tokens are whitespace-separated key/value pairs; keys are matched
// case-insensitively and in any order. Unknown keys and malformed values
// are skipped without failing the line. A line with no recognized field
// yields ok=false and must be treated as a no-op.
func ParseLine(line string, ts time.Time) (Record, bool) {
	rec := Record{Timestamp: ts}
	ok := false

	tokens := strings.Fields(line)
	for i := 0; i+1 < len(tokens); i++ {
		var dst *Field
		switch strings.ToUpper(tokens[i]) {
		case "RAW":
			dst = &rec.Raw
		case "BPM":
			dst = &rec.BPM
		case "BEAT":
			dst = &rec.Beat
		case "VALUE2":
			dst = &rec.Filtered
		case "VALUE4":
			dst = &rec.Signal
		case "CONTACT":
			dst = &rec.Contact
		default:
			continue
		}

		v, err := strconv.Atoi(tokens[i+1])
		if err != nil {
			continue
		}
		dst.Value = v
		dst.Valid = true
		ok = true
		i++ // value consumed
	}

	return rec, ok
}
