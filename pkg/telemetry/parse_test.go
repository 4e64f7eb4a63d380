package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLine_CardiacLine(t *testing.T) {
	ts := time.Now()
	rec, ok := ParseLine("RAW 612 BPM 72 Beat 1", ts)

	require.True(t, ok)
	assert.Equal(t, ts, rec.Timestamp)
	assert.Equal(t, Field{Value: 612, Valid: true}, rec.Raw)
	assert.Equal(t, Field{Value: 72, Valid: true}, rec.BPM)
	assert.Equal(t, Field{Value: 1, Valid: true}, rec.Beat)
	assert.False(t, rec.Filtered.Valid)
	assert.False(t, rec.Signal.Valid)
	assert.False(t, rec.Contact.Valid)
	assert.True(t, rec.HasCardiac())
	assert.False(t, rec.HasConductance())
}

func TestParseLine_ConductanceLine(t *testing.T) {
	rec, ok := ParseLine("Value2 235 Value4 -3 Contact 0", time.Now())

	require.True(t, ok)
	assert.Equal(t, Field{Value: 235, Valid: true}, rec.Filtered)
	assert.Equal(t, Field{Value: -3, Valid: true}, rec.Signal)
	assert.Equal(t, Field{Value: 0, Valid: true}, rec.Contact)
	assert.False(t, rec.Raw.Valid)
	assert.False(t, rec.BPM.Valid)
	assert.False(t, rec.Beat.Valid)
	assert.False(t, rec.HasCardiac())
	assert.True(t, rec.HasConductance())
}

func TestParseLine_Tolerance(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
		raw  Field
		bpm  Field
	}{
		{
			name: "unknown token ignored",
			line: "RAW 600 FOO bar",
			ok:   true,
			raw:  Field{Value: 600, Valid: true},
		},
		{
			name: "case insensitive keys",
			line: "raw 10 bpm 20",
			ok:   true,
			raw:  Field{Value: 10, Valid: true},
			bpm:  Field{Value: 20, Valid: true},
		},
		{
			name: "malformed value skipped",
			line: "RAW abc BPM 72",
			ok:   true,
			bpm:  Field{Value: 72, Valid: true},
		},
		{
			name: "trailing whitespace tolerated",
			line: "RAW 612 BPM 72 Beat 1   ",
			ok:   true,
			raw:  Field{Value: 612, Valid: true},
			bpm:  Field{Value: 72, Valid: true},
		},
		{
			name: "key without value is a no-op",
			line: "RAW",
			ok:   false,
		},
		{
			name: "empty line is a no-op",
			line: "",
			ok:   false,
		},
		{
			name: "no recognized tokens",
			line: "FOO bar BAZ 42",
			ok:   false,
		},
		{
			name: "truncated line keeps leading fields",
			line: "RAW 612 BP",
			ok:   true,
			raw:  Field{Value: 612, Valid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := ParseLine(tt.line, time.Now())
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.raw, rec.Raw)
			assert.Equal(t, tt.bpm, rec.BPM)
		})
	}
}

func TestCardiacLine_Format(t *testing.T) {
	assert.Equal(t, "RAW 612 BPM 72 Beat 1", CardiacLine(612, 72, true))
	assert.Equal(t, "RAW 0 BPM 0 Beat 0", CardiacLine(0, 0, false))
}

func TestConductanceLine_Format(t *testing.T) {
	assert.Equal(t, "Value2 235 Value4 -3 Contact 0", ConductanceLine(235, -3, false))
	assert.Equal(t, "Value2 512 Value4 14 Contact 1", ConductanceLine(512, 14, true))
}

func TestAppendCardiacLine_Terminated(t *testing.T) {
	buf := make([]byte, 0, 48)
	line := AppendCardiacLine(buf, 1023, 200, true)

	assert.Equal(t, "RAW 1023 BPM 200 Beat 1\n", string(line))
}

func TestEncode_RoundTrip(t *testing.T) {
	ts := time.Now()

	rec, ok := ParseLine(CardiacLine(512, 64, false), ts)
	require.True(t, ok)
	assert.Equal(t, 512, rec.Raw.Value)
	assert.Equal(t, 64, rec.BPM.Value)
	assert.Equal(t, 0, rec.Beat.Value)

	rec, ok = ParseLine(ConductanceLine(300, -12, true), ts)
	require.True(t, ok)
	assert.Equal(t, 300, rec.Filtered.Value)
	assert.Equal(t, -12, rec.Signal.Value)
	assert.Equal(t, 1, rec.Contact.Value)
}
