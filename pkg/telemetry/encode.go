package telemetry

import "strconv"

// AppendCardiacLine appends one cardiac record in wire format:
// "RAW <raw> BPM <bpm> Beat <0|1>\n". Allocation-free so it can run in
// the firmware output path.
func AppendCardiacLine(dst []byte, raw uint16, bpm int, beat bool) []byte {
	dst = append(dst, "RAW "...)
	dst = strconv.AppendUint(dst, uint64(raw), 10)
	dst = append(dst, " BPM "...)
	dst = strconv.AppendInt(dst, int64(bpm), 10)
	dst = append(dst, " Beat "...)
	dst = appendFlag(dst, beat)
	return append(dst, '\n')
}

// AppendConductanceLine appends one conductance record in wire format:
// "Value2 <filtered> Value4 <signal> Contact <0|1>\n".
func AppendConductanceLine(dst []byte, filtered, signal int, contact bool) []byte {
	dst = append(dst, "Value2 "...)
	dst = strconv.AppendInt(dst, int64(filtered), 10)
	dst = append(dst, " Value4 "...)
	dst = strconv.AppendInt(dst, int64(signal), 10)
	dst = append(dst, " Contact "...)
	dst = appendFlag(dst, contact)
	return append(dst, '\n')
}

// CardiacLine returns one cardiac record line without the trailing newline.
func CardiacLine(raw uint16, bpm int, beat bool) string {
	b := AppendCardiacLine(nil, raw, bpm, beat)
	return string(b[:len(b)-1])
}

// ConductanceLine returns one conductance record line without the
// trailing newline.
func ConductanceLine(filtered, signal int, contact bool) string {
	b := AppendConductanceLine(nil, filtered, signal, contact)
	return string(b[:len(b)-1])
}

func appendFlag(dst []byte, on bool) []byte {
	if on {
		return append(dst, '1')
	}
	return append(dst, '0')
}
