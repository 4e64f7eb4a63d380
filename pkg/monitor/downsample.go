package monitor

// DownsampleTrace downsamples a waveform trace to a maximum number of
// points using simple decimation, for display.
// Destination-based: reuses dst if it has sufficient capacity, otherwise
// allocates new. Returns the destination slice.
// Beat-flagged points are kept in preference to their neighbors so beat
// marks survive decimation.
func DownsampleTrace(dst []TracePoint, trace []TracePoint, maxPoints int) []TracePoint {
	if len(trace) <= maxPoints {
		if cap(dst) >= len(trace) {
			dst = dst[:len(trace)]
			copy(dst, trace)
			return dst
		}
		result := make([]TracePoint, len(trace))
		copy(result, trace)
		return result
	}

	if cap(dst) >= maxPoints {
		dst = dst[:0]
	} else {
		dst = make([]TracePoint, 0, maxPoints)
	}

	step := float64(len(trace)) / float64(maxPoints)

	prev := 0
	for i := 0; i < maxPoints; i++ {
		idx := int(float64(i) * step)
		if idx >= len(trace) {
			break
		}
		pick := trace[idx]
		// Prefer a beat-flagged point from the skipped span, if any.
		for j := prev; j < idx; j++ {
			if trace[j].Beat {
				pick = trace[j]
				break
			}
		}
		dst = append(dst, pick)
		prev = idx + 1
	}

	return dst
}
