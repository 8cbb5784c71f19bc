package billing

import "time"

// Overnight is added to an end instant that does not fall after its start.
const Overnight = 24 * time.Hour

// Resolution converts a configured number of minutes into a rounding resolution.
func Resolution(minutes int) time.Duration {
	if minutes <= 0 {
		return 0
	}
	return time.Duration(minutes) * time.Minute
}

// Round rounds t to the nearest multiple of resolution counted from local
// midnight. Ties go to the later instant. A non-positive resolution returns t.
func Round(t time.Time, resolution time.Duration) time.Time {
	if resolution <= 0 {
		return t
	}

	year, month, day := t.Date()
	midnight := time.Date(year, month, day, 0, 0, 0, 0, t.Location())
	sinceMidnight := t.Sub(midnight)

	down := midnight.Add(sinceMidnight - sinceMidnight%resolution)
	up := down.Add(resolution)
	if up.Sub(t) <= t.Sub(down) {
		return up
	}
	return down
}

// RoundSpan rounds both ends of a recorded span. An end that is not after the
// start is taken to be on the next day.
func RoundSpan(start, end time.Time, resolution time.Duration) (time.Time, time.Time) {
	start = Round(start, resolution)
	end = Round(end, resolution)
	if !end.After(start) {
		end = end.Add(Overnight)
	}
	return start, end
}
