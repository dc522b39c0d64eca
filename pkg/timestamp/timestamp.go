// Package timestamp provides standardized timestamp handling utilities.
//
// Internally timestamps are int64 milliseconds since the Unix epoch (UTC);
// a value of 0 means "not set". Stream events display wall-clock times in
// the HH:MM:SS.mmm form expected by the viewer frontend.
package timestamp

import "time"

// ClockLayout is the display layout used for stream event timestamps.
const ClockLayout = "15:04:05.000"

// Now returns the current time as Unix milliseconds.
func Now() int64 {
	return time.Now().UnixMilli()
}

// ToUnixMs converts a time.Time to Unix milliseconds.
func ToUnixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

// FromUnixMs converts Unix milliseconds to time.Time.
// Returns zero time if the timestamp is 0.
func FromUnixMs(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

// Clock formats a time as HH:MM:SS.mmm local wall-clock time.
func Clock(t time.Time) string {
	return t.Format(ClockLayout)
}

// NowClock formats the current time as HH:MM:SS.mmm.
func NowClock() string {
	return Clock(time.Now())
}
