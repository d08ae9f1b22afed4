// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package drone

import "time"

var gpsEpoch = time.Date(1980, time.January, 6, 0, 0, 0, 0, time.UTC)

const (
	gpsWeek = 7 * 24 * time.Hour

	// GPSLeapSeconds is the offset of GPS time ahead of UTC.
	GPSLeapSeconds = 18 * time.Second
)

// FromGPSTimeOfWeek converts seconds into the GPS week containing ref into a
// local wall-clock time.
func FromGPSTimeOfWeek(seconds float64, ref time.Time) time.Time {
	gpsNow := ref.UTC().Add(GPSLeapSeconds)
	week := gpsNow.Sub(gpsEpoch) / gpsWeek
	weekStart := gpsEpoch.Add(week * gpsWeek)
	offset := time.Duration(seconds * float64(time.Second))
	return weekStart.Add(offset).Add(-GPSLeapSeconds).Local()
}

// ToGPSTimeOfWeek is the inverse of FromGPSTimeOfWeek.
func ToGPSTimeOfWeek(t time.Time) float64 {
	gps := t.UTC().Add(GPSLeapSeconds).Sub(gpsEpoch)
	return (gps % gpsWeek).Seconds()
}
