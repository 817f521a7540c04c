package snowql

import (
	"fmt"
	"sync"
	"time"
)

// timestampTZOffsetBias is added to the real UTC offset (in minutes)
// by the server before it's put on the wire; subtract it back out to
// recover the real offset.
const timestampTZOffsetBias = 1440

var (
	timezoneMu    sync.Mutex
	timezoneCache = make(map[int]*time.Location, 48)
)

// locationWithOffset returns a cached *time.Location for the given
// offset in minutes east of UTC, constructing and caching it on first
// use. Concurrent callers sharing an offset share the same Location.
func locationWithOffset(offsetMinutes int) *time.Location {
	timezoneMu.Lock()
	defer timezoneMu.Unlock()
	if loc, ok := timezoneCache[offsetMinutes]; ok {
		return loc
	}
	loc := genTimezone(offsetMinutes)
	timezoneCache[offsetMinutes] = loc
	return loc
}

func genTimezone(offsetMinutes int) *time.Location {
	sign := "+"
	abs := offsetMinutes
	if offsetMinutes < 0 {
		sign = "-"
		abs = -offsetMinutes
	}
	name := fmt.Sprintf("%s%02d%02d", sign, abs/60, abs%60)
	return time.FixedZone(name, offsetMinutes*60)
}

// locationFromBiasedOffset converts a server-reported, +1440-biased
// offset-in-minutes value (as seen in timestamp_tz payloads) into the
// real *time.Location.
func locationFromBiasedOffset(biased int) *time.Location {
	return locationWithOffset(biased - timestampTZOffsetBias)
}

func init() {
	for i := -720; i <= 720; i += 60 {
		timezoneCache[i] = genTimezone(i)
	}
}
