package util

import (
	"time"
)

var mockTime int64

// GetTimeSec returns the current Unix time in seconds, or the mocked value
// set by SetMockTime when one is active.
func GetTimeSec() int64 {
	if mockTime > 0 {
		return mockTime
	}
	return time.Now().Unix()
}

func SetMockTime(time int64) {
	mockTime = time
}

// GetTimeMicroSec returns the current Unix time in microseconds, or the
// mocked value scaled to microseconds when one is active.
func GetTimeMicroSec() int64 {
	if mockTime > 0 {
		return mockTime * 1000 * 1000
	}
	return time.Now().UnixNano() / 1000
}

// GetAdjustedTimeSec returns GetTimeSec adjusted by the network's median
// time offset, the value consensus timestamp checks compare against.
func GetAdjustedTimeSec() int64 {
	return GetTimeSec() + GetTimeOffsetSec()
}

// GetTimeOffsetSec returns the currently applied median time offset, in
// seconds.
func GetTimeOffsetSec() int64 {
	return GetMedianTimeSource().getOffsetSec()
}
