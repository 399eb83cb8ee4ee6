package util

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/astaxie/beego/logs"
)

const (
	// maxAllowedOffsetSecs is the maximum number of seconds in either
	// direction that the local clock will be adjusted. When the median
	// time of the network is outside of this range, no offset is applied.
	maxAllowedOffsetSecs = 70 * 60

	// similarTimeSecs is the number of seconds in either direction from
	// the local clock used to decide the clock is likely correct despite
	// an out-of-range median, before warning about it.
	similarTimeSecs = 5 * 60
)

// maxMedianTimeRetries is the maximum number of time samples retained. It is
// a var rather than a const so tests can shrink it.
var maxMedianTimeRetries = 200

// medianTime tracks time samples reported by peers and derives a median
// offset applied to the local clock, mirroring the offset mechanism
// consensus validation relies on.
type medianTime struct {
	mtx                sync.Mutex
	knownIDs           map[string]struct{}
	offsets            []int64
	offsetSecs         int64
	invalidTimeChecked bool
}

func newMedianTime() *medianTime {
	return &medianTime{
		knownIDs: make(map[string]struct{}),
		offsets:  make([]int64, 0, maxMedianTimeRetries),
	}
}

// AddTimeSample records a time sample from sourceID, updating the median
// offset once enough samples have accumulated. Additional samples from the
// same sourceID are ignored.
func (m *medianTime) AddTimeSample(sourceID string, timeVal time.Time) {
	m.mtx.Lock()
	defer m.mtx.Unlock()

	if _, exists := m.knownIDs[sourceID]; exists {
		return
	}
	m.knownIDs[sourceID] = struct{}{}

	now := time.Unix(time.Now().Unix(), 0)
	offsetSecs := int64(timeVal.Sub(now).Seconds())
	numOffsets := len(m.offsets)
	if numOffsets == maxMedianTimeRetries && maxMedianTimeRetries > 0 {
		m.offsets = m.offsets[1:]
		numOffsets--
	}
	m.offsets = append(m.offsets, offsetSecs)
	numOffsets++

	sortedOffsets := make([]int64, numOffsets)
	copy(sortedOffsets, m.offsets)
	sort.Sort(int64Sorter(sortedOffsets))

	logs.Debug("added time sample of %v (total:%v)", time.Duration(offsetSecs)*time.Second, numOffsets)

	// The offset is only recomputed on an odd sample count, so it stops
	// updating once maxMedianTimeRetries (an even number) is reached.
	// This mirrors a long-standing Bitcoin Core quirk that consensus
	// code must replicate rather than fix.
	if numOffsets < 5 || numOffsets&0x01 != 1 {
		return
	}

	median := sortedOffsets[numOffsets/2]
	if math.Abs(float64(median)) < maxAllowedOffsetSecs {
		m.offsetSecs = median
		return
	}

	m.offsetSecs = 0
	if m.invalidTimeChecked {
		return
	}
	m.invalidTimeChecked = true

	var remoteHasCloseTime bool
	for _, offset := range sortedOffsets {
		if math.Abs(float64(offset)) < similarTimeSecs {
			remoteHasCloseTime = true
			break
		}
	}
	if !remoteHasCloseTime {
		logs.Warn("Please check your date and time are correct!")
	}
}

func (m *medianTime) getOffsetSec() int64 {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	return m.offsetSecs
}

type int64Sorter []int64

func (s int64Sorter) Len() int           { return len(s) }
func (s int64Sorter) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }
func (s int64Sorter) Less(i, j int) bool { return s[i] < s[j] }

var (
	timeSourceOnce sync.Once
	timeSource     *medianTime
)

// GetMedianTimeSource returns the process-wide median time source, used to
// adjust the local clock against peer-reported timestamps.
func GetMedianTimeSource() *medianTime {
	timeSourceOnce.Do(func() {
		timeSource = newMedianTime()
	})
	return timeSource
}
