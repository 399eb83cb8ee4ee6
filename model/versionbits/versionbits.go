// Package versionbits implements the BIP9 deployment state machine used to
// decide when a block-version-signaled soft fork has locked in and gone
// active.
package versionbits

import (
	"math"
	"sync"

	"github.com/btcforge/chaincore/model/blockindex"
	"github.com/btcforge/chaincore/model/chainparams"
	"github.com/btcforge/chaincore/model/consensus"
)

const (
	// VersionBitsLastOldBlockVersion is the block version to use for new
	// blocks before versionbits.
	VersionBitsLastOldBlockVersion = 4
	// VersionBitsTopBits are the bits set in the version field of a
	// versionbits block.
	VersionBitsTopBits = 0x20000000
	// VersionBitsTopMask is the mask that identifies whether versionbits is
	// in use.
	VersionBitsTopMask int64 = 0xE0000000
	// VersionBitsNumBits is the number of bits available for versionbits.
	VersionBitsNumBits = 29
)

type ThresholdState int

const (
	ThresholdDefined ThresholdState = iota
	ThresholdStarted
	ThresholdLockedIn
	ThresholdActive
	ThresholdFailed
)

type BIP9DeploymentInfo struct {
	Name     string
	GbtForce bool
}

type ThresholdConditionCache map[*blockindex.BlockIndex]ThresholdState

var VersionBitsDeploymentInfo = []BIP9DeploymentInfo{
	{
		Name:     "testdummy",
		GbtForce: true,
	},
	{
		Name:     "csv",
		GbtForce: true,
	},
}

type AbstractThresholdConditionChecker interface {
	Condition(index *blockindex.BlockIndex, params *chainparams.BitcoinParams) bool
	BeginTime(params *chainparams.BitcoinParams) int64
	EndTime(params *chainparams.BitcoinParams) int64
	Period(params *chainparams.BitcoinParams) int
	Threshold(params *chainparams.BitcoinParams) int
}

// VBCache is the process-wide condition cache. It is safe for concurrent use.
var VBCache *VersionBitsCache

type VersionBitsCache struct {
	sync.RWMutex
	cache [consensus.MaxVersionBitsDeployments]ThresholdConditionCache
}

func NewVersionBitsCache() *VersionBitsCache {
	var cache [consensus.MaxVersionBitsDeployments]ThresholdConditionCache
	for i := 0; i < int(consensus.MaxVersionBitsDeployments); i++ {
		cache[i] = make(ThresholdConditionCache)
	}
	return &VersionBitsCache{cache: cache}
}

func (vbc *VersionBitsCache) Clear() {
	vbc.Lock()
	defer vbc.Unlock()
	for i := 0; i < int(consensus.MaxVersionBitsDeployments); i++ {
		vbc.cache[i] = make(ThresholdConditionCache)
	}
}

func NewWarnBitsCache(bitNum int) []ThresholdConditionCache {
	w := make([]ThresholdConditionCache, 0, bitNum)
	for i := 0; i < bitNum; i++ {
		w = append(w, make(ThresholdConditionCache))
	}
	return w
}

func VersionBitsState(indexPrev *blockindex.BlockIndex, params *chainparams.BitcoinParams, pos consensus.DeploymentPos, vbc *VersionBitsCache) ThresholdState {
	vc := &VersionBitsConditionChecker{id: pos}
	return GetStateFor(vc, indexPrev, params, vbc.cache[pos])
}

func VersionBitsStateSinceHeight(indexPrev *blockindex.BlockIndex, params *chainparams.BitcoinParams, pos consensus.DeploymentPos, vbc *VersionBitsCache) int {
	vc := &VersionBitsConditionChecker{id: pos}
	return GetStateSinceHeightFor(vc, indexPrev, params, vbc.cache[pos])
}

func VersionBitsMask(params *chainparams.BitcoinParams, pos consensus.DeploymentPos) uint32 {
	vc := VersionBitsConditionChecker{id: pos}
	return uint32(vc.Mask(params))
}

type VersionBitsConditionChecker struct {
	id consensus.DeploymentPos
}

func (vc *VersionBitsConditionChecker) BeginTime(params *chainparams.BitcoinParams) int64 {
	return params.Deployments[vc.id].StartTime
}

func (vc *VersionBitsConditionChecker) EndTime(params *chainparams.BitcoinParams) int64 {
	return params.Deployments[vc.id].Timeout
}

func (vc *VersionBitsConditionChecker) Period(params *chainparams.BitcoinParams) int {
	return int(params.MinerConfirmationWindow)
}

func (vc *VersionBitsConditionChecker) Threshold(params *chainparams.BitcoinParams) int {
	return int(params.RuleChangeActivationThreshold)
}

func (vc *VersionBitsConditionChecker) Condition(index *blockindex.BlockIndex, params *chainparams.BitcoinParams) bool {
	return ((int64(index.Header.Version) & VersionBitsTopMask) == VersionBitsTopBits) &&
		(index.Header.Version&vc.Mask(params)) != 0
}

func (vc *VersionBitsConditionChecker) Mask(params *chainparams.BitcoinParams) int32 {
	return int32(1) << uint(params.Deployments[vc.id].Bit)
}

func GetStateFor(vc AbstractThresholdConditionChecker, indexPrev *blockindex.BlockIndex,
	params *chainparams.BitcoinParams, cache ThresholdConditionCache) ThresholdState {

	nPeriod := vc.Period(params)
	nThreshold := vc.Threshold(params)
	nTimeStart := vc.BeginTime(params)
	nTimeTimeout := vc.EndTime(params)

	// A block's state is always the same as that of the first of its period, so
	// it is computed based on an indexPrev whose height equals a multiple of
	// nPeriod - 1.
	if indexPrev != nil {
		indexPrev = indexPrev.GetAncestor(indexPrev.Height - (indexPrev.Height+1)%nPeriod)
	}

	// Walk backwards in steps of nPeriod to find an indexPrev whose state is
	// already known.
	toCompute := make([]*blockindex.BlockIndex, 0)
	for {
		if _, ok := cache[indexPrev]; !ok {
			if indexPrev == nil {
				// The genesis block is by definition defined.
				cache[indexPrev] = ThresholdDefined
				break
			}
			if indexPrev.GetMedianTimePast() < nTimeStart {
				// Every earlier block is before the start time too.
				cache[indexPrev] = ThresholdDefined
				break
			}
			toCompute = append(toCompute, indexPrev)
			indexPrev = indexPrev.GetAncestor(indexPrev.Height - nPeriod)
		} else {
			break
		}
	}

	state, ok := cache[indexPrev]
	if !ok {
		panic("there should be an element in cache")
	}

	// Walk forward and compute the state of descendants of indexPrev.
	for n := 0; n < len(toCompute); n++ {
		stateNext := state
		indexPrev = toCompute[len(toCompute)-1]
		toCompute = toCompute[:(len(toCompute) - 1)]

		switch state {
		case ThresholdDefined:
			if indexPrev.GetMedianTimePast() >= nTimeTimeout {
				stateNext = ThresholdFailed
			} else if indexPrev.GetMedianTimePast() >= nTimeStart {
				stateNext = ThresholdStarted
			}
		case ThresholdStarted:
			if indexPrev.GetMedianTimePast() >= nTimeTimeout {
				stateNext = ThresholdFailed
				break
			}
			indexCount := indexPrev
			count := 0
			for i := 0; i < nPeriod; i++ {
				if vc.Condition(indexCount, params) {
					count++
				}
				indexCount = indexCount.Prev
			}
			if count >= nThreshold {
				stateNext = ThresholdLockedIn
			}
		case ThresholdLockedIn:
			// Always progresses into ACTIVE.
			stateNext = ThresholdActive
		case ThresholdFailed, ThresholdActive:
			// Terminal states, nothing happens.
		}
		state = stateNext
		cache[indexPrev] = state
	}
	return state
}

func GetStateSinceHeightFor(vc AbstractThresholdConditionChecker, indexPrev *blockindex.BlockIndex, params *chainparams.BitcoinParams, cache ThresholdConditionCache) int {
	initialState := GetStateFor(vc, indexPrev, params, cache)
	// BIP9: "The genesis block is by definition in this state for each
	// deployment."
	if initialState == ThresholdDefined {
		return 0
	}

	nPeriod := vc.Period(params)
	indexPrev = indexPrev.GetAncestor(indexPrev.Height - ((indexPrev.Height + 1) % nPeriod))
	previousPeriodParent := indexPrev.GetAncestor(indexPrev.Height - nPeriod)
	for previousPeriodParent != nil && GetStateFor(vc, previousPeriodParent, params, cache) == initialState {
		indexPrev = previousPeriodParent
		previousPeriodParent = indexPrev.GetAncestor(indexPrev.Height - nPeriod)
	}

	// Adjust because indexPrev currently points to the parent block.
	return indexPrev.Height + 1
}

type WarningBitsConditionChecker struct {
	bit int
}

func NewWarningBitsConChecker(bitIn int) *WarningBitsConditionChecker {
	return &WarningBitsConditionChecker{bit: bitIn}
}

func (w *WarningBitsConditionChecker) BeginTime(params *chainparams.BitcoinParams) int64 {
	return 0
}

func (w *WarningBitsConditionChecker) EndTime(params *chainparams.BitcoinParams) int64 {
	return math.MaxInt64
}

func (w *WarningBitsConditionChecker) Period(params *chainparams.BitcoinParams) int {
	return int(params.MinerConfirmationWindow)
}

func (w *WarningBitsConditionChecker) Threshold(params *chainparams.BitcoinParams) int {
	return int(params.RuleChangeActivationThreshold)
}

func (w *WarningBitsConditionChecker) Condition(index *blockindex.BlockIndex, params *chainparams.BitcoinParams) bool {
	return int64(index.Header.Version)&VersionBitsTopMask == VersionBitsTopBits &&
		((index.Header.Version)>>uint(w.bit))&1 != 0 &&
		(ComputeBlockVersion(index.Prev, params, VBCache)>>uint(w.bit))&1 == 0
}

func ComputeBlockVersion(indexPrev *blockindex.BlockIndex, params *chainparams.BitcoinParams, t *VersionBitsCache) int {
	version := VersionBitsTopBits

	for i := 0; i < int(consensus.MaxVersionBitsDeployments); i++ {
		state := func() ThresholdState {
			t.Lock()
			defer t.Unlock()
			return VersionBitsState(indexPrev, params, consensus.DeploymentPos(i), t)
		}()

		if state == ThresholdLockedIn || state == ThresholdStarted {
			version |= int(VersionBitsMask(params, consensus.DeploymentPos(i)))
		}
	}

	return version
}

func init() {
	VBCache = NewVersionBitsCache()
}
