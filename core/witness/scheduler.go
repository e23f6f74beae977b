// Package witness implements the deterministic per-round witness shuffle,
// median chain-property computation, and slot/time arithmetic of
// spec.md §4.5.
package witness

import (
	"math/big"
	"sort"

	"chainforge/core/objectstore"
)

// Params configures one chain's witness-scheduling constants. All of them
// are externalized per spec.md §1's "constants and hardfork dates are
// externalized" non-goal.
type Params struct {
	BlockIntervalSeconds uint64
	NumScheduledWitnesses uint8
	TopN                  uint8 // top-voted witnesses guaranteed a slot each round
	TimeshareN            uint8 // slots filled by virtual-time scheduling
	MinerN                uint8 // PoW/miner slots, usually 0 once disabled by hardfork
	VirtualScheduleLap    *big.Rat
	MaxVotedWitnesses     int // how many candidates the top-N draws from
}

// DefaultParams mirrors the historical Graphene defaults: 21 scheduled
// witnesses per round (Top 20 + 1 timeshare), 3-second blocks.
func DefaultParams() Params {
	return Params{
		BlockIntervalSeconds:  3,
		NumScheduledWitnesses: 21,
		TopN:                  20,
		TimeshareN:            1,
		MinerN:                0,
		VirtualScheduleLap:    new(big.Rat).SetInt(new(big.Int).Lsh(big.NewInt(1), 64)),
		MaxVotedWitnesses:     1000,
	}
}

// GetSlotAtTime returns the slot number for t given the current head slot
// time. Slot 0 = head_slot_time; slot N = head_slot_time + N*interval.
// Times before slot 1 (i.e. <= headSlotTime) return 0.
func GetSlotAtTime(headSlotTime, t uint64, intervalSeconds uint64) uint64 {
	if t <= headSlotTime {
		return 0
	}
	return (t-headSlotTime)/intervalSeconds + 1
}

// GetSlotTime returns the wall-clock time of slot n given the head slot time.
func GetSlotTime(headSlotTime uint64, n uint64, intervalSeconds uint64) uint64 {
	if n == 0 {
		return headSlotTime
	}
	return headSlotTime + n*intervalSeconds
}

// ScheduledWitness returns the witness name occupying slot n of the
// current shuffled schedule, wrapping around if n exceeds its length.
func ScheduledWitness(schedule *objectstore.WitnessSchedule, aslot uint64) (string, bool) {
	if len(schedule.CurrentShuffledWitnesses) == 0 {
		return "", false
	}
	idx := int(aslot % uint64(len(schedule.CurrentShuffledWitnesses)))
	return schedule.CurrentShuffledWitnesses[idx], true
}

// AdvanceVirtualTime updates w's virtual scheduling position after it has
// been assigned the timeshare slot, per spec.md §4.5:
//
//	virtual_last_update' = virtual_last_update + (LAP - virtual_position) / (votes + 1)
func AdvanceVirtualTime(w *objectstore.Witness, lap *big.Rat) {
	votesPlusOne := new(big.Rat).SetInt(new(big.Int).Add(w.Votes, big.NewInt(1)))
	remaining := new(big.Rat).Sub(lap, w.VirtualPosition)
	delta := new(big.Rat).Quo(remaining, votesPlusOne)
	w.VirtualLastUpdate = new(big.Rat).Add(w.VirtualLastUpdate, delta)
	w.VirtualSchedTime = new(big.Rat).Set(w.VirtualLastUpdate)
}

// pickTimeshareWitness returns the witness with the smallest scheduled
// virtual time among candidates (those not already claiming a top-N slot).
func pickTimeshareWitness(candidates []*objectstore.Witness) *objectstore.Witness {
	if len(candidates) == 0 {
		return nil
	}
	best := candidates[0]
	for _, c := range candidates[1:] {
		if c.VirtualSchedTime.Cmp(best.VirtualSchedTime) < 0 {
			best = c
		}
		if c.VirtualSchedTime.Cmp(best.VirtualSchedTime) == 0 && c.Owner < best.Owner {
			best = c
		}
	}
	return best
}

// UpdateSchedule recomputes the round's shuffled witness list and median
// properties. It should be called whenever current_aslot %
// num_scheduled_witnesses == 0 (a round boundary), per spec.md §4.5.
func UpdateSchedule(db *objectstore.Database, params Params) {
	all := db.Witnesses.All()
	if len(all) == 0 {
		return
	}
	sort.Slice(all, func(i, j int) bool {
		c := all[i].Votes.Cmp(all[j].Votes)
		if c != 0 {
			return c > 0
		}
		return all[i].Owner < all[j].Owner
	})

	topCount := int(params.TopN)
	if topCount > len(all) {
		topCount = len(all)
	}
	top := all[:topCount]
	rest := all[topCount:]

	shuffled := make([]string, 0, params.NumScheduledWitnesses)
	claimed := make(map[string]bool, topCount)
	for _, w := range top {
		shuffled = append(shuffled, w.Owner)
		claimed[w.Owner] = true
		db.Witnesses.Modify(w, func(w *objectstore.Witness) { w.ScheduleClass = objectstore.ScheduleClassTop })
	}

	timeshareCandidates := make([]*objectstore.Witness, 0, len(rest))
	for _, w := range rest {
		if w.VirtualSchedTime == nil {
			continue
		}
		timeshareCandidates = append(timeshareCandidates, w)
	}
	for i := uint8(0); i < params.TimeshareN; i++ {
		w := pickTimeshareWitness(timeshareCandidates)
		if w == nil {
			break
		}
		shuffled = append(shuffled, w.Owner)
		db.Witnesses.Modify(w, func(w *objectstore.Witness) {
			w.ScheduleClass = objectstore.ScheduleClassTimeshare
			AdvanceVirtualTime(w, params.VirtualScheduleLap)
		})
		filtered := timeshareCandidates[:0]
		for _, c := range timeshareCandidates {
			if c.Owner != w.Owner {
				filtered = append(filtered, c)
			}
		}
		timeshareCandidates = filtered
	}

	sched := db.ScheduleSingleton()
	db.Schedule.Modify(sched, func(s *objectstore.WitnessSchedule) {
		s.CurrentShuffledWitnesses = shuffled
		s.NumScheduledWitnesses = uint8(len(shuffled))
		s.TopN = params.TopN
		s.TimeshareN = params.TimeshareN
		s.MinerN = params.MinerN
		s.MedianProps = medianProps(all)
	})
}

// medianProps computes the per-field median of witness-reported chain
// properties across every currently voted-in witness.
func medianProps(witnesses []*objectstore.Witness) objectstore.WitnessProps {
	fees := make([]*big.Int, 0, len(witnesses))
	sizes := make([]int, 0, len(witnesses))
	rates := make([]int, 0, len(witnesses))
	for _, w := range witnesses {
		if w.Props.AccountCreationFee != nil {
			fees = append(fees, w.Props.AccountCreationFee)
		}
		if w.Props.MaxBlockSize > 0 {
			sizes = append(sizes, int(w.Props.MaxBlockSize))
		}
		rates = append(rates, int(w.Props.SBDInterestRate))
	}
	sort.Slice(fees, func(i, j int) bool { return fees[i].Cmp(fees[j]) < 0 })
	sort.Ints(sizes)
	sort.Ints(rates)

	out := objectstore.WitnessProps{AccountCreationFee: big.NewInt(0)}
	if len(fees) > 0 {
		out.AccountCreationFee = new(big.Int).Set(fees[len(fees)/2])
	}
	if len(sizes) > 0 {
		out.MaxBlockSize = uint32(sizes[len(sizes)/2])
	}
	if len(rates) > 0 {
		out.SBDInterestRate = uint16(rates[len(rates)/2])
	}
	return out
}
