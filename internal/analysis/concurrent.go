package analysis

import (
	"math/bits"
	"runtime"
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/sync/errgroup"

	"github.com/pilati06/recall/internal/rclerr"
	"github.com/pilati06/recall/internal/rcllog"
	"github.com/pilati06/recall/rcl/syntax"
)

// MaxConcurrentActions is the hard cap on the number of relativized actions
// a single state may fire. The subset space is 2^n masks, each held in a
// 32-bit word with one bit spare for the synthetic negation entry.
const MaxConcurrentActions = 30

// enumChunk is how many masks one enumeration worker claims at a time.
const enumChunk = 1 << 14

// EnumerateConcurrent builds the stable source map over the action set and
// every non-empty subset mask that the conflict catalogue admits. Masks are
// returned fullest-first (popcount descending, then ascending value), which
// fixes the order counterexample traces come out in.
func EnumerateConcurrent(
	actions mapset.Set[syntax.RelativizedAction],
	conflicts []syntax.Conflict,
	cfg Config,
	logger *rcllog.Logger,
) (ConcurrentActions, error) {
	sourceMap := stableSourceMap(actions)
	n := len(sourceMap)

	if n > MaxConcurrentActions {
		return ConcurrentActions{}, rclerr.CapacityExceeded(n)
	}

	if n == 0 {
		// no firable actions at all: a single empty transition keeps the
		// state explorable
		return ConcurrentActions{SourceMap: sourceMap, ValidMasks: []uint32{0}}, nil
	}

	total := uint32(1) << uint(n)
	if needed := int64(total) * 4; needed > cfg.allocationLimit() {
		return ConcurrentActions{}, rclerr.AllocationRefused(needed)
	}

	checker := newValidityChecker(sourceMap, conflicts)

	workers := runtime.NumCPU()
	if workers < 1 {
		workers = 1
	}

	chunks := make([][]uint32, (int(total)+enumChunk-1)/enumChunk)

	var g errgroup.Group
	g.SetLimit(workers)

	for c := range chunks {
		c := c
		g.Go(func() error {
			lo := uint32(c * enumChunk)
			hi := lo + enumChunk
			if hi > total || hi < lo {
				hi = total
			}

			var valid []uint32
			for mask := lo; mask < hi; mask++ {
				if mask == 0 {
					continue
				}
				if checker.valid(mask) {
					valid = append(valid, mask)
				}
			}
			chunks[c] = valid
			return nil
		})
	}
	// workers never return errors; Wait only joins them
	_ = g.Wait()

	var masks []uint32
	for _, chunk := range chunks {
		masks = append(masks, chunk...)
	}

	sort.SliceStable(masks, func(i, j int) bool {
		pi, pj := bits.OnesCount32(masks[i]), bits.OnesCount32(masks[j])
		if pi != pj {
			return pi > pj
		}
		return masks[i] < masks[j]
	})

	logger.Logf(rcllog.Additional, "enumerated %d valid of %d subset masks over %d actions",
		len(masks), total-1, n)

	return ConcurrentActions{SourceMap: sourceMap, ValidMasks: masks}, nil
}

// stableSourceMap orders the action set deterministically so that bit
// indices, and therefore state ids downstream, are reproducible across
// runs.
func stableSourceMap(actions mapset.Set[syntax.RelativizedAction]) []syntax.RelativizedAction {
	out := actions.ToSlice()
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Sender != b.Sender {
			return a.Sender < b.Sender
		}
		if a.Action.Value != b.Action.Value {
			return a.Action.Value < b.Action.Value
		}
		if a.Receiver != b.Receiver {
			return a.Receiver < b.Receiver
		}
		return a.Key() < b.Key()
	})
	return out
}

// validityChecker precomputes, per catalogue conflict, which source-map bits
// carry each of the two conflicting action values, grouped by sender for
// relativized entries. Checking a mask is then a handful of AND operations
// instead of per-mask set allocations.
type validityChecker struct {
	global      [][2]uint32
	relativized [][][2]uint32
}

func newValidityChecker(sourceMap []syntax.RelativizedAction, conflicts []syntax.Conflict) validityChecker {
	var ck validityChecker

	senders := map[syntax.ID]int{}
	var senderOrder []syntax.ID
	for _, a := range sourceMap {
		if _, ok := senders[a.Sender]; !ok {
			senders[a.Sender] = len(senderOrder)
			senderOrder = append(senderOrder, a.Sender)
		}
	}

	valueBits := func(value syntax.ID) uint32 {
		var m uint32
		for i, a := range sourceMap {
			if a.Action.Value == value {
				m |= 1 << uint(i)
			}
		}
		return m
	}

	senderValueBits := func(sender, value syntax.ID) uint32 {
		var m uint32
		for i, a := range sourceMap {
			if a.Sender == sender && a.Action.Value == value {
				m |= 1 << uint(i)
			}
		}
		return m
	}

	for _, c := range conflicts {
		switch c.Type {
		case syntax.ConflictGlobal:
			a, b := valueBits(c.A.Value), valueBits(c.B.Value)
			if a != 0 && b != 0 {
				ck.global = append(ck.global, [2]uint32{a, b})
			}

		case syntax.ConflictRelativized:
			var groups [][2]uint32
			for _, s := range senderOrder {
				a, b := senderValueBits(s, c.A.Value), senderValueBits(s, c.B.Value)
				if a != 0 && b != 0 {
					groups = append(groups, [2]uint32{a, b})
				}
			}
			if len(groups) > 0 {
				ck.relativized = append(ck.relativized, groups)
			}
		}
	}

	return ck
}

// valid reports whether the subset encoded by mask violates no conflict.
func (ck validityChecker) valid(mask uint32) bool {
	for _, pair := range ck.global {
		if mask&pair[0] != 0 && mask&pair[1] != 0 {
			return false
		}
	}
	for _, groups := range ck.relativized {
		for _, pair := range groups {
			if mask&pair[0] != 0 && mask&pair[1] != 0 {
				return false
			}
		}
	}
	return true
}
