package engine

import (
	"sort"

	"payoff/internal/core"
)

// allocator spends pool across the ledger for one month and returns the
// amount actually absorbed.
type allocator func(l *ledger, s core.Strategy, pool int64) int64

// allocators maps each strategy kind to its allocation function.
var allocators = map[core.StrategyKind]allocator{
	core.MinimumOnly: allocateNone,
	core.FixedExtra:  allocateFixedExtra,
	core.Avalanche:   allocateInOrder,
	core.Snowball:    allocateInOrder,
	core.Planned:     allocatePlanned,
}

func allocateNone(_ *ledger, _ core.Strategy, _ int64) int64 {
	return 0
}

// allocatePlanned tops each unpaid debt up from its minimum to its planned
// payment. A debt that is paid off frees nothing for the others.
func allocatePlanned(l *ledger, _ core.Strategy, pool int64) int64 {
	var used int64
	for _, i := range l.unpaid() {
		if pool <= 0 {
			break
		}
		top := l.debts[i].Planned().Cents - l.debts[i].MinimumPayment.Cents
		if top <= 0 {
			continue
		}
		p := l.payExtra(i, min(top, pool))
		pool -= p
		used += p
	}
	return used
}

func allocateFixedExtra(l *ledger, s core.Strategy, pool int64) int64 {
	if s.Split == core.SplitEven {
		return allocateEven(l, s, pool)
	}
	return allocateInOrder(l, s, pool)
}

// allocateInOrder gives the first unpaid debt in strategy order as much as
// its balance allows, then moves to the next until the pool is spent.
func allocateInOrder(l *ledger, s core.Strategy, pool int64) int64 {
	var used int64
	for _, i := range order(l, s) {
		if pool <= 0 {
			break
		}
		p := l.payExtra(i, pool)
		pool -= p
		used += p
	}
	return used
}

// allocateEven splits the pool across unpaid debts. Leftover cents go to the
// earliest debts in order; amounts a debt cannot absorb are split again.
func allocateEven(l *ledger, s core.Strategy, pool int64) int64 {
	var used int64
	for pool > 0 {
		idx := order(l, s)
		if len(idx) == 0 {
			break
		}
		n := int64(len(idx))
		share, rem := pool/n, pool%n

		var round int64
		for k, i := range idx {
			amt := share
			if int64(k) < rem {
				amt++
			}
			if amt == 0 {
				continue
			}
			round += l.payExtra(i, amt)
		}
		if round == 0 {
			break
		}
		pool -= round
		used += round
	}
	return used
}

// order returns unpaid debt indices in the order the strategy targets them.
//
// Avalanche: highest APR first. Snowball: smallest current balance first.
// Fixed-extra: the target debt first, then input order. Ties are broken by
// ascending debt id so runs are reproducible.
func order(l *ledger, s core.Strategy) []int {
	idx := l.unpaid()
	switch s.Kind {
	case core.Avalanche:
		sort.SliceStable(idx, func(a, b int) bool {
			da, db := l.debts[idx[a]], l.debts[idx[b]]
			if c := da.APR.Cmp(db.APR); c != 0 {
				return c > 0
			}
			return da.ID < db.ID
		})
	case core.Snowball:
		sort.SliceStable(idx, func(a, b int) bool {
			ba, bb := l.balance[idx[a]], l.balance[idx[b]]
			if ba != bb {
				return ba < bb
			}
			return l.debts[idx[a]].ID < l.debts[idx[b]].ID
		})
	case core.FixedExtra:
		if s.TargetID == "" {
			break
		}
		for k, i := range idx {
			if l.debts[i].ID == s.TargetID {
				copy(idx[1:k+1], idx[:k])
				idx[0] = i
				break
			}
		}
	}
	return idx
}
