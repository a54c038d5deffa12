package mlsearch

import (
	"cmp"
	"iter"
	"time"

	"github.com/TestStacey/graphhopper/ptgraph"
)

// DefaultMaxVisitedNodes applies when Options.MaxVisitedNodes is not positive.
const DefaultMaxVisitedNodes = 1_000_000

// Options configure a Search.
type Options struct {
	// Reverse searches backwards in time from the target towards the origin.
	Reverse bool
	// MaxWalkDistancePerLeg is the street distance in meters a leg may cover
	// before the label counts as violating the walking constraint.
	MaxWalkDistancePerLeg float64
	// MaxTransferDistancePerLeg bounds the walk between two vehicles.
	MaxTransferDistancePerLeg float64
	// MindTransfers adds the transfer count to the compared criteria.
	MindTransfers bool
	// ProfileQuery compares first departure times as well, so later
	// departures that arrive later survive.
	ProfileQuery    bool
	MaxVisitedNodes int
}

// Search runs label-setting queries against one explorer. A Search holds no
// per-query state and may start any number of iterators.
type Search struct {
	explorer  ptgraph.Explorer
	weighting *ptgraph.TravelTimeWeighting
	opts      Options
}

func New(explorer ptgraph.Explorer, weighting *ptgraph.TravelTimeWeighting, opts Options) *Search {
	if opts.MaxVisitedNodes <= 0 {
		opts.MaxVisitedNodes = DefaultMaxVisitedNodes
	}
	return &Search{explorer: explorer, weighting: weighting, opts: opts}
}

// Iterator yields the settled labels of one query in comparator order. It is
// not safe for concurrent use.
type Iterator struct {
	s        *Search
	to       int
	labels   []Label
	states   []labelState
	frontier map[int][]int
	target   []int
	heap     labelHeap
	visited  int
}

// CalcLabels starts a query from node from at startTime. No work is done
// until the first call to Next.
func (s *Search) CalcLabels(from, to int, startTime time.Time) *Iterator {
	it := &Iterator{s: s, to: to, frontier: map[int][]int{}}
	it.heap.less = it.less
	origin := it.add(Label{Node: from, Time: startTime.UnixMilli(), Edge: ptgraph.NoEdge, Parent: NoParent})
	it.frontier[from] = []int{origin}
	it.heap.Push(origin)
	if from == to {
		it.target = []int{origin}
	}
	return it
}

// Next settles and returns the next label. It reports false once the queue
// is exhausted or MaxVisitedNodes labels have been returned.
func (it *Iterator) Next() (Label, bool) {
	if it.visited >= it.s.opts.MaxVisitedNodes {
		return Label{}, false
	}
	for it.heap.Len() > 0 {
		id := it.heap.Pop()
		if it.states[id] != live {
			continue
		}
		it.states[id] = settled
		it.visited++
		l := it.labels[id]
		it.relax(l)
		return l, true
	}
	return Label{}, false
}

// All ranges over the remaining labels.
func (it *Iterator) All() iter.Seq[Label] {
	return func(yield func(Label) bool) {
		for {
			l, ok := it.Next()
			if !ok || !yield(l) {
				return
			}
		}
	}
}

// VisitedNodes is the number of labels settled so far.
func (it *Iterator) VisitedNodes() int { return it.visited }

// TargetLabels returns the current Pareto frontier at the target node.
func (it *Iterator) TargetLabels() []Label { return it.collect(it.target) }

// LabelsAt returns the current Pareto frontier at node.
func (it *Iterator) LabelsAt(node int) []Label { return it.collect(it.frontier[node]) }

// Path returns the labels from the origin to l.
func (it *Iterator) Path(l Label) []Label {
	var path []Label
	for id := l.id; id != NoParent; id = it.labels[id].Parent {
		path = append(path, it.labels[id])
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func (it *Iterator) collect(ids []int) []Label {
	out := make([]Label, len(ids))
	for i, id := range ids {
		out[i] = it.labels[id]
	}
	return out
}

func (it *Iterator) add(l Label) int {
	l.id = len(it.labels)
	it.labels = append(it.labels, l)
	it.states = append(it.states, live)
	return l.id
}

func (it *Iterator) relax(l Label) {
	s := it.s
	rev := s.opts.Reverse
	for _, e := range s.explorer.EdgesAround(l.Node, l.Time) {
		tt := s.explorer.TravelTimeMillis(e, l.Time)
		next := l.Time + tt
		if rev {
			next = l.Time - tt
		}

		walkTime := l.WalkTime
		if e.Type == ptgraph.Highway {
			walkTime += tt
		}

		dep, hasDep := l.Departure, l.HasDeparture
		if l.Transfers == 0 {
			switch {
			case !rev && (e.Type == ptgraph.EnterTimeExpandedNetwork || e.Type == ptgraph.Wait):
				dep, hasDep = next-l.WalkTime, true
			case rev && (e.Type == ptgraph.LeaveTimeExpandedNetwork || e.Type == ptgraph.WaitArrival):
				dep, hasDep = next+l.WalkTime, true
			}
		}

		walkDist := l.WalkDistanceOnLeg + s.weighting.WalkDistance(e)
		if (!rev && e.Type == ptgraph.Board) || (rev && e.Type == ptgraph.Alight) {
			walkDist = 0
		}

		reEnter := ((!rev && e.Type == ptgraph.EnterPT) || (rev && e.Type == ptgraph.ExitPT)) &&
			l.Transfers > 0 && l.WalkDistanceOnLeg > s.opts.MaxTransferDistancePerLeg
		exceeds := l.WalkDistanceOnLeg <= s.opts.MaxWalkDistancePerLeg && walkDist > s.opts.MaxWalkDistancePerLeg
		violations := l.Violations
		if reEnter || exceeds {
			violations = min(1, violations+1)
		}
		if e.Type == ptgraph.Highway && l.Transfers > 0 {
			violations++
		}
		if violations > 0 {
			continue
		}

		cand := Label{
			Node:              e.Adj,
			Time:              next,
			Edge:              e.ID,
			Transfers:         l.Transfers + s.weighting.Transfers(e),
			Violations:        violations,
			WalkDistanceOnLeg: walkDist,
			Departure:         dep,
			HasDeparture:      hasDep,
			WalkTime:          walkTime,
			Parent:            l.id,
		}
		if it.dominatedByAny(&cand, it.target) || it.dominatedByAny(&cand, it.frontier[e.Adj]) {
			continue
		}
		id := it.add(cand)
		it.frontier[e.Adj] = it.evictDominated(&it.labels[id], it.frontier[e.Adj], true)
		it.frontier[e.Adj] = append(it.frontier[e.Adj], id)
		if e.Adj == it.to {
			it.target = it.evictDominated(&it.labels[id], it.target, false)
			it.target = append(it.target, id)
		}
		it.heap.Push(id)
	}
}

func (it *Iterator) dominatedByAny(l *Label, ids []int) bool {
	for _, id := range ids {
		if it.s.dominates(&it.labels[id], l) {
			return true
		}
	}
	return false
}

// evictDominated drops the labels l dominates from ids. With mark set they
// are also retired, so the heap skips them and they never dominate again.
func (it *Iterator) evictDominated(l *Label, ids []int, mark bool) []int {
	kept := ids[:0]
	for _, id := range ids {
		if it.s.dominates(l, &it.labels[id]) {
			if mark {
				it.states[id] = evicted
			}
			continue
		}
		kept = append(kept, id)
	}
	return kept
}

func (it *Iterator) less(a, b int) bool {
	if c := it.s.compare(&it.labels[a], &it.labels[b]); c != 0 {
		return c < 0
	}
	return a < b
}

// compare is the queue order: time, transfers, walk time, departure.
func (s *Search) compare(a, b *Label) int {
	return cmp.Or(
		cmp.Compare(s.timeCriterion(a), s.timeCriterion(b)),
		cmp.Compare(a.Transfers, b.Transfers),
		cmp.Compare(a.WalkTime, b.WalkTime),
		cmp.Compare(s.departureOrZero(a), s.departureOrZero(b)),
	)
}

// dominates reports whether me is at least as good as they on every
// compared criterion. Labels equal on all of them fall back to queue order.
func (s *Search) dominates(me, they *Label) bool {
	profile := s.opts.ProfileQuery && me.HasDeparture && they.HasDeparture
	switch {
	case profile:
		if s.timeCriterion(me) > s.timeCriterion(they) || s.departureCriterion(me) > s.departureCriterion(they) {
			return false
		}
	case s.opts.ProfileQuery:
		if s.travelTime(me) > s.travelTime(they) {
			return false
		}
	default:
		if s.timeCriterion(me) > s.timeCriterion(they) {
			return false
		}
	}
	if s.opts.MindTransfers && me.Transfers > they.Transfers {
		return false
	}
	if me.Violations > they.Violations {
		return false
	}

	switch {
	case profile:
		if s.timeCriterion(me) < s.timeCriterion(they) || s.departureCriterion(me) < s.departureCriterion(they) {
			return true
		}
	case s.opts.ProfileQuery:
		if s.travelTime(me) < s.travelTime(they) {
			return true
		}
	default:
		if s.timeCriterion(me) < s.timeCriterion(they) {
			return true
		}
	}
	if s.opts.MindTransfers && me.Transfers < they.Transfers {
		return true
	}
	if me.Violations < they.Violations {
		return true
	}
	return s.compare(me, they) <= 0
}

func (s *Search) timeCriterion(l *Label) int64 {
	if s.opts.Reverse {
		return -l.Time
	}
	return l.Time
}

// departureCriterion prefers later departures going forward and earlier
// arrivals at the query end going backward.
func (s *Search) departureCriterion(l *Label) int64 {
	if s.opts.Reverse {
		return l.Departure
	}
	return -l.Departure
}

func (s *Search) departureOrZero(l *Label) int64 {
	if !l.HasDeparture {
		return 0
	}
	return s.departureCriterion(l)
}

func (s *Search) travelTime(l *Label) int64 {
	if !l.HasDeparture {
		return l.WalkTime
	}
	if s.opts.Reverse {
		return l.Departure - l.Time
	}
	return l.Time - l.Departure
}
