package slice

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// reduce applies ev to the slice state. Callers hold s.mu.
func (s *Slice[T, D]) reduce(ev Event) {
	switch e := ev.(type) {
	case Started:
		s.inflight++
		s.err = ""
		s.phases[e.Op] = PhasePending
	case Listed[T]:
		s.resolve(e.Meta, PhaseSucceeded)
		// A newer fetch already landed, or a mutation for this parent was
		// applied after this fetch was issued, so the list may predate it.
		if e.Ticket < s.fetchedAt[e.Parent] || e.Ticket <= s.mutatedAt[e.Parent] {
			s.stale++
			s.logger.WithFields(log.Fields{
				"family": s.family,
				"parent": e.Parent,
				"ticket": e.Ticket,
			}).Debug("discarding stale fetch result")
			return
		}
		s.items[e.Parent] = NewOrdered(e.Items)
		s.fetchedAt[e.Parent] = e.Ticket
	case Created[T]:
		s.resolve(e.Meta, PhaseSucceeded)
		s.justCreated = true
		seq, ok := s.items[e.Parent]
		if !ok {
			seq = NewOrdered[T](nil)
			s.items[e.Parent] = seq
		}
		seq.Append(e.Item)
		s.markApplied(e.Parent)
	case Updated[T]:
		s.resolve(e.Meta, PhaseSucceeded)
		s.justUpdated = true
		if seq, ok := s.items[e.Parent]; ok && seq.Replace(e.Item) {
			s.markApplied(e.Parent)
		}
	case Deleted:
		s.resolve(e.Meta, PhaseSucceeded)
		if seq, ok := s.items[e.Parent]; ok && seq.Remove(e.ID) {
			s.markApplied(e.Parent)
		}
	case Rejected:
		s.resolve(e.Meta, PhaseFailed)
		s.err = e.Message
	case Selected:
		s.selected = e.Parent
	case FlagReset:
		switch e.Flag {
		case FlagCreated:
			s.justCreated = false
		case FlagUpdated:
			s.justUpdated = false
		default:
			panic(fmt.Sprintf("slice: unknown flag %q", e.Flag))
		}
	default:
		panic(fmt.Sprintf("slice: unhandled event %T", ev))
	}
}

func (s *Slice[T, D]) resolve(meta Meta, phase Phase) {
	if s.inflight > 0 {
		s.inflight--
	}
	s.phases[meta.Op] = phase
	if phase == PhaseSucceeded {
		s.err = ""
	}
}

// markApplied records that a mutation for parent was applied while s.ticket
// was the newest issued ticket; fetches issued at or before it are now stale.
func (s *Slice[T, D]) markApplied(parent string) {
	s.mutatedAt[parent] = s.ticket
}
