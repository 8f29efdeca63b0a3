package decision

import "sort"

// Redistribute equalizes task counts across candidates so that no
// candidate stays allocated beyond its real capacity while siblings
// have room. Candidates are packed into a stack ordered by priority
// ascending, so the highest-priority (lowest number) candidates are
// popped first. An overloaded candidate sheds its excess onto the next
// candidate on the stack; both go back on the stack while they still
// have tasks or remain short on capacity.
//
// The pass mutates task counts in place; the slice order is untouched.
func Redistribute(candidates []*Candidate) {
	if len(candidates) < 2 {
		return
	}

	// Top of the stack is the end of the slice, so sort descending by
	// priority to pop the lowest priority numbers first. The sort is
	// stable to keep populator order within a priority level.
	stack := make([]*Candidate, len(candidates))
	copy(stack, candidates)
	sort.SliceStable(stack, func(i, j int) bool {
		return stack[i].Priority > stack[j].Priority
	})

	for len(stack) >= 1 {
		a := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if a.RelativeCapacity() >= 1 {
			continue
		}
		if len(stack) == 0 {
			break
		}
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		// a is over capacity here, so the move is negative: tasks flow
		// from a to b until a fits.
		move := a.RealCapacity - a.TaskCount
		if b.TaskCount < move {
			move = b.TaskCount
		}
		a.TaskCount += move
		b.TaskCount -= move

		if b.TaskCount > 0 {
			stack = append(stack, b)
		}
		if a.RelativeCapacity() < 1 {
			stack = append(stack, a)
		}
	}
}
