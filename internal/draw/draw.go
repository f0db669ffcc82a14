// Package draw implements the assignment engine: given a group's members
// it produces a random single-cycle permutation with no fixed points, so
// every member gifts exactly one other member and receives from exactly one.
package draw

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/pvidal/amigoinvisible/internal/models"
)

// MinMembers is the smallest group that can be drawn. Below 3 the only
// derangement is a mutual swap between two people, which gives the secret
// away, so smaller groups are refused outright.
const MinMembers = 3

// ErrTooFewMembers is returned when a draw is attempted on a group with
// fewer than MinMembers members.
var ErrTooFewMembers = fmt.Errorf("a draw requires at least %d members", MinMembers)

// Assignment is one edge of the computed permutation: the membership row
// identified by MemberID gifts to the user identified by AssignedTo.
type Assignment struct {
	MemberID   string
	AssignedTo string
}

// Draw computes a fresh random assignment for the given members.
//
// The member list is shuffled with an unbiased Fisher-Yates shuffle
// (rand.Shuffle), then each position i is assigned to position (i+1) mod N.
// Consecutive positions in a cyclic sequence of length >= 3 are always
// distinct members, so the result is a single N-cycle: no fixed points,
// full coverage, one incoming and one outgoing edge per member.
//
// The input slice is not modified. Calling Draw again yields an independent
// random permutation; any previous result is simply superseded.
func Draw(members []*models.Membership) ([]Assignment, error) {
	if len(members) < MinMembers {
		return nil, ErrTooFewMembers
	}

	shuffled := make([]*models.Membership, len(members))
	copy(shuffled, members)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	assignments := make([]Assignment, len(shuffled))
	for i, giver := range shuffled {
		receiver := shuffled[(i+1)%len(shuffled)]
		assignments[i] = Assignment{
			MemberID:   giver.ID,
			AssignedTo: receiver.UserID,
		}
	}
	return assignments, nil
}

// Validate checks that assignedTo (member user ID -> assigned user ID) is a
// valid assignment over the given members: every member has an assignment,
// nobody is assigned to themselves, and the edges form a permutation of the
// member set in which every member is gifted to by exactly one other.
func Validate(members []*models.Membership, assignedTo map[string]string) error {
	if len(assignedTo) != len(members) {
		return fmt.Errorf("assignment covers %d of %d members", len(assignedTo), len(members))
	}

	inGroup := make(map[string]bool, len(members))
	for _, m := range members {
		inGroup[m.UserID] = true
	}

	seen := make(map[string]bool, len(members))
	for _, m := range members {
		target, ok := assignedTo[m.UserID]
		if !ok || target == "" {
			return fmt.Errorf("member %s has no assignment", m.UserID)
		}
		if target == m.UserID {
			return fmt.Errorf("member %s is assigned to themselves", m.UserID)
		}
		if !inGroup[target] {
			return fmt.Errorf("member %s is assigned outside the group", m.UserID)
		}
		if seen[target] {
			return fmt.Errorf("member %s is assigned to more than once", target)
		}
		seen[target] = true
	}
	return nil
}

// CycleLength follows assignedTo from start and returns the number of hops
// until it returns to start, or an error if the walk escapes the mapping.
// A single-cycle assignment over N members has cycle length N from any start.
func CycleLength(assignedTo map[string]string, start string) (int, error) {
	current, ok := assignedTo[start]
	if !ok {
		return 0, errors.New("start is not an assigned member")
	}
	length := 1
	for current != start {
		next, ok := assignedTo[current]
		if !ok {
			return 0, fmt.Errorf("assignment chain breaks at %s", current)
		}
		current = next
		length++
		if length > len(assignedTo) {
			return 0, errors.New("assignment chain does not close")
		}
	}
	return length, nil
}
