// Package matching implements the group formation algorithm for
// co-working sessions. It is pure: no I/O, no clock, deterministic for a
// given input ordering.
package matching

import "sort"

// Group type tags persisted on the group record.
const (
	GroupTypeMatched   = "matched"
	GroupTypeUniversal = "universal"
	GroupTypeLobby     = "lobby"
)

// UniversalPoolType is the session-type tag attached to groups formed from
// cross-session leftovers.
const UniversalPoolType = "universal-pool"

// Participant is a transient view of a waiting user, built per matching run.
type Participant struct {
	UserID      string
	Handle      string
	Streak      int
	SessionType string
}

// Group is an ordered set of 2-3 participants working on the same thing.
type Group struct {
	Members     []Participant
	Type        string
	SessionType string
	AvgStreak   int
}

// MatchResult is what one matching run produces. LobbyUsers holds at most
// one participant: the final leftover after the universal pool pass.
type MatchResult struct {
	Groups     []Group
	LobbyUsers []Participant
}

// RunMatching partitions participants into 2-3 person groups.
//
// Participants are bucketed by session type (first-seen bucket order),
// sorted by streak descending within each bucket, and split into groups.
// Single per-bucket leftovers are pooled across sessions and re-matched as
// "universal" groups; a final single leftover becomes the lobby user.
func RunMatching(participants []Participant) MatchResult {
	result := MatchResult{}

	for _, bucket := range bucketBySessionType(participants) {
		sortByStreakDesc(bucket.users)

		groups, leftover := distributeToGroups(bucket.users, bucket.sessionType, GroupTypeMatched)
		result.Groups = append(result.Groups, groups...)
		if leftover != nil {
			result.LobbyUsers = append(result.LobbyUsers, *leftover)
		}
	}

	// Second pass: leftovers from every bucket compete in the universal pool.
	if len(result.LobbyUsers) > 0 {
		pool := result.LobbyUsers
		result.LobbyUsers = nil

		sortByStreakDesc(pool)

		groups, leftover := distributeToGroups(pool, UniversalPoolType, GroupTypeUniversal)
		result.Groups = append(result.Groups, groups...)
		if leftover != nil {
			result.LobbyUsers = []Participant{*leftover}
		}
	}

	return result
}

type bucket struct {
	sessionType string
	users       []Participant
}

// bucketBySessionType groups participants by session type, preserving the
// first-seen order of types so the emitted group order is deterministic.
func bucketBySessionType(participants []Participant) []bucket {
	index := make(map[string]int, len(participants))
	var buckets []bucket

	for _, p := range participants {
		i, ok := index[p.SessionType]
		if !ok {
			i = len(buckets)
			index[p.SessionType] = i
			buckets = append(buckets, bucket{sessionType: p.SessionType})
		}
		buckets[i].users = append(buckets[i].users, p)
	}

	return buckets
}

// sortByStreakDesc orders users by streak descending. The sort is stable:
// equal streaks keep their input order, which the tests rely on.
func sortByStreakDesc(users []Participant) {
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Streak > users[j].Streak
	})
}

// distributeToGroups splits sorted users into groups of 2-3. A single
// trailing user cannot form a group and is returned as the leftover.
func distributeToGroups(sorted []Participant, sessionType, groupType string) ([]Group, *Participant) {
	var groups []Group
	remaining := sorted

	for len(remaining) > 0 {
		if len(remaining) == 1 {
			leftover := remaining[0]
			return groups, &leftover
		}

		size := nextGroupSize(len(remaining))
		members := make([]Participant, size)
		copy(members, remaining[:size])
		remaining = remaining[size:]

		groups = append(groups, Group{
			Members:     members,
			Type:        groupType,
			SessionType: sessionType,
			AvgStreak:   averageStreak(members),
		})
	}

	return groups, nil
}

// nextGroupSize picks the size of the next group to peel off n remaining
// users. Four remaining always splits 2+2, never 3+1.
func nextGroupSize(n int) int {
	switch {
	case n == 2:
		return 2
	case n == 3:
		return 3
	case n == 4:
		return 2
	default: // 5+
		return 3
	}
}

// averageStreak is the rounded (half-up) mean of member streaks.
func averageStreak(members []Participant) int {
	if len(members) == 0 {
		return 0
	}
	total := 0
	for _, m := range members {
		total += m.Streak
	}
	return (total + len(members)/2) / len(members)
}

// CalculateGroupSizes returns the group sizes formed for n users. Exposed
// for capacity planning; RunMatching peels sizes incrementally but produces
// the same sequence.
func CalculateGroupSizes(n int) []int {
	if n < 2 {
		return []int{}
	}

	var sizes []int
	remaining := n
	for remaining > 1 {
		size := nextGroupSize(remaining)
		sizes = append(sizes, size)
		remaining -= size
	}
	return sizes
}
