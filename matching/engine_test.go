package matching

import (
	"fmt"
	"reflect"
	"testing"
)

func makeUser(handle string, streak int, sessionType string) Participant {
	return Participant{UserID: handle, Handle: handle, Streak: streak, SessionType: sessionType}
}

func TestCalculateGroupSizes(t *testing.T) {
	want := [][]int{
		{}, {}, {2}, {3}, {2, 2}, {3, 2}, {3, 3}, {3, 2, 2}, {3, 3, 2}, {3, 3, 3}, {3, 3, 2, 2},
	}
	for n := 0; n <= 10; n++ {
		got := CalculateGroupSizes(n)
		if len(got) == 0 && len(want[n]) == 0 {
			continue
		}
		if !reflect.DeepEqual(got, want[n]) {
			t.Errorf("CalculateGroupSizes(%d) = %v, want %v", n, got, want[n])
		}
	}
}

func TestFourUsersSplitTwoPlusTwo(t *testing.T) {
	users := []Participant{
		makeUser("u1", 10, "deep-work"),
		makeUser("u2", 20, "deep-work"),
		makeUser("u3", 30, "deep-work"),
		makeUser("u4", 40, "deep-work"),
	}

	result := RunMatching(users)

	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Groups))
	}
	for i, g := range result.Groups {
		if len(g.Members) != 2 {
			t.Errorf("group %d: expected 2 members, got %d", i, len(g.Members))
		}
		if g.Type != GroupTypeMatched {
			t.Errorf("group %d: expected type %q, got %q", i, GroupTypeMatched, g.Type)
		}
	}
	if len(result.LobbyUsers) != 0 {
		t.Errorf("expected no lobby users, got %d", len(result.LobbyUsers))
	}
}

func TestSinglesFromDistinctSessionsMergeInUniversalPool(t *testing.T) {
	users := []Participant{
		makeUser("u1", 10, "deep-work"),
		makeUser("u2", 20, "writing"),
		makeUser("u3", 30, "study"),
	}

	result := RunMatching(users)

	if len(result.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(result.Groups))
	}
	g := result.Groups[0]
	if len(g.Members) != 3 {
		t.Errorf("expected 3 members, got %d", len(g.Members))
	}
	if g.Type != GroupTypeUniversal {
		t.Errorf("expected type %q, got %q", GroupTypeUniversal, g.Type)
	}
	if g.SessionType != UniversalPoolType {
		t.Errorf("expected session type %q, got %q", UniversalPoolType, g.SessionType)
	}
	if len(result.LobbyUsers) != 0 {
		t.Errorf("expected no lobby users, got %d", len(result.LobbyUsers))
	}
}

func TestSingleUserGoesToLobby(t *testing.T) {
	result := RunMatching([]Participant{makeUser("lonely", 5, "deep-work")})

	if len(result.Groups) != 0 {
		t.Fatalf("expected no groups, got %d", len(result.Groups))
	}
	if len(result.LobbyUsers) != 1 {
		t.Fatalf("expected 1 lobby user, got %d", len(result.LobbyUsers))
	}
	if result.LobbyUsers[0].Handle != "lonely" {
		t.Errorf("unexpected lobby user: %q", result.LobbyUsers[0].Handle)
	}
}

func TestMembersSortedByStreakDescending(t *testing.T) {
	users := []Participant{
		makeUser("low", 10, "deep-work"),
		makeUser("high", 100, "deep-work"),
		makeUser("mid", 50, "deep-work"),
	}

	result := RunMatching(users)

	if len(result.Groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(result.Groups))
	}
	members := result.Groups[0].Members
	if members[0].Streak != 100 || members[1].Streak != 50 || members[2].Streak != 10 {
		t.Errorf("members not sorted by streak descending: %+v", members)
	}
}

func TestStableSortKeepsInputOrderOnTies(t *testing.T) {
	users := []Participant{
		makeUser("first", 7, "deep-work"),
		makeUser("second", 7, "deep-work"),
		makeUser("third", 7, "deep-work"),
	}

	result := RunMatching(users)

	members := result.Groups[0].Members
	if members[0].Handle != "first" || members[1].Handle != "second" || members[2].Handle != "third" {
		t.Errorf("tie-break broke input order: %+v", members)
	}
}

func TestMatchedAndUniversalMix(t *testing.T) {
	// 2 users share a session type, 2 more are singles elsewhere: one
	// matched pair plus one universal pair.
	users := []Participant{
		makeUser("a1", 10, "deep-work"),
		makeUser("a2", 10, "deep-work"),
		makeUser("b1", 10, "writing"),
		makeUser("c1", 10, "study"),
	}

	result := RunMatching(users)

	if len(result.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(result.Groups))
	}
	types := map[string]int{}
	for _, g := range result.Groups {
		types[g.Type]++
	}
	if types[GroupTypeMatched] != 1 || types[GroupTypeUniversal] != 1 {
		t.Errorf("expected one matched and one universal group, got %v", types)
	}
	if len(result.LobbyUsers) != 0 {
		t.Errorf("expected no lobby users, got %d", len(result.LobbyUsers))
	}
}

func TestSameTypeGroupSizeSequences(t *testing.T) {
	cases := []struct {
		n     int
		sizes []int
	}{
		{5, []int{3, 2}},
		{6, []int{3, 3}},
		{7, []int{3, 2, 2}},
		{8, []int{3, 3, 2}},
		{9, []int{3, 3, 3}},
		{10, []int{3, 3, 2, 2}},
	}

	for _, tc := range cases {
		var users []Participant
		for i := 0; i < tc.n; i++ {
			users = append(users, makeUser(fmt.Sprintf("u%d", i), 10, "deep-work"))
		}

		result := RunMatching(users)

		var sizes []int
		for _, g := range result.Groups {
			sizes = append(sizes, len(g.Members))
		}
		if !reflect.DeepEqual(sizes, tc.sizes) {
			t.Errorf("n=%d: group sizes = %v, want %v", tc.n, sizes, tc.sizes)
		}
		if len(result.LobbyUsers) != 0 {
			t.Errorf("n=%d: expected no lobby users, got %d", tc.n, len(result.LobbyUsers))
		}
	}
}

func TestEmptyInput(t *testing.T) {
	result := RunMatching(nil)
	if len(result.Groups) != 0 || len(result.LobbyUsers) != 0 {
		t.Errorf("expected empty result, got %+v", result)
	}
}

func TestAvgStreakRounding(t *testing.T) {
	cases := []struct {
		streaks []int
		want    int
	}{
		{[]int{10, 20, 30}, 20},
		{[]int{10, 15}, 13}, // 12.5 rounds up
		{[]int{1, 2, 3}, 2},
		{[]int{0, 0}, 0},
		{[]int{7, 7, 8}, 7}, // 7.33 rounds down
	}

	for _, tc := range cases {
		var users []Participant
		for i, s := range tc.streaks {
			users = append(users, makeUser(fmt.Sprintf("u%d", i), s, "deep-work"))
		}
		result := RunMatching(users)
		if len(result.Groups) != 1 {
			t.Fatalf("streaks %v: expected 1 group, got %d", tc.streaks, len(result.Groups))
		}
		if got := result.Groups[0].AvgStreak; got != tc.want {
			t.Errorf("streaks %v: avg = %d, want %d", tc.streaks, got, tc.want)
		}
	}
}

// Every produced group has 2 or 3 members, and no participant is lost:
// group sizes plus lobby leftovers always sum to the input count.
func TestConservationAcrossMixedInputs(t *testing.T) {
	sessionTypes := []string{"deep-work", "writing", "study"}
	for n := 0; n <= 25; n++ {
		var users []Participant
		for i := 0; i < n; i++ {
			users = append(users, makeUser(fmt.Sprintf("u%d", i), i*3%11, sessionTypes[i%len(sessionTypes)]))
		}

		result := RunMatching(users)

		total := len(result.LobbyUsers)
		for _, g := range result.Groups {
			if len(g.Members) < 2 || len(g.Members) > 3 {
				t.Errorf("n=%d: group of illegal size %d", n, len(g.Members))
			}
			total += len(g.Members)
		}
		if total != n {
			t.Errorf("n=%d: participants lost or duplicated, accounted for %d", n, total)
		}
		if len(result.LobbyUsers) > 1 {
			t.Errorf("n=%d: more than one lobby user: %d", n, len(result.LobbyUsers))
		}
	}
}
