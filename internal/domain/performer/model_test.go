package performer

import "testing"

func TestScoreNormalization(t *testing.T) {
	t.Parallel()

	cases := []struct {
		kind  StatKind
		value int
		want  float64
	}{
		{StatGoals, 10, 50},
		{StatGoals, 20, 100},
		{StatGoals, 35, 100},
		{StatYellowCards, 5, 50},
		{StatRedCards, 5, 100},
		{StatRedCards, 0, 0},
		{StatGoals, -1, 0},
	}

	for _, tc := range cases {
		if got := Score(tc.kind, tc.value); got != tc.want {
			t.Fatalf("Score(%s, %d) = %v, want %v", tc.kind, tc.value, got, tc.want)
		}
	}
}
