package health

import "testing"

func TestAggregatesSingleBadVerdict(t *testing.T) {
	verdicts := []Verdict{
		{Server: "pvwa01", Status: StatusGood},
		{Server: "pvwa02", Status: StatusGood},
		{Server: "cpm01", Status: StatusBad},
		{Server: "psm01", Status: StatusGood},
	}
	if status := Aggregate(verdicts); status != StatusBad {
		t.Errorf("expected fleet status %s but got %s", StatusBad, status)
	}
}

func TestAggregatesAllGoodVerdicts(t *testing.T) {
	verdicts := []Verdict{
		{Server: "pvwa01", Status: StatusGood},
		{Server: "cpm01", Status: StatusGood},
		{Server: "psm01", Status: StatusGood},
	}
	if status := Aggregate(verdicts); status != StatusGood {
		t.Errorf("expected fleet status %s but got %s", StatusGood, status)
	}
}

func TestAggregateIsOrderIndependent(t *testing.T) {
	verdicts := []Verdict{
		{Server: "a", Status: StatusGood},
		{Server: "b", Status: StatusBad},
		{Server: "c", Status: StatusGood},
	}
	expected := Aggregate(verdicts)
	permutations := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, permutation := range permutations {
		permuted := make([]Verdict, 0, len(verdicts))
		for _, i := range permutation {
			permuted = append(permuted, verdicts[i])
		}
		if status := Aggregate(permuted); status != expected {
			t.Errorf("permutation %v: expected %s but got %s", permutation, expected, status)
		}
	}
}

func TestAggregatesEmptyFleetAsGood(t *testing.T) {
	if status := Aggregate(nil); status != StatusGood {
		t.Errorf("expected fleet status %s but got %s", StatusGood, status)
	}
}
