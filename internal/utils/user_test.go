package utils

import (
	"math"
	"testing"
)

func TestXPThreshold(t *testing.T) {
	cases := map[int]int{
		1: 100,
		2: 150,
		3: 225,
		4: 337,
		5: 506,
		0: 100,
	}
	for level, want := range cases {
		if got := XPThreshold(level); got != want {
			t.Errorf("XPThreshold(%d) = %d, want %d", level, got, want)
		}
	}
}

func TestLevelProgress(t *testing.T) {
	if got := LevelProgress(50, 1); got != 50 {
		t.Errorf("expected 50, got %d", got)
	}
	if got := LevelProgress(0, 3); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
	if got := LevelProgress(1000, 1); got != 100 {
		t.Errorf("expected progress to cap at 100, got %d", got)
	}
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("hunter22")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if !CheckPasswordHash("hunter22", hash) {
		t.Error("expected password to match its hash")
	}
	if CheckPasswordHash("hunter23", hash) {
		t.Error("expected wrong password to be rejected")
	}
}

func TestXPThresholdCapsAtHighLevels(t *testing.T) {
	prev := 0
	for level := 90; level <= 2000; level += 10 {
		got := XPThreshold(level)
		if got <= 0 || got < prev {
			t.Fatalf("XPThreshold(%d) = %d, expected a positive non-decreasing value", level, got)
		}
		prev = got
	}
	if got := XPThreshold(5000); got != math.MaxInt {
		t.Errorf("expected cap at math.MaxInt, got %d", got)
	}
}
