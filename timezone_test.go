package snowql

import (
	"testing"
	"time"
)

func TestLocationWithOffsetCaches(t *testing.T) {
	a := locationWithOffset(120)
	b := locationWithOffset(120)
	if a != b {
		t.Error("expected cached Location to be returned for the same offset")
	}
	_, off := time.Now().In(a).Zone()
	if off != 120*60 {
		t.Errorf("offset = %d, want %d", off, 120*60)
	}
}

func TestLocationFromBiasedOffset(t *testing.T) {
	// S5: stored offset 1500 -> real offset (1500-1440)*60 = 3600s east.
	loc := locationFromBiasedOffset(1500)
	_, off := time.Now().In(loc).Zone()
	if off != 3600 {
		t.Errorf("offset = %d, want 3600", off)
	}
}

func TestGenTimezoneNegative(t *testing.T) {
	loc := locationWithOffset(-90)
	_, off := time.Now().In(loc).Zone()
	if off != -90*60 {
		t.Errorf("offset = %d, want %d", off, -90*60)
	}
}
