package util

import (
	"testing"
)

func TestStripSegmentName(t *testing.T) {
	s := StripSegmentName("_0.tis")
	if s != ".tis" {
		t.Errorf("Expected '.tis' but was '%v'", s)
	}

	s = StripSegmentName("_0_1.del")
	if s != "_1.del" {
		t.Errorf("Expected '_1.del', but was '%v'", s)
	}
}

func TestSegmentFileName(t *testing.T) {
	assertEquals(t, SegmentFileName("_3", "", "tii"), "_3.tii")
	assertEquals(t, SegmentFileName("_3", "1", "del"), "_3_1.del")
	assertEquals(t, SegmentFileName("_3", "", ""), "_3")
	assertEquals(t, ParseSegmentName("_3.tis"), "_3")
	assertEquals(t, StripExtension("_3.tis"), "_3")
}
