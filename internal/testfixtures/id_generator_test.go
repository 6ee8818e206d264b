package testfixtures

import "testing"

func TestIDGeneratorProducesSequentialIDs(t *testing.T) {
	gen := NewIDGenerator("res")

	first := gen.Next()
	second := gen.Next()

	if first != "res-1" || second != "res-2" {
		t.Fatalf("unexpected identifiers: %q, %q", first, second)
	}
}

func TestIDGeneratorCanReset(t *testing.T) {
	gen := NewIDGenerator("")
	_ = gen.Next()
	gen.SetCounter(0)

	if next := gen.NextFunc()(); next != "id-1" {
		t.Fatalf("expected id-1 after reset, got %q", next)
	}
}
