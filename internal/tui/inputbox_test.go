package tui

import (
	"strings"
	"testing"
)

func TestInputBoxInsertAndValue(t *testing.T) {
	b := NewInputBox()
	for _, c := range []byte("hi") {
		b.InsertByte(c)
	}
	if b.Value() != "hi" {
		t.Fatalf("Value() = %q", b.Value())
	}
}

func TestInputBoxBackspaceRemovesLastRune(t *testing.T) {
	b := NewInputBox()
	for _, c := range []byte("café") {
		b.InsertByte(c)
	}
	b.Backspace()
	if b.Value() != "caf" {
		t.Fatalf("Value() = %q, want %q", b.Value(), "caf")
	}
}

func TestInputBoxResetClearsBuffer(t *testing.T) {
	b := NewInputBox()
	b.InsertByte('x')
	b.Reset()
	if !b.IsEmpty() {
		t.Fatal("expected empty buffer after Reset")
	}
}

func TestInputBoxRenderHasBorder(t *testing.T) {
	b := NewInputBox()
	b.InsertByte('h')
	rows := b.Render(20)
	if len(rows) != 5 {
		t.Fatalf("len(rows) = %d, want 5", len(rows))
	}
	first := rows[0][0].Text
	if !strings.HasPrefix(first, "┌") || !strings.HasSuffix(first, "┐") {
		t.Fatalf("top border = %q", first)
	}
	last := rows[len(rows)-1][0].Text
	if !strings.HasPrefix(last, "└") || !strings.HasSuffix(last, "┘") {
		t.Fatalf("bottom border = %q", last)
	}
}
