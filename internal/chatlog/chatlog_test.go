package chatlog

import "testing"

func TestRecentReturnsLinesInOrder(t *testing.T) {
	b := New(10, nil)
	b.LogChat("alice", 1, "hello")
	b.LogChat("bob", 2, "hi there")

	lines := b.Recent()
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Message != "hello" || lines[1].Message != "hi there" {
		t.Fatalf("unexpected order: %+v", lines)
	}
}

func TestBufferEvictsOldestPastCapacity(t *testing.T) {
	b := New(2, nil)
	b.LogChat("alice", 1, "one")
	b.LogChat("alice", 1, "two")
	b.LogChat("alice", 1, "three")

	lines := b.Recent()
	if len(lines) != 2 {
		t.Fatalf("expected capacity to cap at 2, got %d", len(lines))
	}
	if lines[0].Message != "two" || lines[1].Message != "three" {
		t.Fatalf("expected oldest line evicted, got %+v", lines)
	}
}

func TestNewTreatsNonPositiveCapacityAsOne(t *testing.T) {
	b := New(0, nil)
	b.LogChat("alice", 1, "one")
	b.LogChat("alice", 1, "two")

	lines := b.Recent()
	if len(lines) != 1 {
		t.Fatalf("expected capacity of 1, got %d", len(lines))
	}
	if lines[0].Message != "two" {
		t.Fatalf("expected only the newest line kept, got %+v", lines)
	}
}

func TestRecentReturnsACopy(t *testing.T) {
	b := New(10, nil)
	b.LogChat("alice", 1, "one")

	lines := b.Recent()
	lines[0].Message = "tampered"

	fresh := b.Recent()
	if fresh[0].Message != "one" {
		t.Fatalf("expected Recent to return an independent copy, got %q", fresh[0].Message)
	}
}
