package logging

import "testing"

func TestNopDoesNotPanic(t *testing.T) {
	l := Nop()
	l.Infow("frame submitted", "frame", 1)
	l.Named("pipeline").Warnw("cache miss", "hash", uint64(42))
}

func TestSetLevel(t *testing.T) {
	l := New(Info)
	l.SetLevel(Error)
	if l.level.Level() != Error {
		t.Errorf("level = %v, want Error", l.level.Level())
	}
}
