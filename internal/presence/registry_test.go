package presence

import "testing"

type fakeSender struct{ name string }

func (f *fakeSender) Send(event string, payload any) error { return nil }

func TestBindLookup(t *testing.T) {
	r := NewRegistry()
	s := &fakeSender{"a"}
	r.Bind("p1", s)
	got, ok := r.Lookup("p1")
	if !ok || got != s {
		t.Fatal("expected bound session")
	}
	if _, ok := r.Lookup("p2"); ok {
		t.Fatal("expected absent binding for p2")
	}
}

func TestBindLastWriterWins(t *testing.T) {
	r := NewRegistry()
	old := &fakeSender{"old"}
	fresh := &fakeSender{"fresh"}
	r.Bind("p1", old)
	r.Bind("p1", fresh)

	got, _ := r.Lookup("p1")
	if got != fresh {
		t.Fatal("expected newest session to win")
	}

	// A late disconnect from the replaced session must not evict the
	// current binding.
	r.Unbind(old)
	if got, ok := r.Lookup("p1"); !ok || got != fresh {
		t.Fatal("stale unbind removed the fresh binding")
	}
}

func TestUnbindIdempotent(t *testing.T) {
	r := NewRegistry()
	s := &fakeSender{"a"}
	r.Bind("p1", s)
	r.Unbind(s)
	r.Unbind(s) // no binding left; must not panic or affect others
	if r.Connected("p1") {
		t.Fatal("expected p1 disconnected")
	}
}
