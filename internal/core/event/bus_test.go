package event

import "testing"

type ping struct{ n int }
type pong struct{ n int }

func TestBusDeliversNextTickInOrder(t *testing.T) {
	b := NewBus()
	var got []int
	Subscribe(b, func(e ping) { got = append(got, e.n) })
	Subscribe(b, func(e pong) { got = append(got, -e.n) })

	Emit(b, ping{1})
	Emit(b, pong{2})
	Emit(b, ping{3})
	b.DispatchAll()
	if len(got) != 0 {
		t.Fatalf("delivered before swap: %v", got)
	}

	b.SwapBuffers()
	b.DispatchAll()
	want := []int{1, -2, 3}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}

	b.SwapBuffers()
	got = nil
	b.DispatchAll()
	if len(got) != 0 {
		t.Fatalf("events redelivered: %v", got)
	}
}
