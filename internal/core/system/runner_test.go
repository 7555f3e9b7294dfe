package system

import (
	"testing"
	"time"
)

type recorder struct {
	name  string
	phase Phase
	log   *[]string
}

func (r recorder) Phase() Phase { return r.phase }

func (r recorder) Update(time.Duration) { *r.log = append(*r.log, r.name) }

func TestRunnerOrdersByPhaseThenRegistration(t *testing.T) {
	var log []string
	r := NewRunner()
	r.Register(recorder{"output", PhaseOutput, &log})
	r.Register(recorder{"survival", PhaseSurvival, &log})
	r.Register(recorder{"drain", PhaseInput, &log})
	r.Register(recorder{"quest", PhaseInteraction, &log})
	r.Register(recorder{"interaction", PhaseInteraction, &log})

	var phases []Phase
	r.Observe(func(p Phase) { phases = append(phases, p) })
	r.Tick(time.Second / 30)

	want := []string{"drain", "quest", "interaction", "survival", "output"}
	if len(log) != len(want) {
		t.Fatalf("ran %v", log)
	}
	for i := range want {
		if log[i] != want[i] {
			t.Fatalf("order=%v, want %v", log, want)
		}
	}
	if len(phases) != 4 {
		t.Fatalf("observer saw %v", phases)
	}

	log = nil
	r.TickPhase(PhaseInteraction, 0)
	if len(log) != 2 || log[0] != "quest" {
		t.Fatalf("TickPhase ran %v", log)
	}
}
