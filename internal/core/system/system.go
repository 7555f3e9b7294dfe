package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput       Phase = iota // 0: drain the command queue
	PhasePreUpdate                // 1: deliver last tick's domain events
	PhaseInteraction              // 2: movement + one action per player
	PhaseSurvival                 // 3: hunger, thirst, temperature, regen
	PhaseBarrier                  // 4: purge hostiles inside safe zones
	PhaseSpawn                    // 5: respawn cooldowns
	PhaseAI                       // 6: mob wander / chase / contact damage
	PhaseDeath                    // 7: unspawn dead players
	PhaseAchievement              // 8: unlock achievements
	PhaseInterest                 // 9: view / sim diff, lazy generation
	PhaseOutput                   // 10: entity deltas + private updates
	PhasePersist                  // 11: periodic checkpoint
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseInteraction:
		return "interaction"
	case PhaseSurvival:
		return "survival"
	case PhaseBarrier:
		return "barrier"
	case PhaseSpawn:
		return "spawn"
	case PhaseAI:
		return "ai"
	case PhaseDeath:
		return "death"
	case PhaseAchievement:
		return "achievement"
	case PhaseInterest:
		return "interest"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	default:
		return "unknown"
	}
}

// System is the interface every pipeline stage implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
