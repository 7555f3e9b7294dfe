package system

import (
	"github.com/wildhold/server/internal/core/event"
	"github.com/wildhold/server/internal/data"
	"github.com/wildhold/server/internal/handler"
)

// SubscribeQuestProgress feeds gather, kill and craft events into quest
// objectives. Progress lands one tick after the action, when the bus
// delivers.
func SubscribeQuestProgress(deps *handler.Deps) {
	event.Subscribe(deps.Bus, func(e event.ResourceGathered) {
		handler.AdvanceQuests(deps, e.PlayerID, data.ObjectiveGather, e.Subtype, 1)
	})
	event.Subscribe(deps.Bus, func(e event.MobKilled) {
		handler.AdvanceQuests(deps, e.PlayerID, data.ObjectiveKill, e.Subtype, 1)
	})
	event.Subscribe(deps.Bus, func(e event.ItemCrafted) {
		handler.AdvanceQuests(deps, e.PlayerID, data.ObjectiveCraft, e.Output, e.Count)
	})
}
