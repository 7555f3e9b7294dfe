package net

import (
	"encoding/json"
	"fmt"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/protocol"
)

// decodeCommand turns a validated inbound envelope into a command for
// playerID. Hello is handled by the handshake and is not a command.
func decodeCommand(env protocol.Envelope, playerID string) (command.Command, error) {
	cmd := command.Command{PlayerID: playerID}
	payload := env.Payload
	if len(payload) == 0 {
		payload = json.RawMessage("{}")
	}

	var err error
	switch env.Type {
	case protocol.TypeInput:
		var m protocol.InputMsg
		if err = json.Unmarshal(payload, &m); err == nil {
			cmd.Kind = command.KindInput
			cmd.Input = &command.InputCommand{
				DX: m.DX, DY: m.DY,
				Attack: m.Attack, Interact: m.Interact,
				AimX: m.AimX, AimY: m.AimY,
			}
		}
	case protocol.TypeSpawn:
		var m protocol.SpawnMsg
		if err = json.Unmarshal(payload, &m); err == nil {
			cmd.Kind = command.KindSpawn
			cmd.Spawn = &command.SpawnCommand{Settlement: m.Settlement}
		}
	case protocol.TypeCraft:
		var m protocol.CraftMsg
		if err = json.Unmarshal(payload, &m); err == nil {
			cmd.Kind = command.KindCraft
			cmd.Craft = &command.CraftCommand{Recipe: m.Recipe}
		}
	case protocol.TypeTrade:
		var m protocol.TradeMsg
		if err = json.Unmarshal(payload, &m); err == nil {
			cmd.Kind = command.KindTrade
			cmd.Trade = &command.TradeCommand{NPC: m.NPC, Offer: m.Offer}
		}
	case protocol.TypeNPCAction:
		var m protocol.NPCActionMsg
		if err = json.Unmarshal(payload, &m); err == nil {
			cmd.Kind = command.KindNPCAction
			cmd.NPCAction = &command.NPCActionCommand{NPC: m.NPC, Option: m.Option}
		}
	case protocol.TypeAcceptQuest:
		var m protocol.AcceptQuestMsg
		if err = json.Unmarshal(payload, &m); err == nil {
			cmd.Kind = command.KindAcceptQuest
			cmd.AcceptQuest = &command.AcceptQuestCommand{NPC: m.NPC, Quest: m.Quest}
		}
	case protocol.TypeSelectSlot:
		var m protocol.SelectSlotMsg
		if err = json.Unmarshal(payload, &m); err == nil {
			cmd.Kind = command.KindSelectSlot
			cmd.SelectSlot = &command.SelectSlotCommand{Slot: m.Slot}
		}
	case protocol.TypeSwapSlots:
		var m protocol.SwapSlotsMsg
		if err = json.Unmarshal(payload, &m); err == nil {
			cmd.Kind = command.KindSwapSlots
			cmd.SwapSlots = &command.SwapSlotsCommand{A: m.A, B: m.B}
		}
	case protocol.TypeRename:
		var m protocol.RenameMsg
		if err = json.Unmarshal(payload, &m); err == nil {
			cmd.Kind = command.KindRename
			cmd.Rename = &command.RenameCommand{Name: m.Name}
		}
	default:
		return command.Command{}, fmt.Errorf("unexpected message type %q", env.Type)
	}
	if err != nil {
		return command.Command{}, fmt.Errorf("%s payload: %w", env.Type, err)
	}
	return cmd, nil
}
