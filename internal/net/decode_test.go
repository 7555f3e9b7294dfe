package net

import (
	"encoding/json"
	"testing"

	"github.com/wildhold/server/internal/command"
	"github.com/wildhold/server/internal/protocol"
)

func TestDecodeCommand(t *testing.T) {
	cases := []struct {
		typ     string
		payload string
		check   func(command.Command) bool
	}{
		{protocol.TypeInput, `{"dx":1,"dy":-1,"attack":true,"aim_x":3,"aim_y":4}`, func(c command.Command) bool {
			return c.Kind == command.KindInput && c.Input.DX == 1 && c.Input.DY == -1 && c.Input.Attack && c.Input.AimY == 4
		}},
		{protocol.TypeSpawn, ``, func(c command.Command) bool {
			return c.Kind == command.KindSpawn && c.Spawn.Settlement == ""
		}},
		{protocol.TypeTrade, `{"npc":"n:0:0:1","offer":"o1"}`, func(c command.Command) bool {
			return c.Kind == command.KindTrade && c.Trade.NPC == "n:0:0:1" && c.Trade.Offer == "o1"
		}},
		{protocol.TypeNPCAction, `{"npc":"n:0:0:1","option":"bye"}`, func(c command.Command) bool {
			return c.Kind == command.KindNPCAction && c.NPCAction.Option == "bye"
		}},
		{protocol.TypeAcceptQuest, `{"npc":"n:0:0:1","quest":"q"}`, func(c command.Command) bool {
			return c.Kind == command.KindAcceptQuest && c.AcceptQuest.Quest == "q"
		}},
		{protocol.TypeSwapSlots, `{"a":2,"b":5}`, func(c command.Command) bool {
			return c.Kind == command.KindSwapSlots && c.SwapSlots.A == 2 && c.SwapSlots.B == 5
		}},
		{protocol.TypeRename, `{"name":"Rosa"}`, func(c command.Command) bool {
			return c.Kind == command.KindRename && c.Rename.Name == "Rosa"
		}},
	}
	for _, tc := range cases {
		cmd, err := decodeCommand(protocol.Envelope{Type: tc.typ, Payload: json.RawMessage(tc.payload)}, "p1")
		if err != nil {
			t.Errorf("%s: %v", tc.typ, err)
			continue
		}
		if cmd.PlayerID != "p1" || !tc.check(cmd) {
			t.Errorf("%s: decoded %+v", tc.typ, cmd)
		}
	}
}

func TestDecodeCommandRejectsHello(t *testing.T) {
	if _, err := decodeCommand(protocol.Envelope{Type: protocol.TypeHello}, "p1"); err == nil {
		t.Fatalf("hello decoded as a command")
	}
}
