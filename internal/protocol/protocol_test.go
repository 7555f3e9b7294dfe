package protocol

import (
	"encoding/json"
	"testing"
)

func TestEncodeWrapsPayload(t *testing.T) {
	b, err := Encode(&ChunkRemove{Coord: Coord{X: -1, Y: 2}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	env, err := DecodeEnvelope(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if env.Type != TypeChunkRemove {
		t.Fatalf("type=%q", env.Type)
	}
	var got ChunkRemove
	if err := json.Unmarshal(env.Payload, &got); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if got.Coord != (Coord{X: -1, Y: 2}) {
		t.Fatalf("coord=%+v", got.Coord)
	}
}

func TestDecodeEnvelopeRejectsMissingType(t *testing.T) {
	if _, err := DecodeEnvelope([]byte(`{"payload":{}}`)); err == nil {
		t.Fatalf("expected error for missing type")
	}
	if _, err := DecodeEnvelope([]byte(`not json`)); err == nil {
		t.Fatalf("expected error for garbage")
	}
}

func TestValidator(t *testing.T) {
	v, err := NewValidator()
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	valid := map[string]string{
		TypeHello:       `{"protocol_version":3,"name":"Ana"}`,
		TypeInput:       `{"dx":1,"dy":0,"attack":true}`,
		TypeSpawn:       ``,
		TypeCraft:       `{"recipe":"stone_axe"}`,
		TypeTrade:       `{"npc":"n:0:0:1","offer":"flask_for_berries"}`,
		TypeNPCAction:   `{"npc":"n:0:0:1"}`,
		TypeAcceptQuest: `{"npc":"n:0:0:1","quest":"first_tools"}`,
		TypeSelectSlot:  `{"slot":3}`,
		TypeSwapSlots:   `{"a":0,"b":8}`,
		TypeRename:      `{"name":"Rosa"}`,
	}
	for typ, payload := range valid {
		if err := v.Validate(typ, json.RawMessage(payload)); err != nil {
			t.Errorf("%s: %v", typ, err)
		}
	}
	invalid := map[string]string{
		TypeHello:      `{"name":"Ana"}`,
		TypeInput:      `{"dx":"fast"}`,
		TypeCraft:      `{}`,
		TypeSelectSlot: `{"slot":1.5}`,
		TypeSwapSlots:  `{"a":0,"b":1,"c":2}`,
	}
	for typ, payload := range invalid {
		if err := v.Validate(typ, json.RawMessage(payload)); err == nil {
			t.Errorf("%s accepted %s", typ, payload)
		}
	}
	if v.Known("teleport") {
		t.Fatalf("unknown type reported as known")
	}
}
