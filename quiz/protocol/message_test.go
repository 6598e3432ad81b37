package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestDecode_ValidFrame(t *testing.T) {
	env, err := Decode([]byte(`{"type":"HOST_JOIN","payload":{"sessionId":"s1","sessionCode":"ABCDEF"}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if env.Type != TypeHostJoin {
		t.Errorf("Type = %q, want %q", env.Type, TypeHostJoin)
	}

	var p HostJoin
	if err := DecodePayload(env, &p); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if p.SessionID != "s1" || p.SessionCode != "ABCDEF" {
		t.Errorf("payload = %+v", p)
	}
}

func TestDecode_MissingPayload(t *testing.T) {
	env, err := Decode([]byte(`{"type":"START_GAME"}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	var p struct{}
	if err := DecodePayload(env, &p); err != nil {
		t.Errorf("DecodePayload() on absent payload error = %v", err)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr error
	}{
		{"not json", `not json at all`, ErrMalformed},
		{"empty object", `{}`, ErrMalformed},
		{"missing type", `{"payload":{}}`, ErrMalformed},
		{"unknown type", `{"type":"LAUNCH_MISSILES"}`, ErrUnknownType},
		{"outbound type not accepted", `{"type":"GAME_STARTED"}`, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.data))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode(%q) error = %v, want %v", tt.data, err, tt.wantErr)
			}
		})
	}
}

func TestDecodePayload_NonIntegerSharedState(t *testing.T) {
	env, err := Decode([]byte(`{"type":"ADMIN_UPDATE_SHARED_STATE","payload":{"newState":"five"}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	var p AdminUpdateSharedState
	if err := DecodePayload(env, &p); err == nil {
		t.Error("DecodePayload() accepted a non-numeric newState")
	}

	env, _ = Decode([]byte(`{"type":"ADMIN_UPDATE_SHARED_STATE","payload":{"newState":5.5}}`))
	p = AdminUpdateSharedState{}
	if err := DecodePayload(env, &p); err == nil {
		t.Error("DecodePayload() accepted a fractional newState")
	}
}

func TestDecodePayload_MissingSharedState(t *testing.T) {
	env, err := Decode([]byte(`{"type":"ADMIN_UPDATE_SHARED_STATE","payload":{}}`))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}

	var p AdminUpdateSharedState
	if err := DecodePayload(env, &p); err != nil {
		t.Fatalf("DecodePayload() error = %v", err)
	}
	if p.NewState != nil {
		t.Errorf("NewState = %v, want nil for absent value", *p.NewState)
	}
}

func TestEncode_Roundtrip(t *testing.T) {
	data, err := Encode(TypeShowQuestion, ShowQuestion{
		Index:   2,
		Text:    "What?",
		Options: []string{"a", "b"},
	})
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("encoded frame is not valid JSON: %v", err)
	}
	if env.Type != TypeShowQuestion {
		t.Errorf("Type = %q, want %q", env.Type, TypeShowQuestion)
	}

	var q ShowQuestion
	if err := json.Unmarshal(env.Payload, &q); err != nil {
		t.Fatalf("payload unmarshal error = %v", err)
	}
	if q.Index != 2 || q.Text != "What?" || len(q.Options) != 2 {
		t.Errorf("payload = %+v", q)
	}
}

func TestEncode_NilPayload(t *testing.T) {
	data, err := Encode(TypeGameStarted, nil)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatalf("encoded frame is not valid JSON: %v", err)
	}
	if string(env.Payload) != "{}" {
		t.Errorf("Payload = %s, want empty object", env.Payload)
	}
}
