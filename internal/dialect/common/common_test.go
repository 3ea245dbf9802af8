package common

import (
	"bytes"
	"testing"

	"github.com/kstaniek/mavgw/internal/frame"
	mavio "github.com/kstaniek/mavgw/internal/ioutil"
)

func TestHeartbeatEndToEnd(t *testing.T) {
	want := Heartbeat{CustomMode: 0, Type: 1, Autopilot: 3, BaseMode: 0x81, SystemStatus: 4, MavlinkVersion: 3}
	payload, err := encodeHeartbeat(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	wire, err := frame.Write(frame.WriteRequest{
		V2: false, Sequence: 0, SystemID: 1, ComponentID: 1,
		MessageID: HeartbeatID, Payload: payload,
	}, heartbeatExtra)
	if err != nil {
		t.Fatalf("frame.Write: %v", err)
	}
	if !bytes.Equal(wire[15:17], []byte{0x65, 0x9D}) {
		t.Fatalf("crc = % X, want 65 9D", wire[15:17])
	}

	p := frame.NewParser(mavio.New(bytes.NewReader(wire), mavio.MinCapacity), Dialect, nil)
	raw, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}

	got, err := Dialect.Decode(raw.MessageID, raw.Payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(Heartbeat) != want {
		t.Fatalf("decoded = %+v, want %+v", got, want)
	}
}

func TestParamValueV2RoundTrip(t *testing.T) {
	want := ParamValue{ParamValue: 1.5, ParamCount: 10, ParamIndex: 2, ParamType: 9}
	copy(want.ParamID[:], "THR_MIN")

	payload, err := encodeParamValue(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	wire, err := frame.Write(frame.WriteRequest{
		V2: true, Sequence: 1, SystemID: 1, ComponentID: 1,
		MessageID: ParamValueID, Payload: payload,
	}, paramValueExtra)
	if err != nil {
		t.Fatalf("frame.Write: %v", err)
	}

	p := frame.NewParser(mavio.New(bytes.NewReader(wire), mavio.MinCapacity), Dialect, nil)
	raw, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	got, err := Dialect.Decode(raw.MessageID, raw.Payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pv := got.(ParamValue)
	if pv.ParamValue != want.ParamValue || pv.ParamCount != want.ParamCount || pv.ParamID != want.ParamID {
		t.Fatalf("decoded = %+v, want %+v", pv, want)
	}
}

func TestCommandLongRoundTrip(t *testing.T) {
	want := CommandLong{Param1: 1, Command: 400, TargetSystem: 1, TargetComponent: 1, Confirmation: 0}
	payload, err := encodeCommandLong(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	wire, err := frame.Write(frame.WriteRequest{
		V2: false, Sequence: 2, SystemID: 1, ComponentID: 1,
		MessageID: CommandLongID, Payload: payload,
	}, commandLongExtra)
	if err != nil {
		t.Fatalf("frame.Write: %v", err)
	}
	p := frame.NewParser(mavio.New(bytes.NewReader(wire), mavio.MinCapacity), Dialect, nil)
	raw, err := p.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	got, err := Dialect.Decode(raw.MessageID, raw.Payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.(CommandLong) != want {
		t.Fatalf("decoded = %+v, want %+v", got, want)
	}
}
