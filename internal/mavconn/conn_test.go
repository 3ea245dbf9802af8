package mavconn

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/kstaniek/mavgw/internal/dialect/common"
)

func TestFileConnectionSendThenRecv(t *testing.T) {
	tmp, err := os.CreateTemp(t.TempDir(), "mavgw-file-*.bin")
	if err != nil {
		t.Fatalf("CreateTemp: %v", err)
	}
	path := tmp.Name()
	_ = tmp.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	conn, err := Dial(ctx, "file:"+path, common.Dialect, WithIdentity(1, 1))
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}

	hb := common.Heartbeat{Type: 2, Autopilot: 12, BaseMode: 0x81, SystemStatus: 4, MavlinkVersion: 3}
	payload, err := common.Dialect.EncodePayload(common.HeartbeatID, hb)
	if err != nil {
		t.Fatalf("EncodePayload: %v", err)
	}
	if err := conn.Send(ctx, OutgoingMessage{MessageID: common.HeartbeatID, Payload: payload, CRCExtra: 50}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if err := conn.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen for reading: the file transport writes to the same handle it
	// reads from, so a fresh connection starts its read cursor where the
	// writer left its write cursor in a single shared fd; reopening models
	// an independent reader consuming a capture file end to end.
	readCtx, readCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer readCancel()
	reader, err := Dial(readCtx, "file:"+path, common.Dialect)
	if err != nil {
		t.Fatalf("Dial (read): %v", err)
	}
	defer reader.Close()

	raw, err := reader.Recv(readCtx)
	if err != nil {
		t.Fatalf("Recv: %v", err)
	}
	got, err := common.Dialect.Decode(raw.MessageID, raw.Payload)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	decoded := got.(common.Heartbeat)
	if decoded.Type != hb.Type || decoded.Autopilot != hb.Autopilot {
		t.Fatalf("decoded = %+v, want %+v", decoded, hb)
	}
}
