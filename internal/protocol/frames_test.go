package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func decodeFrame(t *testing.T, f *Frame) map[string]any {
	t.Helper()
	data, err := f.Serialize()
	if err != nil {
		t.Fatalf("Serialize() error: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("serialized frame is not valid JSON: %v", err)
	}
	return out
}

func TestServerReadyFrame(t *testing.T) {
	out := decodeFrame(t, ServerReady())

	if out["type"] != "update" {
		t.Errorf("type = %v, want update", out["type"])
	}
	if out["source"] != "server" {
		t.Errorf("source = %v, want server", out["source"])
	}
	status := out["status"].(map[string]any)
	if int(status["code"].(float64)) != CodeServerReady {
		t.Errorf("status.code = %v, want %d", status["code"], CodeServerReady)
	}
	if status["severity"] != SeverityOK {
		t.Errorf("status.severity = %v, want %q", status["severity"], SeverityOK)
	}
}

func TestAckFrameCarriesMetadata(t *testing.T) {
	out := decodeFrame(t, Ack(&Metadata{ServerSideReqID: "s1", ClientSideReqID: "c1"}))

	status := out["status"].(map[string]any)
	if int(status["code"].(float64)) != CodeReceived {
		t.Errorf("status.code = %v, want %d", status["code"], CodeReceived)
	}
	meta := out["metadata"].(map[string]any)
	if meta["serverSideReqId"] != "s1" || meta["clientSideReqId"] != "c1" {
		t.Errorf("metadata = %v, want s1/c1", meta)
	}
}

func TestErrorFrame(t *testing.T) {
	out := decodeFrame(t, ErrorFrame("server", InvalidTarget(""), nil))

	status := out["status"].(map[string]any)
	if int(status["code"].(float64)) != CodeInvalidTarget {
		t.Errorf("status.code = %v, want %d", status["code"], CodeInvalidTarget)
	}
	if status["severity"] != SeverityError {
		t.Errorf("status.severity = %v, want %q", status["severity"], SeverityError)
	}
	if _, ok := out["payload"]; ok {
		t.Error("update frame should not carry a payload")
	}
}

func TestEventFrame(t *testing.T) {
	out := decodeFrame(t, NewEvent("chat", json.RawMessage(`{"text":"hi"}`)))

	if out["type"] != "event" {
		t.Errorf("type = %v, want event", out["type"])
	}
	payload := out["payload"].(map[string]any)
	if payload["text"] != "hi" {
		t.Errorf("payload.text = %v, want hi", payload["text"])
	}
	if _, ok := out["status"]; ok {
		t.Error("event frame should not carry a status")
	}
}

func TestSanitizePassesAppErrors(t *testing.T) {
	orig := InvalidTarget("Target not found.")
	got := Sanitize(orig)
	if got != orig {
		t.Error("Sanitize() rewrapped an AppError")
	}
}

func TestSanitizeWrapsUnknownErrors(t *testing.T) {
	got := Sanitize(errors.New("pq: relation users does not exist"))
	if got.Code != CodeInternalError {
		t.Errorf("Code = %d, want %d", got.Code, CodeInternalError)
	}
	if got.Message != internalErrorMessage {
		t.Errorf("Message = %q leaks detail", got.Message)
	}
}

func TestSanitizeUnwrapsNestedAppError(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), InvalidMessageFormat(""))
	got := Sanitize(wrapped)
	if got.Code != CodeInvalidInput {
		t.Errorf("Code = %d, want %d", got.Code, CodeInvalidInput)
	}
}
