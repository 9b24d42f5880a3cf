package orchestrator

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
)

func TestWriteReadFrame_RoundTrip(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	payload := []byte(`{"hello":"world"}`)
	if err := WriteFrame(&buf, payload); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadFrame(&buf, MaxFrameBytes)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("round trip mismatch: got %q, want %q", got, payload)
	}
}

// TestReadFrame_RejectsOversizedDeclaration ensures ReadFrame refuses a
// frame whose declared length exceeds the ceiling before attempting to
// read (and thus allocate a buffer for) the body - the reader here only
// supplies the 4-byte header, so a naive implementation that allocated
// first and read second would block or panic rather than returning
// ErrFrameTooLarge immediately.
func TestReadFrame_RejectsOversizedDeclaration(t *testing.T) {
	t.Parallel()

	header := []byte{0xFF, 0xFF, 0xFF, 0xFF} // declares ~4GiB, far past MaxFrameBytes
	_, err := ReadFrame(bytes.NewReader(header), MaxFrameBytes)

	var tooLarge *ErrFrameTooLarge
	if !errors.As(err, &tooLarge) {
		t.Fatalf("expected *ErrFrameTooLarge, got %v", err)
	}
}

func TestWriteRequest_ReadResponse(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	req := Request{RequestID: 42, ProjectPath: "/tmp/proj", Language: "go", TimeoutMs: 5000, Version: "1"}
	if err := WriteRequest(&buf, req); err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}

	// WriteRequest framed a Request; simulate an extractor replying with a
	// framed Response on a separate buffer instead of decoding req back
	// (Request and Response are distinct shapes).
	var respBuf bytes.Buffer
	resp := Response{RequestID: req.RequestID, Success: true, IR: []byte(`{"facts":[]}`)}
	payloadBytes, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}
	if err := WriteFrame(&respBuf, payloadBytes); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}

	got, err := ReadResponse(&respBuf)
	if err != nil {
		t.Fatalf("ReadResponse: %v", err)
	}
	if got.RequestID != resp.RequestID || !got.Success {
		t.Errorf("ReadResponse mismatch: got %+v", got)
	}
}
