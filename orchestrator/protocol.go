package orchestrator

import (
	"encoding/binary"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
)

// MaxFrameBytes is the backpressure ceiling on a single framed message's
// declared length. A frame exceeding it is rejected as InvalidIR without
// ever allocating a buffer that large, per spec §5.
const MaxFrameBytes uint32 = 64 * 1024 * 1024

// Request is sent to an extractor's stdin, length-prefixed, once per
// task.
type Request struct {
	RequestID   uint64 `json:"request_id"`
	ProjectPath string `json:"project_path"`
	Language    string `json:"language"`
	Config      string `json:"config"`
	TimeoutMs   uint64 `json:"timeout_ms"`
	Version     string `json:"version"`
}

// Response is read from an extractor's stdout, length-prefixed, once per
// task. IR carries the serialized IR payload (may be empty on failure).
type Response struct {
	RequestID        uint64 `json:"request_id"`
	Success          bool   `json:"success"`
	IR               []byte `json:"ir"`
	Metadata         string `json:"metadata"`
	ProcessingTimeMs uint64 `json:"processing_time_ms"`
}

// WriteFrame writes a 4-byte big-endian length prefix followed by
// payload.
func WriteFrame(w io.Writer, payload []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(payload)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return fmt.Errorf("writing frame length: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("writing frame payload: %w", err)
	}
	return nil
}

// ErrFrameTooLarge is returned by ReadFrame when a message declares a
// length beyond MaxFrameBytes.
type ErrFrameTooLarge struct {
	Declared uint32
}

func (e *ErrFrameTooLarge) Error() string {
	return fmt.Sprintf("frame declares %d bytes, exceeding ceiling of %d", e.Declared, MaxFrameBytes)
}

// ReadFrame reads a 4-byte big-endian length prefix and then exactly that
// many bytes. A declared length over maxBytes is rejected before any
// allocation of the full buffer.
func ReadFrame(r io.Reader, maxBytes uint32) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, fmt.Errorf("reading frame length: %w", err)
	}
	declared := binary.BigEndian.Uint32(lenBuf[:])
	if declared > maxBytes {
		return nil, &ErrFrameTooLarge{Declared: declared}
	}

	payload := make([]byte, declared)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return payload, nil
}

// WriteRequest marshals and frames a Request.
func WriteRequest(w io.Writer, req Request) error {
	payload, err := gojson.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	return WriteFrame(w, payload)
}

// ReadResponse reads and unmarshals a framed Response, enforcing
// MaxFrameBytes.
func ReadResponse(r io.Reader) (Response, error) {
	payload, err := ReadFrame(r, MaxFrameBytes)
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := gojson.Unmarshal(payload, &resp); err != nil {
		return Response{}, fmt.Errorf("unmarshaling response: %w", err)
	}
	return resp, nil
}
