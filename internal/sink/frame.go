package sink

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Frame layout: magic(4) | unix seconds u32 BE | health u16 BE | armor u16 BE | kills u16 BE.
const (
	FrameSize = 14
	Magic     = "DSF0"
)

var (
	// ErrShortFrame is returned when fewer than FrameSize bytes are decoded.
	ErrShortFrame = errors.New("sink: short frame")
	// ErrBadMagic is returned when a frame does not start with Magic.
	ErrBadMagic = errors.New("sink: bad frame magic")
)

// Frame is the reduced snapshot stored in the binary stream.
type Frame struct {
	Timestamp uint32 `json:"timestamp"`
	Health    uint16 `json:"health"`
	Armor     uint16 `json:"armor"`
	Kills     uint16 `json:"kills"`
}

// NewFrame builds a frame, saturating each counter into [0, 65535].
func NewFrame(unix int64, health, armor, kills int) Frame {
	return Frame{
		Timestamp: uint32(min(max(unix, 0), 1<<32-1)),
		Health:    clamp16(health),
		Armor:     clamp16(armor),
		Kills:     clamp16(kills),
	}
}

func clamp16(v int) uint16 {
	return uint16(min(max(v, 0), 65535))
}

// EncodeFrame appends the 14-byte encoding of f to dst.
func EncodeFrame(dst []byte, f Frame) []byte {
	dst = append(dst, Magic...)
	dst = binary.BigEndian.AppendUint32(dst, f.Timestamp)
	dst = binary.BigEndian.AppendUint16(dst, f.Health)
	dst = binary.BigEndian.AppendUint16(dst, f.Armor)
	dst = binary.BigEndian.AppendUint16(dst, f.Kills)
	return dst
}

// DecodeFrame decodes the first FrameSize bytes of b.
func DecodeFrame(b []byte) (Frame, error) {
	if len(b) < FrameSize {
		return Frame{}, ErrShortFrame
	}
	if string(b[:4]) != Magic {
		return Frame{}, ErrBadMagic
	}
	return Frame{
		Timestamp: binary.BigEndian.Uint32(b[4:8]),
		Health:    binary.BigEndian.Uint16(b[8:10]),
		Armor:     binary.BigEndian.Uint16(b[10:12]),
		Kills:     binary.BigEndian.Uint16(b[12:14]),
	}, nil
}

// FrameSink appends fixed-width frames.
type FrameSink struct {
	path string
	file *os.File
	buf  []byte
}

// OpenFrames opens the frame stream at path. An empty path returns a nil sink.
func OpenFrames(path string) (*FrameSink, error) {
	if path == "" {
		return nil, nil
	}
	f, err := appendFile(path)
	if err != nil {
		return nil, fmt.Errorf("sink: open frame stream: %w", err)
	}
	return &FrameSink{path: path, file: f, buf: make([]byte, 0, FrameSize)}, nil
}

// Write appends one frame and syncs the file.
func (s *FrameSink) Write(f Frame) error {
	if s == nil {
		return nil
	}
	if s.file == nil {
		return ErrClosed
	}
	s.buf = EncodeFrame(s.buf[:0], f)
	if _, err := s.file.Write(s.buf); err != nil {
		return fmt.Errorf("sink: write frame: %w", err)
	}
	if err := s.file.Sync(); err != nil {
		return fmt.Errorf("sink: sync frame stream: %w", err)
	}
	return nil
}

// Path returns the destination path ("" for a nil sink).
func (s *FrameSink) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close releases the file. Closing twice is a no-op.
func (s *FrameSink) Close() error {
	if s == nil || s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
