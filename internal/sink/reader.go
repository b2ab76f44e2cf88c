package sink

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

// FrameReader decodes a frame stream. When a frame does not start with the
// magic tag, the reader scans forward for the next tag and resumes fixed-size
// framing there.
type FrameReader struct {
	r       *bufio.Reader
	offset  int64
	skipped int64
	resyncs int
}

// NewFrameReader wraps r.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{r: bufio.NewReader(r)}
}

// Offset is the byte offset of the next unread byte.
func (fr *FrameReader) Offset() int64 { return fr.offset }

// Skipped is the number of bytes discarded while resynchronizing.
func (fr *FrameReader) Skipped() int64 { return fr.skipped }

// Resyncs is the number of times the reader lost and regained framing.
func (fr *FrameReader) Resyncs() int { return fr.resyncs }

// Next returns the next valid frame and the offset it started at.
// It returns io.EOF at a clean end of stream and ErrShortFrame when
// the stream ends inside a frame.
func (fr *FrameReader) Next() (Frame, int64, error) {
	lost := false
	for {
		head, err := fr.r.Peek(FrameSize)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(head) == 0 {
					return Frame{}, 0, io.EOF
				}
				fr.discardTail(len(head))
				return Frame{}, 0, ErrShortFrame
			}
			return Frame{}, 0, fmt.Errorf("sink: read frame: %w", err)
		}

		if string(head[:4]) == Magic {
			f, _ := DecodeFrame(head)
			at := fr.offset
			fr.advance(FrameSize)
			if lost {
				fr.resyncs++
			}
			return f, at, nil
		}

		// Lost framing: skip to the next candidate tag inside the peeked window,
		// or past the window if none is found.
		lost = true
		n := bytes.Index(head[1:], []byte(Magic[:1]))
		if n < 0 {
			n = len(head) - 1
		}
		fr.advance(n + 1)
		fr.skipped += int64(n + 1)
	}
}

func (fr *FrameReader) advance(n int) {
	_, _ = fr.r.Discard(n)
	fr.offset += int64(n)
}

func (fr *FrameReader) discardTail(n int) {
	fr.advance(n)
	fr.skipped += int64(n)
}

// FrameScan is the result of reading a whole frame file.
type FrameScan struct {
	Frames  []Frame `json:"frames"`
	Offsets []int64 `json:"offsets"`
	Skipped int64   `json:"skipped_bytes"`
	Resyncs int     `json:"resyncs"`
	Partial bool    `json:"partial_tail"`
}

// ReadFrames reads every recoverable frame from the file at path.
func ReadFrames(path string) (*FrameScan, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("sink: open frame stream: %w", err)
	}
	defer f.Close()

	fr := NewFrameReader(f)
	scan := &FrameScan{}
	for {
		frame, at, err := fr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if errors.Is(err, ErrShortFrame) {
			scan.Partial = true
			break
		}
		if err != nil {
			return nil, err
		}
		scan.Frames = append(scan.Frames, frame)
		scan.Offsets = append(scan.Offsets, at)
	}
	scan.Skipped = fr.Skipped()
	scan.Resyncs = fr.Resyncs()
	return scan, nil
}
