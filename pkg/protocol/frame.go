package protocol

// FrameKind represents the type of a transport frame
type FrameKind int

const (
	FrameBinary FrameKind = iota
	FrameText
)

// String returns the string representation of FrameKind
func (k FrameKind) String() string {
	switch k {
	case FrameBinary:
		return "BINARY"
	case FrameText:
		return "TEXT"
	default:
		return "UNKNOWN"
	}
}

// Frame is a single message exchanged over a transport.
type Frame struct {
	Kind    FrameKind
	Payload []byte
}

// Binary builds a binary frame.
func Binary(p []byte) Frame {
	return Frame{Kind: FrameBinary, Payload: p}
}

// Text builds a text frame.
func Text(s string) Frame {
	return Frame{Kind: FrameText, Payload: []byte(s)}
}

// IsText reports whether f is a text frame carrying exactly s.
func (f Frame) IsText(s string) bool {
	return f.Kind == FrameText && string(f.Payload) == s
}
