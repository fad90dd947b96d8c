// Package protocol defines the session handshake wire format and the frame
// type shared by transports, the session layer and the relay server.
//
// Handshake frame (client → server, binary, 16 bytes):
//
//	0      12 ASCII signature "guessthesong"
//	12      4 connection id
//
// Handshake response (server → client, binary, 8 bytes):
//
//	0       4 first 4 bytes of the signature
//	4       4 echoed connection id
package protocol

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
)

const (
	// Signature identifies the protocol on the wire.
	Signature = "guessthesong"

	// SignaturePrefixLen is how much of the signature the server echoes back.
	SignaturePrefixLen = 4

	// ConnectionIDLen is the size of a connection id in bytes.
	ConnectionIDLen = 4

	HandshakeLen         = len(Signature) + ConnectionIDLen
	HandshakeResponseLen = SignaturePrefixLen + ConnectionIDLen
)

var (
	// ErrInvalidHandshake is returned for frames with a wrong length or signature.
	ErrInvalidHandshake = errors.New("invalid handshake response")
	// ErrConnectionIDMismatch is returned when the echoed id differs from the one sent.
	ErrConnectionIDMismatch = errors.New("connection id mismatch")
)

// ConnectionID identifies one logical client session.
type ConnectionID [ConnectionIDLen]byte

// NewConnectionID reads a random id from r. A nil reader uses crypto/rand.
func NewConnectionID(r io.Reader) (ConnectionID, error) {
	if r == nil {
		r = rand.Reader
	}
	var id ConnectionID
	if _, err := io.ReadFull(r, id[:]); err != nil {
		return ConnectionID{}, fmt.Errorf("failed to generate connection id: %w", err)
	}
	return id, nil
}

// String returns the id as lowercase hex.
func (id ConnectionID) String() string {
	return hex.EncodeToString(id[:])
}

// HandshakeFrame builds the client handshake for id.
func HandshakeFrame(id ConnectionID) []byte {
	frame := make([]byte, 0, HandshakeLen)
	frame = append(frame, Signature...)
	return append(frame, id[:]...)
}

// HandshakeResponse builds the server reply acknowledging id.
func HandshakeResponse(id ConnectionID) []byte {
	resp := make([]byte, 0, HandshakeResponseLen)
	resp = append(resp, Signature[:SignaturePrefixLen]...)
	return append(resp, id[:]...)
}

// IsHandshake reports whether data starts like a client handshake.
func IsHandshake(data []byte) bool {
	return bytes.HasPrefix(data, []byte(Signature))
}

// ParseHandshake extracts the connection id from a client handshake.
func ParseHandshake(data []byte) (ConnectionID, error) {
	if len(data) != HandshakeLen || !IsHandshake(data) {
		return ConnectionID{}, ErrInvalidHandshake
	}
	var id ConnectionID
	copy(id[:], data[len(Signature):])
	return id, nil
}

// ValidateResponse checks a server handshake response against the id that was sent.
func ValidateResponse(resp []byte, id ConnectionID) error {
	if len(resp) != HandshakeResponseLen ||
		!bytes.Equal(resp[:SignaturePrefixLen], []byte(Signature[:SignaturePrefixLen])) {
		return ErrInvalidHandshake
	}
	if !bytes.Equal(resp[SignaturePrefixLen:], id[:]) {
		return ErrConnectionIDMismatch
	}
	return nil
}
