// Package framing implements the NETCONF 1.0 end-of-message and 1.1 chunked
// message delimiters (spec.md §4.A, §6).
package framing

import (
	"bytes"
	"fmt"

	"github.com/ncxlabs/netconfd/pkg/bufpool"
	"github.com/ncxlabs/netconfd/pkg/rpcerror"
)

// Mode selects which framing a session currently uses. A session starts in
// Mode10 and switches to Mode11 only after both peers advertise the 1.1 base
// capability during the hello exchange (spec.md §4.B).
type Mode int

const (
	Mode10 Mode = iota
	Mode11
)

func (m Mode) String() string {
	if m == Mode11 {
		return "1.1"
	}
	return "1.0"
}

// eom is the fixed NETCONF 1.0 end-of-message sentinel.
const eom = "]]>]]>"

// endChunks is the NETCONF 1.1 terminating chunk.
const endChunks = "\n##\n"

// MalformedError builds the rpcerror the decoder raises on any framing
// violation; spec.md §4.A mandates the session terminate on this class of
// failure, never a recoverable per-subtree error.
func MalformedError(reason string) *rpcerror.RPCError {
	e := rpcerror.New(rpcerror.TagMalformedMessage, "", reason)
	return e.WithType(rpcerror.TypeTransport)
}

// EncodeEOM returns a new slice holding payload followed by the 1.0
// sentinel; payload itself is not modified.
func EncodeEOM(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+len(eom))
	out = append(out, payload...)
	out = append(out, eom...)
	return out
}

// EncodeChunks splits payload into chunks of at most maxChunk bytes and
// frames each with a "\n#<len>\n" header, followed by the "\n##\n"
// terminator (spec.md §4.A). A maxChunk <= 0 puts the whole payload in a
// single chunk.
func EncodeChunks(payload []byte, maxChunk int) []byte {
	if maxChunk <= 0 {
		maxChunk = len(payload)
		if maxChunk == 0 {
			maxChunk = 1
		}
	}

	var out bytes.Buffer
	for offset := 0; offset < len(payload); {
		end := offset + maxChunk
		if end > len(payload) {
			end = len(payload)
		}
		chunk := payload[offset:end]
		fmt.Fprintf(&out, "\n#%d\n", len(chunk))
		out.Write(chunk)
		offset = end
	}
	if len(payload) == 0 {
		// A zero-length message is still a legal chunk per spec.md §8's
		// boundary behaviors ("chunk length of 0 ... round-trip").
		out.WriteString("\n#0\n")
	}
	out.WriteString(endChunks)
	return out.Bytes()
}

// FinalizeChunk frames buf's current payload ([Start:End)) as a single 1.1
// chunk in place, writing the "\n#<len>\n" header into the StartChunkPad
// region reserved at allocation and moving Start backward to point at it
// (spec.md §4.A: "reserves STARTCHUNK_PAD bytes at buffer start so the
// header can be written in place without copying"). It does not append the
// "\n##\n" terminator; callers append that once after the last buffer of a
// message.
func FinalizeChunk(buf *bufpool.Buffer) error {
	length := buf.End - bufpool.StartChunkPad
	if length < 0 {
		return fmt.Errorf("framing: buffer payload starts before pad boundary")
	}

	header := fmt.Sprintf("\n#%d\n", length)
	if len(header) > bufpool.StartChunkPad {
		return fmt.Errorf("framing: chunk header %q exceeds reserved pad of %d bytes", header, bufpool.StartChunkPad)
	}

	raw := buf.Raw()
	headerStart := bufpool.StartChunkPad - len(header)
	copy(raw[headerStart:bufpool.StartChunkPad], header)
	buf.Start = headerStart
	return nil
}
