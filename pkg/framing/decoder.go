package framing

import (
	"fmt"
)

// chunkScanState tracks where within a 1.1 chunk header the decoder is, so
// a header split across two reads (and therefore two Feed calls) is handled
// without re-scanning from the start of the session.
type chunkScanState int

const (
	scanHeaderLeadingNL chunkScanState = iota // expecting the leading '\n'
	scanHeaderHash                            // expecting '#'
	scanHeaderDigitsOrEnd                     // expecting a digit, or '#' (end-chunks)
	scanHeaderDigits                          // accumulating decimal length digits
	scanHeaderTrailingNL                      // expecting the header's trailing '\n'
	scanEndHash                               // terminator: expecting second '#'
	scanEndNL                                 // terminator: expecting trailing '\n'
	scanChunkData                             // copying chunkRemaining data bytes
)

// Decoder incrementally assembles complete messages from a byte stream in
// either NETCONF framing. One Decoder is owned by one session control block
// (spec.md §4.B); bytes are fed to it as they arrive off the socket and it
// returns zero or more complete messages plus any still-partial state is
// retained internally for the next Feed call.
type Decoder struct {
	mode         Mode
	maxChunkSize int

	// message accumulates the payload bytes of the message under assembly,
	// across however many buffers/chunks/reads it took to complete.
	message []byte

	// 1.0 scratch: overlap buffer holding up to len(eom)-1 trailing bytes
	// that might be a partial match of the sentinel, so a sentinel split
	// across two Feed calls is still detected.
	tail []byte

	// 1.1 scratch
	state          chunkScanState
	headerDigits   []byte
	chunkRemaining int
}

// NewDecoder creates a Decoder in the given mode. maxChunkSize bounds a
// single 1.1 chunk's declared length (spec.md §9 Open Question: the source
// does not state a maximum; this core makes it a configurable parameter).
func NewDecoder(mode Mode, maxChunkSize int) *Decoder {
	return &Decoder{mode: mode, maxChunkSize: maxChunkSize, state: scanHeaderLeadingNL}
}

// SetMode switches framing mode. Callers must only do this between
// messages, immediately after a successful 1.1-capable hello exchange
// (spec.md §4.B); switching mid-message corrupts the stream.
func (d *Decoder) SetMode(mode Mode) {
	d.mode = mode
	d.state = scanHeaderLeadingNL
}

// Mode returns the decoder's current framing mode.
func (d *Decoder) Mode() Mode { return d.mode }

// Feed processes newly-read bytes and returns every message that became
// complete as a result (usually zero or one, but a single read can
// complete more than one short message). The returned slices are owned by
// the caller; Feed does not retain them.
func (d *Decoder) Feed(data []byte) ([][]byte, error) {
	if d.mode == Mode11 {
		return d.feed11(data)
	}
	return d.feed10(data)
}

func (d *Decoder) feed10(data []byte) ([][]byte, error) {
	var complete [][]byte

	// Prepend any trailing overlap from the previous call so a sentinel
	// split across reads is still found.
	buf := data
	if len(d.tail) > 0 {
		buf = append(append([]byte{}, d.tail...), data...)
		d.tail = nil
	}

	for {
		idx := indexSentinel(buf)
		if idx < 0 {
			break
		}
		d.message = append(d.message, buf[:idx]...)
		complete = append(complete, d.message)
		d.message = nil
		buf = buf[idx+len(eom):]
	}

	// Keep the last len(eom)-1 bytes as potential sentinel-prefix overlap;
	// everything before that is committed payload for the in-progress message.
	keep := len(eom) - 1
	if len(buf) > keep {
		d.message = append(d.message, buf[:len(buf)-keep]...)
		d.tail = append([]byte{}, buf[len(buf)-keep:]...)
	} else {
		d.tail = append([]byte{}, buf...)
	}
	return complete, nil
}

// indexSentinel finds the first occurrence of the 1.0 end-of-message
// sentinel in buf, or -1 if absent.
func indexSentinel(buf []byte) int {
	n := len(eom)
	if len(buf) < n {
		return -1
	}
	for i := 0; i+n <= len(buf); i++ {
		if string(buf[i:i+n]) == eom {
			return i
		}
	}
	return -1
}

func (d *Decoder) feed11(data []byte) ([][]byte, error) {
	var complete [][]byte

	for i := 0; i < len(data); i++ {
		b := data[i]

		switch d.state {
		case scanChunkData:
			remaining := len(data) - i
			take := d.chunkRemaining
			if take > remaining {
				take = remaining
			}
			d.message = append(d.message, data[i:i+take]...)
			d.chunkRemaining -= take
			i += take - 1
			if d.chunkRemaining == 0 {
				d.state = scanHeaderLeadingNL
			}
			continue

		case scanHeaderLeadingNL:
			if b != '\n' {
				return nil, fmt.Errorf("framing: expected '\\n' starting chunk header, got %q", b)
			}
			d.state = scanHeaderHash

		case scanHeaderHash:
			if b != '#' {
				return nil, fmt.Errorf("framing: expected '#' after newline, got %q", b)
			}
			d.state = scanHeaderDigitsOrEnd

		case scanHeaderDigitsOrEnd:
			switch {
			case b == '#':
				d.state = scanEndNL
			case b >= '0' && b <= '9':
				d.headerDigits = append(d.headerDigits[:0], b)
				d.state = scanHeaderDigits
			default:
				return nil, fmt.Errorf("framing: malformed chunk header, unexpected %q", b)
			}

		case scanHeaderDigits:
			switch {
			case b >= '0' && b <= '9':
				d.headerDigits = append(d.headerDigits, b)
				if len(d.headerDigits) > 10 {
					return nil, fmt.Errorf("framing: chunk length header too long")
				}
			case b == '\n':
				length, err := parseChunkLength(d.headerDigits)
				if err != nil {
					return nil, err
				}
				if d.maxChunkSize > 0 && length > d.maxChunkSize {
					return nil, fmt.Errorf("framing: chunk length %d exceeds configured maximum %d", length, d.maxChunkSize)
				}
				d.chunkRemaining = length
				if length == 0 {
					d.state = scanHeaderLeadingNL
				} else {
					d.state = scanChunkData
				}
			default:
				return nil, fmt.Errorf("framing: malformed chunk length digit %q", b)
			}

		case scanEndNL:
			if b != '\n' {
				return nil, fmt.Errorf("framing: expected '\\n' terminating end-of-chunks marker, got %q", b)
			}
			complete = append(complete, d.message)
			d.message = nil
			d.state = scanHeaderLeadingNL

		default:
			return nil, fmt.Errorf("framing: decoder in unknown state %d", d.state)
		}
	}

	return complete, nil
}

// parseChunkLength validates and converts the accumulated header digits.
// Per RFC 6242, a chunk-size is 1..4294967295 with no leading zero (except
// the value itself cannot be "0" mid-stream for a chunk-size token, only
// the end-of-chunks "##" may follow a bare '#'). This core tolerates a
// single leading zero as "0" (empty chunk, used for round-trip tests) and
// rejects any other leading zero as malformed.
func parseChunkLength(digits []byte) (int, error) {
	if len(digits) > 1 && digits[0] == '0' {
		return 0, fmt.Errorf("framing: chunk length %q has a leading zero", digits)
	}
	var v int64
	for _, d := range digits {
		v = v*10 + int64(d-'0')
		if v > 1<<31-1 {
			return 0, fmt.Errorf("framing: chunk length %q exceeds protocol maximum", digits)
		}
	}
	return int(v), nil
}

// Pending reports whether a message is partially assembled (mid-framing),
// used by the session control block to decide whether a shutdown must
// discard in-flight data (spec.md §5 "Partial messages in flight are
// abandoned").
func (d *Decoder) Pending() bool {
	return len(d.message) > 0 || len(d.tail) > 0 || d.state != scanHeaderLeadingNL
}

// Discard drops any partially assembled message state.
func (d *Decoder) Discard() {
	d.message = nil
	d.tail = nil
	d.state = scanHeaderLeadingNL
	d.chunkRemaining = 0
}
