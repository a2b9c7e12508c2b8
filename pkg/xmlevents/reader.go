package xmlevents

import (
	"encoding/xml"
	"io"
)

// Reader is a peekable, one-event-lookahead adapter over an xml.Decoder.
// It is not safe for concurrent use; per spec.md §5 a session's parse
// runs on a single goroutine at a time.
type Reader struct {
	dec *xml.Decoder
	ns  nsStack

	pending    *Event
	pendingErr error
	havePend   bool

	// unread buffers one raw xml.Token produced by the empty-element
	// lookahead in next(), to be replayed by the following rawToken call.
	unread    xml.Token
	unreadErr error
}

// NewReader wraps r as a collapsed event stream. Entity expansion and
// strict mode match encoding/xml's defaults; callers needing the
// permissive manager-mode parsing behavior should set decoder options via
// WithDecoderOptions before the first Next call.
func NewReader(r io.Reader) *Reader {
	return &Reader{dec: xml.NewDecoder(r)}
}

// WithDecoderOptions exposes the underlying decoder for callers that need
// to relax strictness (e.g. manager-mode tolerance of undeclared
// namespaces), per spec.md §9's manager-vs-agent parse mode split.
func (r *Reader) WithDecoderOptions(configure func(*xml.Decoder)) *Reader {
	configure(r.dec)
	return r
}

// Next returns the next collapsed event. io.EOF is returned once the
// stream is exhausted with no unbalanced open elements.
func (r *Reader) Next() (*Event, error) {
	var ev *Event
	var err error
	if r.havePend {
		ev, err = r.pending, r.pendingErr
		r.pending, r.pendingErr, r.havePend = nil, nil, false
	} else {
		ev, err = r.next()
	}
	// An element's namespace scope is popped when its End is consumed
	// here, not when Peek reads that End ahead.
	if err == nil && ev.Kind == End {
		r.ns.pop()
	}
	return ev, err
}

// Peek returns the next event without consuming it. Calling Peek more
// than once before the next Next/Peek still returns the same buffered
// event (spec.md §9 "XML reader lookahead": one token of lookahead is all
// the parser needs to tell an empty element from a start/end pair). A
// peeked End keeps its element's namespace scope active until Next
// consumes it.
func (r *Reader) Peek() (*Event, error) {
	if !r.havePend {
		r.pending, r.pendingErr = r.next()
		r.havePend = true
	}
	return r.pending, r.pendingErr
}

// next reads raw tokens, skipping comments/directives/processing
// instructions, and collapses a Start immediately followed by its
// matching End into a single Empty event.
func (r *Reader) next() (*Event, error) {
	tok, err := r.rawToken()
	if err != nil {
		return nil, err
	}

	switch t := tok.(type) {
	case xml.StartElement:
		r.ns.push(t.Attr)
		// Lookahead one raw token to detect the empty-element case.
		peeked, perr := r.rawToken()
		if perr == nil {
			if end, ok := peeked.(xml.EndElement); ok && end.Name == t.Name {
				r.ns.pop()
				return &Event{Kind: Empty, Name: t.Name, Attrs: t.Attr}, nil
			}
		}
		// Not empty: buffer the peeked raw token behind a synthetic re-feed.
		r.unreadRaw(peeked, perr)
		return &Event{Kind: Start, Name: t.Name, Attrs: t.Attr}, nil

	case xml.EndElement:
		return &Event{Kind: End, Name: t.Name}, nil

	case xml.CharData:
		return &Event{Kind: String, Text: string(t)}, nil

	default:
		// Comment, ProcInst, Directive: not part of the value model: skip.
		return r.next()
	}
}

// rawToken returns the next token including any token stashed by
// unreadRaw, and copies CharData per encoding/xml's documented
// requirement (the backing array is reused across Token calls).
func (r *Reader) rawToken() (xml.Token, error) {
	if r.unread != nil || r.unreadErr != nil {
		tok, err := r.unread, r.unreadErr
		r.unread, r.unreadErr = nil, nil
		return tok, err
	}
	tok, err := r.dec.Token()
	if err != nil {
		return nil, err
	}
	return xml.CopyToken(tok), nil
}

func (r *Reader) unreadRaw(tok xml.Token, err error) {
	r.unread, r.unreadErr = tok, err
}

// ResolvePrefix resolves prefix against the namespace scope active at the
// current read position (the innermost open element), for QName-valued
// text content such as a leafref or identityref lexical value.
func (r *Reader) ResolvePrefix(prefix string) (string, bool) {
	return r.ns.resolvePrefix(prefix)
}
