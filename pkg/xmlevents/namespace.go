package xmlevents

import "encoding/xml"

// scope holds the xmlns declarations introduced by one element, for
// resolving prefixes carried inside QName-valued text content (spec.md
// §4.F "Leafref"/"Identityref": the lexical value itself may be
// "prefix:local-name", and the prefix must resolve against the scope of
// the element the value was read from, not the scope of the reference
// target).
type scope struct {
	prefixToURI map[string]string
	defaultURI  string
	hasDefault  bool
}

func scopeFromAttrs(attrs []xml.Attr) scope {
	s := scope{}
	for _, a := range attrs {
		switch {
		case a.Name.Space == "xmlns" :
			if s.prefixToURI == nil {
				s.prefixToURI = make(map[string]string)
			}
			s.prefixToURI[a.Name.Local] = a.Value
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			s.defaultURI = a.Value
			s.hasDefault = true
		}
	}
	return s
}

// nsStack is a push/pop stack of per-element scopes, one per open element.
type nsStack struct {
	frames []scope
}

func (s *nsStack) push(attrs []xml.Attr) { s.frames = append(s.frames, scopeFromAttrs(attrs)) }

func (s *nsStack) pop() {
	if len(s.frames) > 0 {
		s.frames = s.frames[:len(s.frames)-1]
	}
}

// resolvePrefix walks the scope stack from innermost to outermost looking
// for prefix. An empty prefix resolves against the nearest default xmlns
// declaration.
func (s *nsStack) resolvePrefix(prefix string) (string, bool) {
	for i := len(s.frames) - 1; i >= 0; i-- {
		f := s.frames[i]
		if prefix == "" {
			if f.hasDefault {
				return f.defaultURI, true
			}
			continue
		}
		if uri, ok := f.prefixToURI[prefix]; ok {
			return uri, true
		}
	}
	return "", false
}
