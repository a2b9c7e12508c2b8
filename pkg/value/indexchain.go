package value

import (
	"strconv"

	"github.com/ncxlabs/netconfd/pkg/rpcerror"
)

// GenerateIndexChain builds a list node's key reference chain by walking
// the schema's declared key leaves, in schema order, and resolving each to
// the matching child under n (spec.md §4.E "index chain"). It is called
// once per list instance after all of that instance's children have been
// parsed.
//
// A missing key leaf is recorded as a missing-element rpc-error at the
// list node's own path rather than aborting the chain: the remaining keys
// still resolve so index-based lookups degrade gracefully instead of
// failing outright.
func GenerateIndexChain(n *Node, path string, errs *rpcerror.Queue) {
	if n.Obj == nil {
		return
	}
	keys := n.Obj.Keys()
	if len(keys) == 0 {
		return
	}
	chain := make([]*Node, 0, len(keys))
	for _, keyName := range keys {
		// Key leaves live in the same module namespace as their list.
		child := n.FindChild(n.Namespace, keyName)
		if child == nil {
			if errs != nil {
				errs.Add(rpcerror.New(rpcerror.TagMissingElement, path, "missing list key: "+keyName))
			}
			continue
		}
		chain = append(chain, child)
	}
	n.SetIndexChain(chain)
}

// IndexKey returns the lexical key tuple for a list instance, in key
// order, joined by the schema's declared keys. Used by list-identity
// comparisons and by leafref/instance-identifier predicate matching.
func IndexKey(n *Node) []string {
	chain := n.IndexChain()
	if chain == nil {
		return nil
	}
	out := make([]string, len(chain))
	for i, k := range chain {
		out[i] = Lexical(k)
	}
	return out
}

// Lexical renders a leaf node's scalar back to its canonical lexical form,
// used for key comparisons and path predicate matching.
func Lexical(n *Node) string {
	if s, ok := n.String(); ok {
		return s
	}
	if i, ok := n.Int(); ok {
		return strconv.FormatInt(i, 10)
	}
	if u, ok := n.Uint(); ok {
		return strconv.FormatUint(u, 10)
	}
	if b, ok := n.Bool(); ok {
		if b {
			return "true"
		}
		return "false"
	}
	if e, ok := n.Decimal(); ok {
		sign, u := "", uint64(e.Unscaled)
		if e.Unscaled < 0 {
			sign, u = "-", -u
		}
		digits := strconv.FormatUint(u, 10)
		for len(digits) <= e.FractionDigits {
			digits = "0" + digits
		}
		cut := len(digits) - e.FractionDigits
		frac := digits[cut:]
		for len(frac) > 1 && frac[len(frac)-1] == '0' {
			frac = frac[:len(frac)-1]
		}
		return sign + digits[:cut] + "." + frac
	}
	return ""
}
