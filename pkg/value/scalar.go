package value

import "fmt"

// Decimal64 is a fixed-point value: the wire/lexical value multiplied by
// 10^FractionDigits, stored as an integer (spec.md §4.F "For decimal64, the
// schema's fraction-digits parameter governs scaling").
type Decimal64 struct {
	Unscaled       int64
	FractionDigits int
}

// Float64 converts the decimal64 to its floating-point value, for range
// comparison only — never for wire output, which must stay exact.
func (d Decimal64) Float64() float64 {
	scale := 1.0
	for i := 0; i < d.FractionDigits; i++ {
		scale *= 10
	}
	return float64(d.Unscaled) / scale
}

func (d Decimal64) String() string {
	return fmt.Sprintf("%d/10^%d", d.Unscaled, d.FractionDigits)
}

// IdentityrefValue is the resolved (namespace, local-name) identity pair
// set on an identityref node (spec.md §4.F "Identityref").
type IdentityrefValue struct {
	Namespace string
	LocalName string
}

// --- Typed scalar setters -------------------------------------------------
// Each setter stores the payload only; BaseType is left as it is, so a
// caller that changes a node's effective type sets BaseType itself.

func (n *Node) SetEmpty() { n.scalar = struct{}{} }

func (n *Node) SetBool(v bool) { n.scalar = v }

func (n *Node) SetInt(v int64) { n.scalar = v }

func (n *Node) SetUint(v uint64) { n.scalar = v }

func (n *Node) SetDecimal(v Decimal64) { n.scalar = v }

func (n *Node) SetFloat(v float64) { n.scalar = v }

func (n *Node) SetString(v string) { n.scalar = v }

func (n *Node) SetBinary(v []byte) { n.scalar = v }

func (n *Node) SetEnum(v string) { n.scalar = v }

func (n *Node) SetBits(v []string) { n.scalar = v }

func (n *Node) SetListOfStrings(v []string) { n.scalar = v }

func (n *Node) SetIdentityref(v IdentityrefValue) { n.scalar = v }

func (n *Node) SetLeafrefValue(v string) { n.scalar = v }

func (n *Node) SetInstanceIdentifierValue(v string) { n.scalar = v }

// --- Typed scalar getters -------------------------------------------------
// Each getter returns the zero value and ok=false if the node's scalar
// payload is not of the requested variant.

func (n *Node) Bool() (bool, bool)       { v, ok := n.scalar.(bool); return v, ok }
func (n *Node) Int() (int64, bool)       { v, ok := n.scalar.(int64); return v, ok }
func (n *Node) Uint() (uint64, bool)     { v, ok := n.scalar.(uint64); return v, ok }
func (n *Node) Decimal() (Decimal64, bool) {
	v, ok := n.scalar.(Decimal64)
	return v, ok
}
func (n *Node) Float() (float64, bool) { v, ok := n.scalar.(float64); return v, ok }
func (n *Node) String() (string, bool) { v, ok := n.scalar.(string); return v, ok }
func (n *Node) Binary() ([]byte, bool)  { v, ok := n.scalar.([]byte); return v, ok }
func (n *Node) Bits() ([]string, bool)  { v, ok := n.scalar.([]string); return v, ok }

// ListOfStrings returns the leaf-list-of-strings token set. It shares the
// same underlying Go representation as Bits(); BaseType disambiguates the
// two at the schema level.
func (n *Node) ListOfStrings() ([]string, bool) { v, ok := n.scalar.([]string); return v, ok }

// Leafref returns the raw lexical leafref path value.
func (n *Node) Leafref() (string, bool) { v, ok := n.scalar.(string); return v, ok }

// InstanceIdentifierPath returns the raw instance-identifier path value.
func (n *Node) InstanceIdentifierPath() (string, bool) { v, ok := n.scalar.(string); return v, ok }
func (n *Node) Identityref() (IdentityrefValue, bool) {
	v, ok := n.scalar.(IdentityrefValue)
	return v, ok
}

// Raw returns the untyped scalar payload, for generic comparison/clone code.
func (n *Node) Raw() any { return n.scalar }

// SetRaw sets the untyped scalar payload directly; used by Clone.
func (n *Node) SetRaw(v any) { n.scalar = v }
