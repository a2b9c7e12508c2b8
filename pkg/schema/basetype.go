// Package schema declares the read-only schema/type-definition interfaces
// the parser and XPath evaluator consume. Per spec.md §1, the YANG module
// compiler that produces this tree is an external collaborator: this
// package only states the contract a finalized schema object must satisfy,
// plus a small in-memory implementation used by tests and by callers that
// want to build a schema without a full compiler (e.g. from generated Go
// structs).
package schema

// BaseType is the closed set of YANG primitive type categories a value
// node is tagged with (spec.md §3).
type BaseType int

const (
	Empty BaseType = iota
	Boolean
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Decimal64
	Float64
	String
	Binary
	Enumeration
	Bits
	ListOfStrings // leaf-list of strings
	Container
	List
	Choice
	Case
	Any
	Leafref
	InstanceIdentifier
	Identityref
	Union
	Extern
	Intern
)

func (b BaseType) String() string {
	switch b {
	case Empty:
		return "empty"
	case Boolean:
		return "boolean"
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case Int64:
		return "int64"
	case Uint8:
		return "uint8"
	case Uint16:
		return "uint16"
	case Uint32:
		return "uint32"
	case Uint64:
		return "uint64"
	case Decimal64:
		return "decimal64"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Binary:
		return "binary"
	case Enumeration:
		return "enumeration"
	case Bits:
		return "bits"
	case ListOfStrings:
		return "leaf-list-of-strings"
	case Container:
		return "container"
	case List:
		return "list"
	case Choice:
		return "choice"
	case Case:
		return "case"
	case Any:
		return "any"
	case Leafref:
		return "leafref"
	case InstanceIdentifier:
		return "instance-identifier"
	case Identityref:
		return "identityref"
	case Union:
		return "union"
	case Extern:
		return "extern"
	case Intern:
		return "intern"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether b is one of the integer/decimal/float number types.
func (b BaseType) IsNumeric() bool {
	switch b {
	case Int8, Int16, Int32, Int64, Uint8, Uint16, Uint32, Uint64, Decimal64, Float64:
		return true
	default:
		return false
	}
}

// IsComplex reports whether b carries child nodes rather than a scalar value.
func (b BaseType) IsComplex() bool {
	switch b {
	case Container, List, Choice, Case, Any:
		return true
	default:
		return false
	}
}

// DataClass distinguishes configuration from operational state (spec.md §3,
// GLOSSARY "Data class"). A node with DataClassInherit takes its effective
// class from its parent at parse time (spec.md §4.F common pre-processing).
type DataClass int

const (
	DataClassInherit DataClass = iota
	DataClassConfig
	DataClassState
)
