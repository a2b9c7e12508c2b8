// Package rpcerror implements the RPC error recorder (spec §4.H): a typed,
// closed-taxonomy error carried on a per-message queue so that a single
// malformed subtree does not prevent siblings from being reported too.
//
// This mirrors the way the teacher repo's pkg/metadata.StoreError separates
// a closed ErrorCode enum from a human-readable message and a path; here the
// "path" is an XPath instance-identifier pointing at the offending value
// node, and the queue (not a single error) is the unit callers observe.
package rpcerror

import "fmt"

// ErrorType is the NETCONF error-type attribute (RFC 6241 §4.3).
type ErrorType string

const (
	TypeTransport ErrorType = "transport"
	TypeRPC       ErrorType = "rpc"
	TypeProtocol  ErrorType = "protocol"
	TypeApp       ErrorType = "application"
)

// ErrorTag is the closed set of RFC 6241 error-tag values this core can emit.
type ErrorTag string

const (
	TagOperationFailed    ErrorTag = "operation-failed"
	TagInvalidValue       ErrorTag = "invalid-value"
	TagMissingElement     ErrorTag = "missing-element"
	TagUnknownElement     ErrorTag = "unknown-element"
	TagUnknownNamespace   ErrorTag = "unknown-namespace"
	TagUnknownAttribute   ErrorTag = "unknown-attribute"
	TagMissingAttribute   ErrorTag = "missing-attribute"
	TagBadAttribute       ErrorTag = "bad-attribute"
	TagBadElement         ErrorTag = "bad-element"
	TagDataMissing        ErrorTag = "data-missing"
	TagDataExists         ErrorTag = "data-exists"
	TagLockDenied         ErrorTag = "lock-denied"
	TagResourceDenied     ErrorTag = "resource-denied"
	TagRollbackFailed     ErrorTag = "rollback-failed"
	TagInUse              ErrorTag = "in-use"
	TagAccessDenied       ErrorTag = "access-denied"
	TagPartialOperation   ErrorTag = "partial-operation"
	TagMalformedMessage   ErrorTag = "malformed-message"
)

// Severity is the NETCONF error-severity attribute.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Info carries type-specific structured error-info (RFC 6241 §4.3),
// e.g. the bad-value/bad-attribute/bad-namespace/session-id fields.
type Info map[string]string

// RPCError is one recorded protocol violation, matching the rpc-error
// element fields enumerated in spec.md §4.H and §7.
type RPCError struct {
	Type     ErrorType
	Tag      ErrorTag
	Severity Severity
	AppTag   string
	// Path is the instance-identifier XPath of the offending value node.
	Path    string
	Message string
	Info    Info
}

// Error implements the error interface so an RPCError can be wrapped and
// compared with errors.As by callers that only care about one failure.
func (e *RPCError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s (path=%s)", e.Tag, e.Message, e.Path)
	}
	return fmt.Sprintf("%s: %s", e.Tag, e.Message)
}

// New builds an RPCError with severity defaulted to "error" and type
// defaulted to "application", the common case for value/schema violations.
func New(tag ErrorTag, path, message string) *RPCError {
	return &RPCError{
		Type:     TypeApp,
		Tag:      tag,
		Severity: SeverityError,
		Path:     path,
		Message:  message,
	}
}

// WithInfo returns a copy of e with Info set.
func (e *RPCError) WithInfo(info Info) *RPCError {
	clone := *e
	clone.Info = info
	return &clone
}

// WithAppTag returns a copy of e with the error-app-tag set.
func (e *RPCError) WithAppTag(appTag string) *RPCError {
	clone := *e
	clone.AppTag = appTag
	return &clone
}

// WithType returns a copy of e with the error-type set.
func (e *RPCError) WithType(t ErrorType) *RPCError {
	clone := *e
	clone.Type = t
	return &clone
}
