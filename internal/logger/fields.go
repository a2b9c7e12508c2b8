package logger

// Field key constants keep structured log attribute names consistent
// across the multiplexer, parser, and XPath packages.
const (
	KeyTraceID   = "trace_id"
	KeySpanID    = "span_id"
	KeySessionID = "session_id"
	KeyMessageID = "message_id"
	KeyPeerAddr  = "peer_addr"
	KeyUser      = "user"

	KeyErrorTag  = "error_tag"
	KeyErrorPath = "error_path"
	KeyFraming   = "framing"
	KeyChunkLen  = "chunk_len"
	KeyBufCount  = "buf_count"
)
