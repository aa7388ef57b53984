// Package protocol implements the binary wire protocol between the
// server-side URL state engine and its thin browser client.
//
// The protocol carries small, frequent messages — query strings, history
// operations, heartbeats — so it is framed and hand-encoded rather than
// reflected: a typical URL patch is the query text plus a few bytes of
// overhead.
//
// # Wire Format
//
// All messages are framed with a 4-byte header:
//
//	┌─────────────┬──────────────┬───────────────────────────────┐
//	│ Frame Type  │ Reserved     │ Payload Length                │
//	│ (1 byte)    │ (1 byte)     │ (2 bytes, big-endian)         │
//	└─────────────┴──────────────┴───────────────────────────────┘
//
// The reserved byte is zero on send and ignored on receive.
//
// # Frame Types
//
//   - FrameHello (0x00): ClientHello / ServerHello handshake
//   - FrameNav (0x01): Client → Server navigation (ready, back/forward)
//   - FrameSet (0x02): Client → Server field edits
//   - FrameURL (0x03): Server → Client URL history patches
//   - FrameControl (0x04): Ping, pong, resync, close
//   - FrameError (0x05): Error message
//
// # Encoding
//
// Payloads use varints for integers (protobuf-style), varint
// length-prefixed UTF-8 for strings, and big-endian fixed-width fields
// where the width is part of the contract (sequence counters,
// timestamps). Decoding is total: truncated or oversized input returns
// an error, never a panic, and every string field is checked against its
// limit from limits.go.
//
// # Session Flow
//
//	Client                               Server
//	  │──── ClientHello ───────────────>│   path + query + resume seq
//	  │<──── ServerHello ───────────────│   session ID, next seq
//	  │──── Nav(ready) ────────────────>│   navigation settled
//	  │<──── URLPatch(push/replace) ────│   on every store mutation batch
//	  │──── Nav(pop) ──────────────────>│   back/forward, mirror refresh
//	  │──── Control(ping) ─────────────>│
//	  │<──── Control(pong) ─────────────│
//
// URL patches are idempotent snapshots of the whole query, so recovery
// after reconnect never replays a log: ResyncRequest is answered with a
// single ResyncQuery carrying the current query and sequence number.
package protocol
