// Package clientdist embeds the thin browser client.
//
// The bundle is served by pkg/server at "client.js" next to the "ws"
// endpoint. It speaks the pkg/protocol wire format: it sends the hello
// and navready handshake, applies server URL patches to the browser
// history, and forwards popstate traversals and field edits.
package clientdist

import _ "embed"

// URLStateJS is the thin client JavaScript bundle.
//
//go:embed urlstate.js
var URLStateJS []byte
