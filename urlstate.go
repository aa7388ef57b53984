// Package urlstate keeps reactive state stores and the browser URL
// query string in sync over a WebSocket session.
//
// This is the recommended import for most applications:
//
//	import "github.com/urlstate-go/urlstate"
//
// Usage:
//
//	app := urlstate.New(urlstate.Config{Address: ":8080"})
//
//	app.OnSession(func(sess *urlstate.Session, mgr *urlstate.Manager) {
//	    globe := urlstate.NewStore("globe")
//	    urlstate.Define(globe, "tags", []string{"Weather"})
//	    urlstate.Define(globe, "search", "")
//
//	    mgr.Attach(globe, urlstate.SyncConfig{Fields: []urlstate.FieldSpec{
//	        urlstate.Field[[]string]("tags"),
//	        urlstate.Field[string]("search").Param("q"),
//	    }})
//	})
//
//	app.Run()
//
// Each session hydrates its stores from the query string the client
// arrived with, then mirrors every accepted field change back into the
// address bar, so the URL always encodes the view and can be copied,
// bookmarked, or shared.
package urlstate

import (
	"github.com/urlstate-go/urlstate/pkg/nav"
	"github.com/urlstate-go/urlstate/pkg/querysync"
	"github.com/urlstate-go/urlstate/pkg/server"
	"github.com/urlstate-go/urlstate/pkg/store"
)

// =============================================================================
// Stores (re-export from pkg/store)
// =============================================================================

// Store is a named collection of reactive fields.
type Store = store.Store

// NewStore creates a store with the given ID. The ID keys preset
// overrides and addresses the store in field edits from the client.
func NewStore(id string) *Store {
	return store.New(id)
}

// Define declares a typed field on a store with its default value.
//
// Example:
//
//	tags := urlstate.Define(globe, "tags", []string{"Weather"})
//	tags.Set([]string{"Point", "Label"})
func Define[T any](s *Store, name string, initial T) *store.Field[T] {
	return store.Define(s, name, initial)
}

// ErrFieldUnknown is returned when a field name is not defined on a store.
var ErrFieldUnknown = store.ErrFieldUnknown

// =============================================================================
// Synchronization (re-export from pkg/querysync)
// =============================================================================

// Manager owns the synchronization bindings of one session.
type Manager = querysync.Manager

// Binding is one store's live synchronization state.
type Binding = querysync.Binding

// SyncConfig declares a store's participation in URL synchronization.
type SyncConfig = querysync.Config

// FieldSpec describes one synchronized field.
type FieldSpec = querysync.FieldSpec

// Field declares a synchronized field by its store field name.
// Chain options to customize the codec:
//
//	urlstate.Field[[]string]("tags").
//	    Valid(func(tags []string) bool { return len(tags) > 0 })
//	urlstate.Field[bool]("enabled").
//	    Serialize(func(v bool) string { if v { return "1" }; return "0" })
func Field[T any](name string) *querysync.SyncField[T] {
	return querysync.Field[T](name)
}

// Overrides carries preset values applied before defaults capture,
// keyed by store ID and field name.
type Overrides = querysync.Overrides

// Observer receives engine lifecycle notifications.
type Observer = querysync.Observer

// MultiObserver fans notifications out to several observers in order.
type MultiObserver = querysync.MultiObserver

// ParamError reports one URL parameter that could not be applied.
type ParamError = querysync.ParamError

// Reason classifies why a parameter could not be applied.
type Reason = querysync.Reason

// Recovery reasons.
const (
	ReasonMultiValue = querysync.ReasonMultiValue
	ReasonDecode     = querysync.ReasonDecode
	ReasonRejected   = querysync.ReasonRejected
	ReasonAssign     = querysync.ReasonAssign
)

// =============================================================================
// Transport (re-export from pkg/server and pkg/nav)
// =============================================================================

// Session is one connected client.
type Session = server.Session

// SessionConfig tunes per-session transport behavior.
type SessionConfig = server.SessionConfig

// Navigator is the engine's view of a client's location and history.
type Navigator = nav.Navigator

// SameOriginCheck accepts requests whose Origin matches the Host.
var SameOriginCheck = server.SameOriginCheck
