// Package server carries live browser sessions for the URL sync engine.
//
// Each WebSocket connection becomes a Session, and a Session is a
// nav.Navigator: the handshake seeds its query mirror from the browser's
// real location, the client's navready message closes Ready(), and
// PushQuery/ReplaceQuery update the mirror while enqueueing URL patches
// that the write loop streams back to the browser. Back/forward
// traversal (popstate) refreshes the mirror only; store hydration runs
// once per session and never again.
//
// The application wires its stores in the OnSession callback, which
// fires after the handshake and before the session loops start:
//
//	srv := server.New(nil)
//	srv.OnSession(func(sess *server.Session) {
//		mgr := querysync.NewManager(sess)
//		st := store.New("globe")
//		tags := store.Define(st, "tags", []string{"Weather"})
//		b, _ := mgr.Attach(st, querysync.Config{
//			Fields: []querysync.FieldSpec{querysync.Field[[]string]("tags")},
//		})
//		sess.OnSet(func(m *protocol.SetMsg) error {
//			return b.ApplyField(m.Field, m.Value)
//		})
//		_ = tags
//	})
//	http.ListenAndServe(":8080", srv.Handler())
//
// Wire format and message taxonomy live in pkg/protocol. The embedded
// thin client (served at client.js next to the ws endpoint) keeps
// location.search in lockstep on the browser side.
package server
