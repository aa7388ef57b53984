// Package sharelink issues short codes for synchronized view URLs.
//
// The sync engine keeps the interesting state of a view in the query
// string, so any view can be shared by copying the address bar. Long
// queries make awkward links; sharelink snapshots a path and query under
// a short random code and redirects visitors to the full URL.
//
// Mount the routes on the application router:
//
//	store := sharelink.NewMemoryStore(10000)
//	r.Mount("/s", sharelink.Routes(store))
//
// Creating a link:
//
//	POST /s
//	{"path": "/globe", "query": "tags=Point,Label&zoom=4"}
//
//	{"code": "1a2b3c4d5e6f", "url": "/s/1a2b3c4d5e6f"}
//
// Visiting /s/1a2b3c4d5e6f redirects to /globe?tags=Point,Label&zoom=4,
// where the engine hydrates the stores from the query as usual.
//
// Storage is pluggable through the Store interface. NewMemoryStore
// suits a single process; see s3_example.go for an S3-backed variant.
package sharelink
