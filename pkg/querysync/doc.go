// Package querysync keeps reactive stores and the URL query string in
// lockstep, in both directions.
//
// Inbound, once per store after navigation settles: preset overrides are
// applied, the post-override values are captured as the defaults baseline,
// and each configured URL parameter is decoded, validated, and assigned.
// A parameter that cannot be applied is logged, stripped from the address
// bar without creating a history entry, and the field keeps its default.
//
// Outbound, after every mutation batch: the current query is diffed
// against the live field values. Parameters equal to their default are
// removed, differing ones are written, untouched foreign parameters are
// preserved, and the result is pushed as a new history entry. Queries
// stay minimal, so copied links carry only what the user changed.
//
//	globe := store.New("globe")
//	tags := store.Define(globe, "tags", []string{"Weather"})
//	store.Define(globe, "search", "")
//
//	mgr := querysync.NewManager(navigator)
//	mgr.Attach(globe, querysync.Config{
//	    Fields: []querysync.FieldSpec{
//	        querysync.Field[[]string]("tags"),
//	        querysync.Field[string]("search").Param("q"),
//	    },
//	})
//
//	tags.Set([]string{"Point", "Label"})  // address bar: ?tags=Point,Label
package querysync
