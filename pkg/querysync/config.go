package querysync

// Config declares a store's participation in URL synchronization.
// The zero Config asks for nothing: Attach with it is a no-op.
type Config struct {
	// Enabled turns synchronization on even when Fields is empty, so
	// preset overrides still apply to the store. A Config with fields is
	// implicitly enabled.
	Enabled bool

	// Fields lists the synchronized fields, declared with Field.
	Fields []FieldSpec
}

// active reports whether this config asks for synchronization at all.
func (c Config) active() bool {
	return c.Enabled || len(c.Fields) > 0
}

// Overrides carries preset values keyed by store ID and field name.
// They are applied ahead of the defaults capture, so an overridden value
// becomes the baseline the URL diff minimizes against: a preset that
// turns a flag on makes "on" the state that stays out of the query.
//
// Values are typed like the fields they target; a mismatch is logged and
// skipped, never fatal.
type Overrides map[string]map[string]any
