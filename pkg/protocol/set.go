package protocol

// SetMsg is a client → server field edit: one user input, addressed by
// store and field name, with the value as raw parameter text. The server
// runs it through the field's codec before it touches any store, so a
// SetMsg can fail exactly like a URL parameter can.
type SetMsg struct {
	Store string
	Field string
	Value string
}

// NewSetMsg creates a SetMsg.
func NewSetMsg(store, field, value string) *SetMsg {
	return &SetMsg{Store: store, Field: field, Value: value}
}

// EncodeSet encodes a SetMsg to bytes.
func EncodeSet(m *SetMsg) []byte {
	e := NewEncoder()
	EncodeSetTo(e, m)
	return e.Bytes()
}

// EncodeSetTo encodes a SetMsg using the provided encoder.
func EncodeSetTo(e *Encoder, m *SetMsg) {
	e.WriteString(m.Store)
	e.WriteString(m.Field)
	e.WriteString(m.Value)
}

// DecodeSet decodes a SetMsg from bytes.
func DecodeSet(data []byte) (*SetMsg, error) {
	d := NewDecoder(data)

	m := &SetMsg{}
	var err error

	m.Store, err = d.ReadBoundedString(MaxNameBytes)
	if err != nil {
		return nil, err
	}
	m.Field, err = d.ReadBoundedString(MaxNameBytes)
	if err != nil {
		return nil, err
	}
	m.Value, err = d.ReadBoundedString(MaxQueryBytes)
	if err != nil {
		return nil, err
	}
	return m, nil
}
