package protocol

// NavType identifies a client navigation message.
type NavType uint8

const (
	// NavReady: the initial navigation has settled; the query in the
	// hello is final and the server may start synchronizing.
	NavReady NavType = 0x01

	// NavPop: the user moved through history (back/forward). Carries the
	// new location; the server refreshes its mirror only.
	NavPop NavType = 0x02
)

// String returns the string representation of the nav type.
func (nt NavType) String() string {
	switch nt {
	case NavReady:
		return "Ready"
	case NavPop:
		return "Pop"
	default:
		return "Unknown"
	}
}

// NavMsg is a client → server navigation message. Path and Query are
// set for NavPop and empty for NavReady.
type NavMsg struct {
	Type  NavType
	Path  string
	Query string
}

// NewNavReady creates a NavReady message.
func NewNavReady() *NavMsg {
	return &NavMsg{Type: NavReady}
}

// NewNavPop creates a NavPop message for the given location.
func NewNavPop(path, query string) *NavMsg {
	return &NavMsg{Type: NavPop, Path: path, Query: query}
}

// EncodeNav encodes a NavMsg to bytes.
func EncodeNav(m *NavMsg) []byte {
	e := NewEncoder()
	EncodeNavTo(e, m)
	return e.Bytes()
}

// EncodeNavTo encodes a NavMsg using the provided encoder.
func EncodeNavTo(e *Encoder, m *NavMsg) {
	e.WriteByte(byte(m.Type))
	if m.Type == NavPop {
		e.WriteString(m.Path)
		e.WriteString(m.Query)
	}
}

// DecodeNav decodes a NavMsg from bytes.
func DecodeNav(data []byte) (*NavMsg, error) {
	d := NewDecoder(data)

	typeByte, err := d.ReadByte()
	if err != nil {
		return nil, err
	}

	m := &NavMsg{Type: NavType(typeByte)}
	if m.Type != NavPop {
		return m, nil
	}

	m.Path, err = d.ReadBoundedString(MaxPathBytes)
	if err != nil {
		return nil, err
	}
	m.Query, err = d.ReadBoundedString(MaxQueryBytes)
	if err != nil {
		return nil, err
	}
	return m, nil
}
