package protocol

// HandshakeStatus is the result of a handshake.
type HandshakeStatus uint8

const (
	HandshakeOK              HandshakeStatus = 0x00
	HandshakeVersionMismatch HandshakeStatus = 0x01
	HandshakeSessionExpired  HandshakeStatus = 0x02 // Resume token unknown
	HandshakeServerBusy      HandshakeStatus = 0x03
	HandshakeInvalidFormat   HandshakeStatus = 0x04 // Malformed hello
	HandshakeInternalError   HandshakeStatus = 0x05
)

// String returns the string representation of the handshake status.
func (hs HandshakeStatus) String() string {
	switch hs {
	case HandshakeOK:
		return "OK"
	case HandshakeVersionMismatch:
		return "VersionMismatch"
	case HandshakeSessionExpired:
		return "SessionExpired"
	case HandshakeServerBusy:
		return "ServerBusy"
	case HandshakeInvalidFormat:
		return "InvalidFormat"
	case HandshakeInternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// ProtocolVersion is a protocol version as major.minor.
type ProtocolVersion struct {
	Major uint8
	Minor uint8
}

// CurrentVersion is the current protocol version.
var CurrentVersion = ProtocolVersion{Major: 1, Minor: 0}

// ClientHello is sent by the client once the WebSocket is established.
// It carries the browser's current location so the server can seed its
// query mirror before any store attaches.
type ClientHello struct {
	Version   ProtocolVersion
	SessionID string // Resume token; empty for a fresh session
	Path      string // Current location path
	Query     string // Current encoded query string, without "?"
	LastSeq   uint32 // Last applied URL patch sequence (resume)
}

// ServerHello is the server's response to ClientHello.
type ServerHello struct {
	Status     HandshakeStatus
	SessionID  string // Session ID, new or resumed
	NextSeq    uint32 // Next URL patch sequence the client will see
	ServerTime uint64 // Server time in Unix milliseconds
}

// NewClientHello creates a ClientHello for a fresh session at the given
// location.
func NewClientHello(path, query string) *ClientHello {
	return &ClientHello{
		Version: CurrentVersion,
		Path:    path,
		Query:   query,
	}
}

// NewServerHello creates a successful ServerHello.
func NewServerHello(sessionID string, nextSeq uint32, serverTime uint64) *ServerHello {
	return &ServerHello{
		Status:     HandshakeOK,
		SessionID:  sessionID,
		NextSeq:    nextSeq,
		ServerTime: serverTime,
	}
}

// NewServerHelloError creates a ServerHello carrying a failure status.
func NewServerHelloError(status HandshakeStatus) *ServerHello {
	return &ServerHello{Status: status}
}

// EncodeClientHello encodes a ClientHello to bytes.
func EncodeClientHello(ch *ClientHello) []byte {
	e := NewEncoder()
	EncodeClientHelloTo(e, ch)
	return e.Bytes()
}

// EncodeClientHelloTo encodes a ClientHello using the provided encoder.
func EncodeClientHelloTo(e *Encoder, ch *ClientHello) {
	e.WriteByte(ch.Version.Major)
	e.WriteByte(ch.Version.Minor)
	e.WriteString(ch.SessionID)
	e.WriteString(ch.Path)
	e.WriteString(ch.Query)
	e.WriteUint32(ch.LastSeq)
}

// DecodeClientHello decodes a ClientHello from bytes.
func DecodeClientHello(data []byte) (*ClientHello, error) {
	d := NewDecoder(data)

	ch := &ClientHello{}
	var err error

	major, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	minor, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	ch.Version = ProtocolVersion{Major: major, Minor: minor}

	ch.SessionID, err = d.ReadBoundedString(MaxSessionIDBytes)
	if err != nil {
		return nil, err
	}

	ch.Path, err = d.ReadBoundedString(MaxPathBytes)
	if err != nil {
		return nil, err
	}

	ch.Query, err = d.ReadBoundedString(MaxQueryBytes)
	if err != nil {
		return nil, err
	}

	ch.LastSeq, err = d.ReadUint32()
	if err != nil {
		return nil, err
	}

	return ch, nil
}

// EncodeServerHello encodes a ServerHello to bytes.
func EncodeServerHello(sh *ServerHello) []byte {
	e := NewEncoder()
	EncodeServerHelloTo(e, sh)
	return e.Bytes()
}

// EncodeServerHelloTo encodes a ServerHello using the provided encoder.
func EncodeServerHelloTo(e *Encoder, sh *ServerHello) {
	e.WriteByte(byte(sh.Status))
	e.WriteString(sh.SessionID)
	e.WriteUint32(sh.NextSeq)
	e.WriteUint64(sh.ServerTime)
}

// DecodeServerHello decodes a ServerHello from bytes.
func DecodeServerHello(data []byte) (*ServerHello, error) {
	d := NewDecoder(data)

	sh := &ServerHello{}
	var err error

	status, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	sh.Status = HandshakeStatus(status)

	sh.SessionID, err = d.ReadBoundedString(MaxSessionIDBytes)
	if err != nil {
		return nil, err
	}

	sh.NextSeq, err = d.ReadUint32()
	if err != nil {
		return nil, err
	}

	sh.ServerTime, err = d.ReadUint64()
	if err != nil {
		return nil, err
	}

	return sh, nil
}
