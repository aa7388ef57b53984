package protocol

// URLOp is the history operation a URL patch asks the client to perform.
type URLOp uint8

const (
	// URLPush creates a new history entry with the query.
	URLPush URLOp = 0x01

	// URLReplace swaps the current entry's query without creating one.
	URLReplace URLOp = 0x02
)

// String returns the string representation of the URL operation.
func (op URLOp) String() string {
	switch op {
	case URLPush:
		return "Push"
	case URLReplace:
		return "Replace"
	default:
		return "Unknown"
	}
}

// URLPatch is a server → client URL mutation. Each patch carries the
// complete encoded query, so patches are idempotent snapshots: the
// client applies the newest and may drop anything older.
type URLPatch struct {
	Seq   uint64
	Op    URLOp
	Query string // Encoded query string, without "?"
}

// NewURLPushPatch creates a patch that pushes a new history entry.
func NewURLPushPatch(seq uint64, query string) *URLPatch {
	return &URLPatch{Seq: seq, Op: URLPush, Query: query}
}

// NewURLReplacePatch creates a patch that replaces the current entry.
func NewURLReplacePatch(seq uint64, query string) *URLPatch {
	return &URLPatch{Seq: seq, Op: URLReplace, Query: query}
}

// EncodeURLPatch encodes a URLPatch to bytes.
func EncodeURLPatch(p *URLPatch) []byte {
	e := NewEncoder()
	EncodeURLPatchTo(e, p)
	return e.Bytes()
}

// EncodeURLPatchTo encodes a URLPatch using the provided encoder.
func EncodeURLPatchTo(e *Encoder, p *URLPatch) {
	e.WriteUvarint(p.Seq)
	e.WriteByte(byte(p.Op))
	e.WriteString(p.Query)
}

// DecodeURLPatch decodes a URLPatch from bytes.
func DecodeURLPatch(data []byte) (*URLPatch, error) {
	d := NewDecoder(data)

	p := &URLPatch{}
	var err error

	p.Seq, err = d.ReadUvarint()
	if err != nil {
		return nil, err
	}

	op, err := d.ReadByte()
	if err != nil {
		return nil, err
	}
	p.Op = URLOp(op)

	p.Query, err = d.ReadBoundedString(MaxQueryBytes)
	if err != nil {
		return nil, err
	}
	return p, nil
}
