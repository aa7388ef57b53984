package protocol

// ErrorCode identifies the type of error.
type ErrorCode uint16

const (
	CodeUnknown        ErrorCode = 0x0000
	CodeInvalidFrame   ErrorCode = 0x0001 // Malformed frame
	CodeInvalidMessage ErrorCode = 0x0002 // Malformed message payload
	CodeUnknownStore   ErrorCode = 0x0003 // SetMsg named an unattached store
	CodeInvalidValue   ErrorCode = 0x0004 // SetMsg value failed its codec
	CodeSessionExpired ErrorCode = 0x0005 // Session no longer valid
	CodeRateLimited    ErrorCode = 0x0006 // Too many messages
	CodeServerError    ErrorCode = 0x0100 // Internal server error
)

// String returns the string representation of the error code.
func (ec ErrorCode) String() string {
	switch ec {
	case CodeUnknown:
		return "Unknown"
	case CodeInvalidFrame:
		return "InvalidFrame"
	case CodeInvalidMessage:
		return "InvalidMessage"
	case CodeUnknownStore:
		return "UnknownStore"
	case CodeInvalidValue:
		return "InvalidValue"
	case CodeSessionExpired:
		return "SessionExpired"
	case CodeRateLimited:
		return "RateLimited"
	case CodeServerError:
		return "ServerError"
	default:
		return "Unknown"
	}
}

// ErrorMessage is sent when a message could not be handled. Non-fatal
// errors mirror the engine's recovery stance: report, drop, continue.
type ErrorMessage struct {
	Code    ErrorCode
	Message string
	Fatal   bool // If true, the connection will be closed
}

// NewError creates a non-fatal ErrorMessage.
func NewError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message}
}

// NewFatalError creates a fatal ErrorMessage.
func NewFatalError(code ErrorCode, message string) *ErrorMessage {
	return &ErrorMessage{Code: code, Message: message, Fatal: true}
}

// Error implements the error interface.
func (em *ErrorMessage) Error() string {
	if em.Fatal {
		return "fatal: " + em.Code.String() + ": " + em.Message
	}
	return em.Code.String() + ": " + em.Message
}

// IsFatal reports whether this error should close the connection.
func (em *ErrorMessage) IsFatal() bool {
	return em.Fatal
}

// EncodeErrorMessage encodes an ErrorMessage to bytes.
func EncodeErrorMessage(em *ErrorMessage) []byte {
	e := NewEncoder()
	EncodeErrorMessageTo(e, em)
	return e.Bytes()
}

// EncodeErrorMessageTo encodes an ErrorMessage using the provided encoder.
func EncodeErrorMessageTo(e *Encoder, em *ErrorMessage) {
	e.WriteUint16(uint16(em.Code))
	e.WriteString(em.Message)
	e.WriteBool(em.Fatal)
}

// DecodeErrorMessage decodes an ErrorMessage from bytes.
func DecodeErrorMessage(data []byte) (*ErrorMessage, error) {
	d := NewDecoder(data)

	code, err := d.ReadUint16()
	if err != nil {
		return nil, err
	}

	message, err := d.ReadBoundedString(MaxMessageBytes)
	if err != nil {
		return nil, err
	}

	fatal, err := d.ReadBool()
	if err != nil {
		return nil, err
	}

	return &ErrorMessage{
		Code:    ErrorCode(code),
		Message: message,
		Fatal:   fatal,
	}, nil
}
