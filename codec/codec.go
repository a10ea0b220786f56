package codec

type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
	// Complete reports whether data holds exactly one whole document.
	// Stream readers without a length prefix call it after every read.
	Complete(data []byte) bool
}
