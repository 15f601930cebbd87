package server

// Client abstracts the connection layer for telnet and WebSocket
// sessions. WriteLine and Write may be called from any goroutine: the
// session's own loop and every broadcast share the connection.
type Client interface {
	// ReadLine blocks until a complete line is received, without the newline.
	ReadLine() (string, error)

	// WriteLine sends one block of text. Telnet writes it as is;
	// WebSocket sends it as one message.
	WriteLine(message string) error

	// Write sends raw bytes.
	Write(data []byte) error

	Close() error

	// RemoteAddr returns the peer address for logging and limits.
	RemoteAddr() string
}
