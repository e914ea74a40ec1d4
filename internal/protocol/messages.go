// ABOUTME: Control protocol message type definitions
// ABOUTME: JSON envelope and payloads for the mixer control surface
package protocol

// Message is the top-level wrapper for all control messages.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// ClientHello is sent by a controller to initiate the handshake.
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the response to client/hello.
type ServerHello struct {
	ServerID        string `json:"server_id"`
	Product         string `json:"product"`
	SoftwareVersion string `json:"software_version"`
	Version         int    `json:"version"`
}

// TempoSet asks the mixer to change the master tempo.
type TempoSet struct {
	BPM float64 `json:"bpm"`
}

// Ack confirms a command was applied.
type Ack struct {
	Command string `json:"command"`
}

// Error reports a rejected command.
type Error struct {
	Command string `json:"command,omitempty"`
	Message string `json:"message"`
}

// Message types.
const (
	TypeClientHello   = "client/hello"
	TypeServerHello   = "server/hello"
	TypeTransportPlay = "transport/play"
	TypeTransportStop = "transport/stop"
	TypeTempoSet      = "tempo/set"
	TypeStatusGet     = "status/get"
	TypeStatusUpdate  = "status/update"
	TypeAck           = "ack"
	TypeError         = "error"
)
