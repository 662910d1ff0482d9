package session

import "stock-bot/internal/models"

// StatusLoggedOut is the disconnect status meaning the stored credentials are
// no longer valid. It ends the session without a retry.
const StatusLoggedOut = 401

// ConnState is the transport-level connection phase carried by a
// ConnectionUpdate.
type ConnState string

const (
	ConnConnecting ConnState = "connecting"
	ConnOpen       ConnState = "open"
	ConnClose      ConnState = "close"
)

// Event is anything the transport (or the controller itself) feeds into the
// event loop.
type Event interface {
	eventName() string
}

// CredentialsUpdated is emitted after the transport persisted new credentials.
type CredentialsUpdated struct{}

// ConnectionUpdate reports a connection phase change. Challenge is set when
// the operator must scan a pairing code. Status is set on close.
type ConnectionUpdate struct {
	State     ConnState
	Challenge string
	Status    int
	Err       error
}

// MessageReceived carries one inbound chat message.
type MessageReceived struct {
	Message models.InboundMessage
}

type startRequested struct{}

type connectFailed struct {
	attempt uint64
	err     error
}

type reconnectDue struct {
	generation uint64
}

func (CredentialsUpdated) eventName() string { return "credentials-updated" }
func (ConnectionUpdate) eventName() string   { return "connection-update" }
func (MessageReceived) eventName() string    { return "message-received" }
func (startRequested) eventName() string     { return "start" }
func (connectFailed) eventName() string      { return "connect-failed" }
func (reconnectDue) eventName() string       { return "reconnect-due" }
