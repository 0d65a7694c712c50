package domain

import "github.com/google/uuid"

// Msg is an outcome the discovery loop publishes for the connection
// supervisor. Delivery is best effort: when the supervisor's channel is
// full the message is dropped.
type Msg interface {
	isMsg()
}

// Establish carries the endpoint the supervisor should connect to.
type Establish struct {
	Endpoint Endpoint
}

// Failed reports that a discovery request exhausted all its attempts.
type Failed struct {
	RequestID uuid.UUID
	Err       error
}

func (Establish) isMsg() {}
func (Failed) isMsg()    {}
