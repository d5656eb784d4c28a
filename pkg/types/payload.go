package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidPayload = errors.New("invalid payload")

type PayloadKind string

const (
	PayloadSystemEvent PayloadKind = "systemEvent"
	PayloadAgentTurn   PayloadKind = "agentTurn"
)

// Payload describes what a job does when it fires. Implementations:
// SystemEventPayload and AgentTurnPayload.
type Payload interface {
	Kind() PayloadKind
	Validate() error
	isPayload()
}

type SystemEventPayload struct {
	Text string
}

type AgentTurnPayload struct {
	Message        string
	Deliver        bool
	Channel        string
	To             string
	TimeoutSeconds int
}

func (SystemEventPayload) Kind() PayloadKind { return PayloadSystemEvent }
func (AgentTurnPayload) Kind() PayloadKind   { return PayloadAgentTurn }

func (SystemEventPayload) isPayload() {}
func (AgentTurnPayload) isPayload()   {}

func (p SystemEventPayload) Validate() error {
	if strings.TrimSpace(p.Text) == "" {
		return fmt.Errorf("%w: system event text is required", ErrInvalidPayload)
	}
	return nil
}

func (p AgentTurnPayload) Validate() error {
	if strings.TrimSpace(p.Message) == "" {
		return fmt.Errorf("%w: agent message is required", ErrInvalidPayload)
	}
	if p.Deliver && strings.TrimSpace(p.To) == "" {
		return fmt.Errorf("%w: recipient required when delivery is enabled", ErrInvalidPayload)
	}
	if p.TimeoutSeconds < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidPayload)
	}
	return nil
}

type payloadWire struct {
	Kind           PayloadKind `json:"kind"`
	Text           string      `json:"text,omitempty"`
	Message        string      `json:"message,omitempty"`
	Deliver        bool        `json:"deliver,omitempty"`
	Channel        string      `json:"channel,omitempty"`
	To             string      `json:"to,omitempty"`
	TimeoutSeconds int         `json:"timeoutSeconds,omitempty"`
}

func MarshalPayload(p Payload) ([]byte, error) {
	var w payloadWire
	switch v := p.(type) {
	case SystemEventPayload:
		w = payloadWire{Kind: PayloadSystemEvent, Text: v.Text}
	case AgentTurnPayload:
		w = payloadWire{
			Kind:           PayloadAgentTurn,
			Message:        v.Message,
			Deliver:        v.Deliver,
			Channel:        v.Channel,
			To:             v.To,
			TimeoutSeconds: v.TimeoutSeconds,
		}
	case nil:
		return []byte("null"), nil
	default:
		return nil, fmt.Errorf("%w: payload %T", ErrUnknownKind, p)
	}
	return json.Marshal(w)
}

func UnmarshalPayload(data []byte) (Payload, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}

	var w payloadWire
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode payload: %w", err)
	}

	switch w.Kind {
	case PayloadSystemEvent:
		return SystemEventPayload{Text: w.Text}, nil
	case PayloadAgentTurn:
		return AgentTurnPayload{
			Message:        w.Message,
			Deliver:        w.Deliver,
			Channel:        w.Channel,
			To:             w.To,
			TimeoutSeconds: w.TimeoutSeconds,
		}, nil
	default:
		return nil, fmt.Errorf("%w: payload %q", ErrUnknownKind, w.Kind)
	}
}
