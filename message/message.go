package message

// Message is the unit of data flowing between components.
type Message interface {
	// ID returns a unique identifier for this message instance.
	ID() string

	// Type returns the schema of the payload.
	Type() Type

	Payload() Payload

	Meta() Meta

	// Hash returns a content hash over type and payload, used to spot
	// duplicate batches.
	Hash() string

	Validate() error
}
