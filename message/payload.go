package message

import "encoding/json"

// Payload is the data carried by a message.
//
// Implementations register a factory with component.RegisterPayload so that
// BaseMessage.UnmarshalJSON can rebuild them:
//
//	func init() {
//	    _ = component.RegisterPayload(&component.PayloadRegistration{
//	        Domain: "outlander", Category: "tags", Version: "v1",
//	        Factory: func() any { return &TagsPayload{} },
//	    })
//	}
type Payload interface {
	// Schema returns the Type that describes this payload.
	Schema() Type

	// Validate checks required fields.
	Validate() error

	json.Marshaler
	json.Unmarshaler
}
