// Package message defines the envelope every Outlander component publishes on NATS.
//
// A message combines a typed Payload with an id and metadata. The Type
// (domain, category, version) names the payload schema, and is also the key
// BaseMessage.UnmarshalJSON uses to find the payload factory registered with
// component.RegisterPayload.
//
// # Wire Format
//
//	{
//	  "id": "2f1c...",
//	  "type": {"domain": "outlander", "category": "tags", "version": "v1"},
//	  "payload": {...},
//	  "meta": {"created_at": 1700000000000, "received_at": 1700000000001, "source": "stormfront"}
//	}
//
// Timestamps are Unix milliseconds.
//
// # Usage
//
//	msg := message.NewBaseMessage(payload.Schema(), payload, "stormfront")
//	data, err := json.Marshal(msg)
//
//	var in message.BaseMessage
//	if err := json.Unmarshal(data, &in); err != nil {
//	    return err
//	}
//	tags, ok := in.Payload().(*TagsPayload)
package message
