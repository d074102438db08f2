package component

import (
	"encoding/json"
	"fmt"
)

// NATSPort is a core NATS subject. Any number of components may share it.
type NATSPort struct {
	Subject   string             `json:"subject"`
	Queue     string             `json:"queue,omitempty"`
	Interface *InterfaceContract `json:"interface,omitempty"`
}

func (n NATSPort) ResourceID() string { return "nats:" + n.Subject }
func (n NATSPort) IsExclusive() bool  { return false }
func (n NATSPort) Type() string       { return "nats" }

// NetworkPort is a listening socket: the websocket server or the UDP node
// feed. Only one component may bind a given protocol, host and port.
type NetworkPort struct {
	Protocol string `json:"protocol"` // "websocket", "udp"
	Host     string `json:"host"`
	Port     int    `json:"port"`
}

func (n NetworkPort) ResourceID() string { return fmt.Sprintf("%s:%s:%d", n.Protocol, n.Host, n.Port) }
func (n NetworkPort) IsExclusive() bool  { return true }
func (n NetworkPort) Type() string       { return "network" }

// KVWritePort is a JetStream key-value bucket, such as the game state bucket.
type KVWritePort struct {
	Bucket    string             `json:"bucket"`
	Interface *InterfaceContract `json:"interface,omitempty"`
}

func (k KVWritePort) ResourceID() string { return "kvwrite:" + k.Bucket }
func (k KVWritePort) IsExclusive() bool  { return false }
func (k KVWritePort) Type() string       { return "kvwrite" }

// KVReadPort is a JetStream key-value bucket read by a component, such as the
// game state snapshot sent to new renderer clients.
type KVReadPort struct {
	Bucket string `json:"bucket"`
}

func (k KVReadPort) ResourceID() string { return "kvread:" + k.Bucket }
func (k KVReadPort) IsExclusive() bool  { return false }
func (k KVReadPort) Type() string       { return "kvread" }

// FilePort is a transcript file. Two writers on one path would interleave, so
// it is exclusive.
type FilePort struct {
	Path string `json:"path"`
}

func (f FilePort) ResourceID() string { return "file:" + f.Path }
func (f FilePort) IsExclusive() bool  { return true }
func (f FilePort) Type() string       { return "file" }

func decodePort[T Portable](data json.RawMessage) (Portable, error) {
	var cfg T
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// portDecoders maps a Portable type tag to its decoder.
var portDecoders = map[string]func(json.RawMessage) (Portable, error){
	"nats":    decodePort[NATSPort],
	"network": decodePort[NetworkPort],
	"kvwrite": decodePort[KVWritePort],
	"kvread":  decodePort[KVReadPort],
	"file":    decodePort[FilePort],
}
