// Package websocket provides a WebSocket server output component that feeds
// renderer clients.
//
// # Overview
//
// The output subscribes to its input subjects (tag batches, settings, events and
// window commands by default) and writes every message to each connected client
// as a data envelope:
//
//	{"type": "data", "id": "msg-...", "timestamp": 1700000000000,
//	 "subject": "outlander.tags", "data": { ...bus message... }}
//
// Data that is not JSON is sent as a JSON string.
//
// Clients may send command envelopes back:
//
//	{"type": "command", "line": "#window add combat"}
//
// Each non-empty line is published as an outlander.command.v1 message to the
// "commands" output port, where the command processor picks it up. Without that
// port client frames are read and dropped.
//
// # Configuration
//
// The listen address is encoded as a URL in the "websocket_server" output port:
//
//	{
//	  "ports": {
//	    "inputs":  [{"name": "tags", "type": "nats", "subject": "outlander.tags"}],
//	    "outputs": [
//	      {"name": "websocket_server", "type": "network", "subject": "http://0.0.0.0:8081/ws"},
//	      {"name": "commands", "type": "nats", "subject": "outlander.commands"}
//	    ]
//	  },
//	  "ping_interval": "30s",
//	  "write_timeout": "5s",
//	  "read_limit": 4096
//	}
//
// Port 0 binds a free port; Addr reports the address in use.
//
// # Client Management
//
// Each client has one read goroutine and a write mutex. Broadcasts write to all
// clients concurrently and wait for every write. A client whose write or ping
// fails, or that stays silent for two ping intervals, is disconnected.
package websocket
