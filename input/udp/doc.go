// Package udp provides the UDP node feed: an input component that receives
// parsed protocol node batches from the game protocol parser and publishes
// them on the bus for the stream processor.
//
// Each datagram carries one JSON node batch:
//
//	{"nodes": [{"name": "pushstream", "attrs": {"id": "thoughts"}}, {"name": "text", "value": "..."}]}
//
// Datagrams that do not decode, or decode to an empty batch, are counted as
// errors and dropped. Valid batches are wrapped in an outlander.nodes.v1
// message and published to the "nodes" output subject (default
// outlander.nodes), in arrival order.
//
// # Configuration
//
//	ports:
//	  inputs:
//	    - name: udp_socket
//	      type: network
//	      subject: udp://127.0.0.1:7770
//	  outputs:
//	    - name: nodes
//	      subject: outlander.nodes
//	queue_size: 1024
//	max_datagram: 65507
//
// Reading and publishing run in separate goroutines joined by a bounded
// queue. When the bus falls behind and the queue fills, the oldest waiting
// datagram is dropped. Publishing retries transient failures with the
// errors.DefaultRetryConfig policy. Port 0 binds a free port; Addr reports it.
package udp
