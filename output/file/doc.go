// Package file provides a file output component that keeps a session transcript.
//
// Two formats are supported:
//
//   - jsonl writes one {"subject": ..., "data": <message>} record per bus message,
//     which makes a replayable log of tags, settings, events or the raw node tap.
//   - text writes the rendered text of one window from outlander.tags messages,
//     the way the player saw it. The window is chosen with "window"; empty is main.
//
// Records are buffered and written when buffer_size messages are pending, every
// flush_interval, and on Stop.
//
// Example configuration:
//
//	{
//	  "format": "jsonl",
//	  "ports": {
//	    "inputs":  [{"name": "input", "type": "nats", "subject": "outlander.>"}],
//	    "outputs": [{"name": "file", "type": "file", "subject": "logs/session.jsonl"}]
//	  }
//	}
package file
