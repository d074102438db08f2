// Package natsclient is the NATS layer shared by every Outlander component.
//
// Node batches arrive on a subject, the stormfront processor publishes tags and
// game events on others, and every setting lands in a JetStream key/value bucket
// so late joiners can read the current game state:
//
//	client, err := natsclient.NewClient("nats://localhost:4222", natsclient.WithLogger(logger))
//	if err != nil {
//	    return err
//	}
//	if err := client.Connect(ctx); err != nil {
//	    return err
//	}
//	defer client.Close(ctx)
//
//	bucket, err := client.CreateKeyValueBucket(ctx, jetstream.KeyValueConfig{Bucket: "OUTLANDER_STATE"})
//	state := client.NewKVStore(bucket)
//	_, err = state.Put(ctx, natsclient.SanitizeKey("roomtitle"), []byte("[The Crossing]"))
//
// # Circuit breaker
//
// After five consecutive failures the client opens its circuit and rejects
// connection and bucket operations with ErrCircuitOpen. The circuit half-opens
// after the current backoff, which doubles on every further round of failures
// up to the configured maximum. Any success resets it.
//
// # Testing
//
// NewTestClient starts a nats container through testcontainers. Tests that use
// it carry the integration build tag.
package natsclient
