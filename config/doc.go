// Package config loads the Outlander service configuration.
//
// Configuration comes from one or more layered files, JSON or YAML chosen by
// file extension, merged over built-in defaults and finally overridden by
// OUTLANDER_* environment variables.
//
// # Basic Usage
//
//	loader := config.NewLoader()
//	loader.AddLayer("configs/outlander.yaml")
//	loader.AddLayer("configs/local.json") // Overrides base
//	loader.EnableValidation(true)
//
//	cfg, err := loader.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
// # Components
//
// Components is keyed by instance name. An instance is created only when its
// factory is registered and the entry is enabled:
//
//	components:
//	  stormfront:
//	    type: processor
//	    name: stormfront
//	    enabled: true
//	    config:
//	      kv_history: 5
//
// # Environment Overrides
//
//	OUTLANDER_PLATFORM_ORG, OUTLANDER_PLATFORM_ID
//	OUTLANDER_NATS_URLS (comma separated), OUTLANDER_NATS_USERNAME,
//	OUTLANDER_NATS_PASSWORD, OUTLANDER_NATS_TOKEN
//	OUTLANDER_METRICS_PORT
//
// # Security
//
// Files are size limited, must be regular files, and relative paths may not
// escape the working directory. JSON nesting depth is bounded.
package config
