// Package constants holds shared domain-level constants.
package constants

// Pub/Sub provider names accepted in configuration.
const (
	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"
)

// Deployment environment names accepted in configuration.
const (
	EnvDevelop    = "develop"
	EnvProduction = "production"
)
