// Package constants contains well-known configuration values shared across layers.
package constants

const (
	// EnvDevelop marks a local development deployment.
	EnvDevelop = "develop"
	// EnvProduction marks a production deployment.
	EnvProduction = "production"
)

const (
	// PubSubProviderLocal publishes by POSTing push messages to a local worker.
	PubSubProviderLocal = "local"
	// PubSubProviderGoogle publishes to Google Cloud Pub/Sub.
	PubSubProviderGoogle = "google"
)
