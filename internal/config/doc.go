// Package config assembles the runtime configuration of inboxalert from
// command-line flags, environment variables, an optional .env file and an
// optional YAML config file.
//
// Channel credentials keep the environment variable names of existing
// deployments (SLACK_WEBHOOK_URL, TWILIO_SID, ...), so a .env file written
// for earlier versions continues to work unchanged.
package config
