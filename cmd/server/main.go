// Command server runs the AI dashboard backend.
//
// Usage:
//
//	# Start the HTTP server with the default config search paths
//	server
//
//	# Start with an explicit config file, reloaded when it changes
//	server serve --config /etc/aidash/config.yaml
//
//	# Create or update database tables
//	server migrate
//
//	# Inspect or reset free-usage counters
//	server usage get user-123
//	server usage reset user-123
//	server usage reset --all
package main

func main() {
	Execute()
}
