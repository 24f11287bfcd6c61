// Command koapa hosts the koapa query builder over HTTP.
//
// Commands:
//   - serve: Open the configured engine and serve the demo routes
//   - config show: Print the effective configuration
//   - version: Print version information
//
// Configuration comes from flags, KOAPA_* environment variables and an
// auto-discovered koapa.yaml, in that order of precedence.
//
// Usage:
//
//	koapa [flags] <command>
package main

func main() {
	Execute()
}
