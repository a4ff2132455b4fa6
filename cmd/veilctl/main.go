// Command veilctl operates on a SQLite database managed by veil: it
// inspects the catalog, forces a view refresh, and runs health checks.
// It is a maintenance tool, not the security engine itself — an
// application embeds veil directly and never needs veilctl to serve
// requests.
//
// Usage:
//
//	veilctl [flags] <command>
package main

func main() {
	Execute()
}
