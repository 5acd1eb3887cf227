// Command postdesk sends GET, POST and PUT requests to a REST posts
// collection and renders the result.
//
// Usage:
//
//	postdesk run fetch
//	postdesk serve --listen :8080
//	postdesk tui
package main

import (
	"context"
	"os"

	"github.com/raysh454/postdesk/internal/cli"
)

func main() {
	if err := cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		os.Exit(1)
	}
}
