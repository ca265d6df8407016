// Package main provides the desk CLI.
package main

import "github.com/mesh-intelligence/tabledesk/internal/cli"

func main() {
	cli.Execute()
}
