// Package main is the entry point for the weevil CLI.
package main

import "gooze.dev/pkg/weevil/cmd"

func main() {
	cmd.Execute()
}
