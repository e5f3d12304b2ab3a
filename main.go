// Package main is the entry point for the mindshare tracker
package main

import (
	"github.com/yaplytics/mindshare/cmd"
)

func main() {
	cmd.Execute()
}
