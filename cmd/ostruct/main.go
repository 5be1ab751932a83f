// Command ostruct attaches local files to LLM prompts and tool invocations.
package main

import (
	"os"

	"github.com/yaniv-golan/ostruct-go/cmd/ostruct/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
