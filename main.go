// Command corerelay runs the edge-pull/WebRTC relay process.
package main

import (
	"os"

	"github.com/docterling/corerelay/internal/core"
)

func main() {
	c, ok := core.New(os.Args[1:])
	if !ok {
		os.Exit(1)
	}
	c.Wait()
}
