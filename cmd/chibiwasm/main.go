// Command chibiwasm decodes, validates, and runs WebAssembly core 1.0
// binaries from the command line.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
