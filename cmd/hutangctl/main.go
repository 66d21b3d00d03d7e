// Command hutangctl is the operator tool for a HutangKu deployment.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
