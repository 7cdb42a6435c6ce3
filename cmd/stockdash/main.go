// Command stockdash serves the stock dashboard API.
//
//	stockdash                 # same as "stockdash serve"
//	stockdash serve
//	stockdash user add --username admin --password ... --role admin
package main

import (
	"os"

	"stockdash/cmd/stockdash/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
