package main

import (
	"os"

	"tokenhunter-event-gate/cmd/gatecli/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
