package main

import (
	"github.com/turtacn/kpidash/cmd/cli"
)

func main() {
	cli.Execute()
}
