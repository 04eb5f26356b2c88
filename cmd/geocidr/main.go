package main

import (
	"github.com/mchmarny/geocidr/pkg/cli"
)

func main() {
	cli.Execute()
}
