package main

import (
	"github.com/procsched/schedsim/cmd"
)

func main() {
	cmd.Execute()
}
