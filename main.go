package main

import (
	"github.com/heritage-libraries/mapflow/cmd"
)

func main() {
	cmd.Execute()
}
