package main

import (
	"github.com/inovacc/gitmon/cmd"
)

func main() {
	cmd.Execute()
}
