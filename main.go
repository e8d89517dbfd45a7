package main

import (
	"github.com/cognifood/shelf-life-api/cmd"
)

func main() {
	cmd.Execute()
}
