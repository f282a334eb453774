package main

import "github.com/oferdebug/projectzen/cmd"

func main() {
	cmd.Execute()
}
