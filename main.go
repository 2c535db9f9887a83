package main

import "github.com/notargets/dgflow/cmd"

func main() {
	cmd.Execute()
}
