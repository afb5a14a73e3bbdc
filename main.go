package main

import "github.com/petermgrund/paresthesias-analysis/cmd"

func main() {
	cmd.Execute()
}
