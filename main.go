package main

import "github.com/deepexcav/femadapt/cmd"

func main() {
	cmd.Execute()
}
