package main

import "github.com/therealutkarshpriyadarshi/convlog/internal/cmd"

func main() {
	cmd.Execute()
}
