package main

import "github.com/apexcoach/telemetry-coach/cmd"

func main() {
	cmd.Execute()
}
