package main

import (
	"ViewTube/cmd"
	"log"
)

func main() {
	cmd.Execute()
	// Cobra calls os.Exit itself on command failure; reaching here means the
	// selected command completed (or the server started cleanly).
	log.Println("Command execution finished.")
}
