package main

import "github.com/rafisarkar/ddlphase/cmd"

func main() {
	cmd.Execute()
}
