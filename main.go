package main

import "github.com/playmallpark/winston/cmd"

func main() {
	cmd.Execute()
}
