package main

import "github.com/tantalor93/dnsmatrix/cmd"

func main() {
	cmd.Execute()
}
