package main

import "github.com/chartscout/chartscout/cmd/chartscout"

func main() { chartscout.Execute() }
