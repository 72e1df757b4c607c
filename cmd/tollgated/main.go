package main

import "github.com/l402gate/tollgate/gate"

func main() {
	gate.Main()
}
