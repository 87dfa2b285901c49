// Command akitaio runs simulations bridged to serial lines, CAN interfaces
// and UDP sockets.
package main

import "github.com/sarchlab/akitaio/akitaio/cmd"

func main() {
	cmd.Execute()
}
