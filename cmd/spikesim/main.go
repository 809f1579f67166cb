// Command spikesim simulates the bus fabric of the Spikeputor: the arbiter,
// the address decoder, the providers and the SDRAM subsystem.
package main

func main() {
	Execute()
}
