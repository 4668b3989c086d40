// Package monitor carries flash.Bus traffic over a byte stream.
//
// A Server answers protocol frames by loading and storing words on a local
// bus; on hardware that is the target's memory map, in tests and on the
// desktop it is a flashsim.Sim. A Client is a flash.Bus that forwards every
// access to a Server, so the flash engine can run on a host and drive a
// remote controller one register access at a time.
//
//	port, _ := serial.Open("/dev/ttyACM0", &serial.Mode{BaudRate: 115200})
//	client := monitor.NewClient(port)
//	eng := flash.New(client, flash.WithWaitTimeout(time.Second))
//
// Each access is a full request/response round trip, so polling loops are
// slow over a real UART. Prefer FastWrite for bulk programming.
package monitor
