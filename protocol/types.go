package protocol

// TargetInfo describes the monitor on the other end of the link.
// Returned by the Ping command.
type TargetInfo struct {
	// Major and Minor are the protocol version
	Major, Minor byte

	// MaxBlockWords is the largest count accepted by Read Block
	MaxBlockWords uint16
}
