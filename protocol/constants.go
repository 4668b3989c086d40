package protocol

// Protocol version reported by Ping.
const (
	VersionMajor = 1
	VersionMinor = 0
)

// Frame structure constants.
const (
	// StartOfPacket is the frame start marker (0x01)
	StartOfPacket = 0x01

	// EndOfPacket is the frame end marker (0x17)
	EndOfPacket = 0x17

	// MinFrameSize is the minimum frame size in bytes:
	// SOP(1) + CMD/STATUS(1) + LEN(2) + CHECKSUM(2) + EOP(1)
	MinFrameSize = 7

	// HeaderSize covers SOP, CMD/STATUS and LEN
	HeaderSize = 4
)

// Command codes.
const (
	// CmdPing checks the link and reports the protocol version
	CmdPing = 0x10

	// CmdReadWord loads one 32-bit word
	CmdReadWord = 0x20

	// CmdWriteWord stores one 32-bit word
	CmdWriteWord = 0x21

	// CmdReadBlock loads consecutive 32-bit words
	CmdReadBlock = 0x22
)

// Status/Error codes.
const (
	// StatusSuccess indicates command was successfully received and executed
	StatusSuccess = 0x00

	// ErrLength indicates data amount is outside expected range
	ErrLength = 0x03

	// ErrData indicates data is not of proper form
	ErrData = 0x04

	// ErrCommand indicates command is not recognized
	ErrCommand = 0x05

	// ErrChecksum indicates packet checksum doesn't match expected value
	ErrChecksum = 0x08

	// ErrAddress indicates the target rejected the address
	ErrAddress = 0x0A

	// ErrBus indicates the target failed the access
	ErrBus = 0x0B

	// ErrUnknown indicates an unknown error occurred
	ErrUnknown = 0x0F
)

// MaxDataSize is the maximum data payload size per packet.
const MaxDataSize = 256

// MaxBlockWords is the largest ReadBlock count that fits one response.
const MaxBlockWords = MaxDataSize / WordSize

// Payload sizes.
const (
	// WordSize is the size of an address or value on the wire
	WordSize = 4

	// PingResponseSize is the data size for a Ping response
	PingResponseSize = 4

	// ReadWordCmdSize is the data size of a Read Word command
	ReadWordCmdSize = 4

	// WriteWordCmdSize is the data size of a Write Word command
	WriteWordCmdSize = 8

	// ReadBlockCmdSize is the data size of a Read Block command
	ReadBlockCmdSize = 6
)
