package protocol

import (
	"encoding/binary"
	"fmt"
	"io"
)

// BuildFrame wraps data in a frame with the given command or status code.
//
// Frame structure:
//
//	[SOP][CODE][LEN_L][LEN_H][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildFrame(code byte, data []byte) ([]byte, error) {
	if len(data) > MaxDataSize {
		return nil, fmt.Errorf("data length %d exceeds maximum %d bytes", len(data), MaxDataSize)
	}

	frame := make([]byte, 0, MinFrameSize+len(data))

	// Start of packet
	frame = append(frame, StartOfPacket)

	// Command or status
	frame = append(frame, code)

	// Data length (little-endian)
	frame = binary.LittleEndian.AppendUint16(frame, uint16(len(data)))

	frame = append(frame, data...)

	// Checksum excludes SOP
	frame = binary.LittleEndian.AppendUint16(frame, calculatePacketChecksum(frame[1:]))

	// End of packet
	frame = append(frame, EndOfPacket)

	return frame, nil
}

// ParseFrame extracts the code and data from a frame.
// Validates frame structure, length, and checksum.
func ParseFrame(frame []byte) (code byte, data []byte, err error) {
	if len(frame) < MinFrameSize {
		return 0, nil, fmt.Errorf("frame too short: got %d bytes, minimum is %d", len(frame), MinFrameSize)
	}

	if frame[0] != StartOfPacket {
		return 0, nil, fmt.Errorf("invalid start of packet: got 0x%02X, expected 0x%02X", frame[0], StartOfPacket)
	}

	if frame[len(frame)-1] != EndOfPacket {
		return 0, nil, fmt.Errorf("invalid end of packet: got 0x%02X, expected 0x%02X", frame[len(frame)-1], EndOfPacket)
	}

	code = frame[1]
	dataLen := binary.LittleEndian.Uint16(frame[2:4])

	expectedLen := MinFrameSize + int(dataLen)
	if len(frame) != expectedLen {
		return 0, nil, fmt.Errorf("frame length mismatch: got %d bytes, expected %d (MinFrameSize=%d + dataLen=%d)",
			len(frame), expectedLen, MinFrameSize, dataLen)
	}

	checksumExpected := binary.LittleEndian.Uint16(frame[len(frame)-3 : len(frame)-1])
	checksumActual := calculatePacketChecksum(frame[1 : len(frame)-3])

	if checksumExpected != checksumActual {
		return 0, nil, &ChecksumError{Got: checksumActual, Want: checksumExpected}
	}

	if dataLen > 0 {
		data = frame[4 : 4+dataLen]
	}

	return code, data, nil
}

// ChecksumError reports a frame whose checksum does not match its contents.
type ChecksumError struct {
	Got, Want uint16
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch: got 0x%04X, expected 0x%04X", e.Got, e.Want)
}

// ReadFrame reads exactly one frame from r. Bytes before a start of packet
// marker are skipped. The frame is returned unvalidated apart from its
// length field; pass it to ParseFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	header := make([]byte, HeaderSize)

	for {
		if _, err := io.ReadFull(r, header[:1]); err != nil {
			return nil, err
		}
		if header[0] == StartOfPacket {
			break
		}
	}

	if _, err := io.ReadFull(r, header[1:]); err != nil {
		return nil, fmt.Errorf("reading frame header: %w", err)
	}

	dataLen := int(binary.LittleEndian.Uint16(header[2:4]))
	if dataLen > MaxDataSize {
		return nil, fmt.Errorf("frame data length %d exceeds maximum %d bytes", dataLen, MaxDataSize)
	}

	frame := make([]byte, MinFrameSize+dataLen)
	copy(frame, header)
	if _, err := io.ReadFull(r, frame[HeaderSize:]); err != nil {
		return nil, fmt.Errorf("reading frame body: %w", err)
	}

	return frame, nil
}
