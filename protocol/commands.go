package protocol

import (
	"encoding/binary"
	"fmt"
)

// BuildPingCmd constructs a Ping command frame.
//
// Frame structure:
//
//	[SOP][CMD][0x00][0x00][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildPingCmd() ([]byte, error) {
	return BuildFrame(CmdPing, nil)
}

// BuildReadWordCmd constructs a Read Word command frame.
//
// Frame structure:
//
//	[SOP][CMD][LEN_L][LEN_H][ADDR(4)][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildReadWordCmd(addr uint32) ([]byte, error) {
	data := binary.LittleEndian.AppendUint32(nil, addr)
	return BuildFrame(CmdReadWord, data)
}

// BuildWriteWordCmd constructs a Write Word command frame.
//
// Frame structure:
//
//	[SOP][CMD][LEN_L][LEN_H][ADDR(4)][VALUE(4)][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildWriteWordCmd(addr, value uint32) ([]byte, error) {
	data := make([]byte, 0, WriteWordCmdSize)
	data = binary.LittleEndian.AppendUint32(data, addr)
	data = binary.LittleEndian.AppendUint32(data, value)
	return BuildFrame(CmdWriteWord, data)
}

// BuildReadBlockCmd constructs a Read Block command frame for count
// consecutive words starting at addr.
//
// Frame structure:
//
//	[SOP][CMD][LEN_L][LEN_H][ADDR(4)][COUNT_L][COUNT_H][CHECKSUM_L][CHECKSUM_H][EOP]
func BuildReadBlockCmd(addr uint32, count int) ([]byte, error) {
	if count <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", count)
	}
	if count > MaxBlockWords {
		return nil, fmt.Errorf("count %d exceeds maximum %d words", count, MaxBlockWords)
	}

	data := make([]byte, 0, ReadBlockCmdSize)
	data = binary.LittleEndian.AppendUint32(data, addr)
	data = binary.LittleEndian.AppendUint16(data, uint16(count))
	return BuildFrame(CmdReadBlock, data)
}

// ParseReadWordCmd parses the data of a Read Word command.
func ParseReadWordCmd(data []byte) (addr uint32, err error) {
	if len(data) != ReadWordCmdSize {
		return 0, fmt.Errorf("invalid data length for Read Word command: got %d bytes, expected %d", len(data), ReadWordCmdSize)
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ParseWriteWordCmd parses the data of a Write Word command.
func ParseWriteWordCmd(data []byte) (addr, value uint32, err error) {
	if len(data) != WriteWordCmdSize {
		return 0, 0, fmt.Errorf("invalid data length for Write Word command: got %d bytes, expected %d", len(data), WriteWordCmdSize)
	}
	return binary.LittleEndian.Uint32(data[0:4]), binary.LittleEndian.Uint32(data[4:8]), nil
}

// ParseReadBlockCmd parses the data of a Read Block command.
func ParseReadBlockCmd(data []byte) (addr uint32, count int, err error) {
	if len(data) != ReadBlockCmdSize {
		return 0, 0, fmt.Errorf("invalid data length for Read Block command: got %d bytes, expected %d", len(data), ReadBlockCmdSize)
	}
	addr = binary.LittleEndian.Uint32(data[0:4])
	count = int(binary.LittleEndian.Uint16(data[4:6]))
	if count == 0 || count > MaxBlockWords {
		return 0, 0, fmt.Errorf("read block count %d outside 1-%d", count, MaxBlockWords)
	}
	return addr, count, nil
}
