package protocol

import (
	"encoding/binary"
	"fmt"
)

// ParseResponse extracts status code and data from a response frame.
// Validates frame structure, length, and checksum.
//
// Response frame structure:
//
//	[SOP][STATUS][LEN_L][LEN_H][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
func ParseResponse(frame []byte) (statusCode byte, data []byte, err error) {
	return ParseFrame(frame)
}

// BuildResponse constructs a response frame.
func BuildResponse(statusCode byte, data []byte) ([]byte, error) {
	return BuildFrame(statusCode, data)
}

// BuildPingResponse encodes info as Ping response data.
func BuildPingResponse(info TargetInfo) []byte {
	data := []byte{info.Major, info.Minor}
	return binary.LittleEndian.AppendUint16(data, info.MaxBlockWords)
}

// ParsePingResponse parses the Ping command response.
//
// Data format (4 bytes):
//
//	[MAJOR][MINOR][MAX_BLOCK_L][MAX_BLOCK_H]
func ParsePingResponse(data []byte) (*TargetInfo, error) {
	if len(data) != PingResponseSize {
		return nil, fmt.Errorf("invalid data length for Ping response: got %d bytes, expected %d", len(data), PingResponseSize)
	}

	return &TargetInfo{
		Major:         data[0],
		Minor:         data[1],
		MaxBlockWords: binary.LittleEndian.Uint16(data[2:4]),
	}, nil
}

// BuildWordsResponse encodes words as Read Word or Read Block response data.
func BuildWordsResponse(words []uint32) []byte {
	data := make([]byte, 0, len(words)*WordSize)
	for _, w := range words {
		data = binary.LittleEndian.AppendUint32(data, w)
	}
	return data
}

// ParseReadWordResponse parses the Read Word command response.
//
// Data format (4 bytes):
//
//	[VALUE]
func ParseReadWordResponse(data []byte) (uint32, error) {
	if len(data) != WordSize {
		return 0, fmt.Errorf("invalid data length for Read Word response: got %d bytes, expected %d", len(data), WordSize)
	}
	return binary.LittleEndian.Uint32(data), nil
}

// ParseReadBlockResponse parses the Read Block command response.
//
// Data format (4*count bytes):
//
//	[VALUE * COUNT]
func ParseReadBlockResponse(data []byte, count int) ([]uint32, error) {
	if len(data) != count*WordSize {
		return nil, fmt.Errorf("invalid data length for Read Block response: got %d bytes, expected %d", len(data), count*WordSize)
	}

	words := make([]uint32, count)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(data[i*WordSize:])
	}
	return words, nil
}
