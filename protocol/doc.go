// Package protocol implements the flash monitor wire protocol.
//
// The monitor gives a host word access to a target's memory map, which is
// all the flash engine needs to drive FLCTL over a serial link.
//
// # Protocol Overview
//
// Frames reuse the classic bootloader packet layout:
//
//	Command:  [SOP][CMD][LEN_L][LEN_H][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
//	Response: [SOP][STATUS][LEN_L][LEN_H][DATA...][CHECKSUM_L][CHECKSUM_H][EOP]
//
// Where:
//   - SOP = Start of Packet (0x01)
//   - EOP = End of Packet (0x17)
//   - LEN = 16-bit data length (little-endian)
//   - CHECKSUM = 16-bit checksum (little-endian, 2's complement)
//
// Addresses and words in DATA are 32-bit little-endian.
//
// # Commands
//
//	Ping       -> [MAJOR][MINOR][MAX_BLOCK_L][MAX_BLOCK_H]
//	ReadWord   [ADDR] -> [VALUE]
//	WriteWord  [ADDR][VALUE] -> (empty)
//	ReadBlock  [ADDR][COUNT_L][COUNT_H] -> [VALUE * COUNT]
//
// # Usage
//
//	frame, err := protocol.BuildReadWordCmd(0x400110F0)
//	// write frame, then read the reply
//	reply, err := protocol.ReadFrame(r)
//	status, data, err := protocol.ParseResponse(reply)
//	if status != protocol.StatusSuccess {
//	    return &protocol.ProtocolError{Operation: "read word", StatusCode: status}
//	}
//	value, err := protocol.ParseReadWordResponse(data)
package protocol
