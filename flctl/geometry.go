package flctl

// Main memory geometry.
const (
	// Bank0Min is the first address of flash bank 0
	Bank0Min = 0x00000000

	// Bank0Max is the last address of flash bank 0
	Bank0Max = 0x0001FFFF

	// Bank1Min is the first address of flash bank 1
	Bank1Min = 0x00020000

	// Bank1Max is the last address of flash bank 1
	Bank1Max = 0x0003FFFF

	// OffsetMax is the highest valid main memory address offset
	OffsetMax = 0x0003FFFF

	// BankSize is the size of one bank in bytes (128 KiB)
	BankSize = Bank0Max - Bank0Min + 1

	// FlashSize is the size of main memory in bytes (256 KiB)
	FlashSize = OffsetMax + 1

	// SectorSize is the erase unit in bytes (4 KiB)
	SectorSize = 4096

	// SectorShift converts a bank-relative offset into a sector index
	SectorShift = 12

	// SectorsPerBank is the number of sectors (and lock bits) per bank
	SectorsPerBank = BankSize / SectorSize

	// WordSize is the program unit in bytes
	WordSize = 4

	// BurstAlign is the required alignment of a burst program start address
	BurstAlign = 16

	// BurstWords is the number of burst data registers
	BurstWords = 16

	// ErasedWord is the value of a fully erased word
	ErasedWord = 0xFFFFFFFF

	// SRAMCodeStart is the first address of SRAM on the code bus
	SRAMCodeStart = 0x01000000

	// SRAMStart is the first address of SRAM on the data bus
	SRAMStart = 0x20000000
)

// Pulse limits from the TLV defaults used by TI's flash library.
const (
	// MaxProgramPulses caps program pulses per word or burst operation
	MaxProgramPulses = 5

	// MaxErasePulses caps erase pulses per sector erase
	MaxErasePulses = 50
)

// Result codes returned by the C flash API.
const (
	// NOERROR is returned by a successful operation
	NOERROR = 0

	// ERROR is returned by a failed operation
	ERROR = 1
)

// Bank identifies one of the two main memory banks.
type Bank int

const (
	// Bank0 is the lower bank, normally holding the running program
	Bank0 Bank = 0

	// Bank1 is the upper bank, normally used for data
	Bank1 Bank = 1

	// NoBank is returned for addresses outside main memory
	NoBank Bank = -1
)

// BankOf returns the bank containing addr, or NoBank.
func BankOf(addr uint32) Bank {
	switch {
	case addr <= Bank0Max:
		return Bank0
	case addr >= Bank1Min && addr <= Bank1Max:
		return Bank1
	default:
		return NoBank
	}
}

// Min returns the first address of the bank.
func (b Bank) Min() uint32 {
	if b == Bank1 {
		return Bank1Min
	}
	return Bank0Min
}

// Max returns the last address of the bank.
func (b Bank) Max() uint32 {
	if b == Bank1 {
		return Bank1Max
	}
	return Bank0Max
}

// Other returns the opposite bank.
func (b Bank) Other() Bank {
	if b == Bank1 {
		return Bank0
	}
	return Bank1
}

func (b Bank) String() string {
	switch b {
	case Bank0:
		return "bank 0"
	case Bank1:
		return "bank 1"
	default:
		return "no bank"
	}
}

// SectorBit returns the WEPROT bit of the sector holding addr, relative to
// bank b. addr must lie in b.
func SectorBit(b Bank, addr uint32) uint32 {
	return 1 << ((addr - b.Min()) >> SectorShift)
}

// SectorBase rounds addr down to the start of its sector.
func SectorBase(addr uint32) uint32 {
	return addr &^ (SectorSize - 1)
}
