package flctl

// FLCTL register addresses.
const (
	// PowerStatAddr is the power status register
	PowerStatAddr = 0x40011000

	// Bank0RdCtlAddr is the bank 0 read control register
	Bank0RdCtlAddr = 0x40011010

	// Bank1RdCtlAddr is the bank 1 read control register
	Bank1RdCtlAddr = 0x40011014

	// RdBrstCtlStatAddr is the read burst/compare control and status register
	RdBrstCtlStatAddr = 0x40011020

	// RdBrstStartAddr is the read burst/compare start address register
	RdBrstStartAddr = 0x40011024

	// RdBrstLenAddr is the read burst/compare length register
	RdBrstLenAddr = 0x40011028

	// RdBrstFailAddr is the read burst/compare fail address register
	RdBrstFailAddr = 0x4001103C

	// RdBrstFailCntAddr is the read burst/compare fail count register
	RdBrstFailCntAddr = 0x40011040

	// PrgCtlStatAddr is the program control and status register
	PrgCtlStatAddr = 0x40011050

	// PrgBrstCtlStatAddr is the program burst control and status register
	PrgBrstCtlStatAddr = 0x40011054

	// PrgBrstStartAddr is the program burst start address register
	PrgBrstStartAddr = 0x40011058

	// PrgBrstData0Addr is the first of the 16 program burst data registers
	PrgBrstData0Addr = 0x40011060

	// EraseCtlStatAddr is the erase control and status register
	EraseCtlStatAddr = 0x400110A0

	// EraseSectAddr is the erase sector address register
	EraseSectAddr = 0x400110A4

	// Bank0InfoWEProtAddr is the bank 0 information memory write/erase protection register
	Bank0InfoWEProtAddr = 0x400110B0

	// Bank0MainWEProtAddr is the bank 0 main memory write/erase protection register
	Bank0MainWEProtAddr = 0x400110B4

	// Bank1InfoWEProtAddr is the bank 1 information memory write/erase protection register
	Bank1InfoWEProtAddr = 0x400110C0

	// Bank1MainWEProtAddr is the bank 1 main memory write/erase protection register
	Bank1MainWEProtAddr = 0x400110C4

	// IFGAddr is the interrupt flag register
	IFGAddr = 0x400110F0

	// IEAddr is the interrupt enable register
	IEAddr = 0x400110F4

	// ClrIFGAddr is the clear interrupt flag register (write 1 to clear)
	ClrIFGAddr = 0x400110F8

	// SetIFGAddr is the set interrupt flag register
	SetIFGAddr = 0x400110FC

	// RegisterBase and RegisterEnd bound the FLCTL register block
	RegisterBase = 0x40011000
	RegisterEnd  = 0x40011124
)

// RdCtlAddr returns the read control register of bank b.
func RdCtlAddr(b Bank) uint32 {
	if b == Bank1 {
		return Bank1RdCtlAddr
	}
	return Bank0RdCtlAddr
}

// MainWEProtAddr returns the main memory protection register of bank b.
func MainWEProtAddr(b Bank) uint32 {
	if b == Bank1 {
		return Bank1MainWEProtAddr
	}
	return Bank0MainWEProtAddr
}

// PrgBrstDataAddr returns the address of burst data register i (0..15).
func PrgBrstDataAddr(i int) uint32 {
	return PrgBrstData0Addr + uint32(i)*WordSize
}

// IsRegister reports whether addr lies in the FLCTL register block.
func IsRegister(addr uint32) bool {
	return addr >= RegisterBase && addr < RegisterEnd
}

// ReadMode is the flash read mode of a bank.
type ReadMode uint32

const (
	ReadNormal        ReadMode = 0
	ReadMargin0       ReadMode = 1
	ReadMargin1       ReadMode = 2
	ReadProgramVerify ReadMode = 3
	ReadEraseVerify   ReadMode = 4
	ReadLeakageVerify ReadMode = 5
	ReadMargin0B      ReadMode = 9
	ReadMargin1B      ReadMode = 10
)

func (m ReadMode) String() string {
	switch m {
	case ReadNormal:
		return "normal"
	case ReadMargin0:
		return "margin 0"
	case ReadMargin1:
		return "margin 1"
	case ReadProgramVerify:
		return "program verify"
	case ReadEraseVerify:
		return "erase verify"
	case ReadLeakageVerify:
		return "leakage verify"
	case ReadMargin0B:
		return "margin 0B"
	case ReadMargin1B:
		return "margin 1B"
	default:
		return "reserved"
	}
}

// RdCtl is a bank read control register value.
type RdCtl uint32

const (
	RdCtlModeMask       RdCtl = 0x0000000F
	RdCtlWaitMask       RdCtl = 0x0000F000
	RdCtlWaitShift            = 12
	RdCtlModeStatusMask RdCtl = 0x000F0000
	RdCtlModeStatusShift      = 16
)

// MakeRdCtl builds a read control value with the given wait states and mode.
func MakeRdCtl(wait uint32, mode ReadMode) RdCtl {
	return RdCtl(wait<<RdCtlWaitShift)&RdCtlWaitMask | RdCtl(mode)&RdCtlModeMask
}

// Mode returns the requested read mode.
func (r RdCtl) Mode() ReadMode { return ReadMode(r & RdCtlModeMask) }

// ModeStatus returns the read mode currently in effect.
func (r RdCtl) ModeStatus() ReadMode {
	return ReadMode((r & RdCtlModeStatusMask) >> RdCtlModeStatusShift)
}

// WaitStates returns the configured number of read wait states.
func (r RdCtl) WaitStates() uint32 { return uint32(r&RdCtlWaitMask) >> RdCtlWaitShift }

// WithMode replaces the read mode field.
func (r RdCtl) WithMode(mode ReadMode) RdCtl {
	return r&^RdCtlModeMask | RdCtl(mode)&RdCtlModeMask
}

// WithWaitStates replaces the wait state field.
func (r RdCtl) WithWaitStates(wait uint32) RdCtl {
	return r&^RdCtlWaitMask | RdCtl(wait<<RdCtlWaitShift)&RdCtlWaitMask
}

// PrgCtl is the program control and status register.
type PrgCtl uint32

const (
	PrgCtlEnable     PrgCtl = 0x00000001 // master enable for word programming
	PrgCtlMode       PrgCtl = 0x00000002 // 0 = immediate, 1 = full word
	PrgCtlVerPre     PrgCtl = 0x00000004 // automatic pre-program verify
	PrgCtlVerPst     PrgCtl = 0x00000008 // automatic post-program verify
	PrgCtlStatusMask PrgCtl = 0x00030000
)

// PrgBrstCtl is the program burst control and status register.
type PrgBrstCtl uint32

const (
	PrgBrstStart    PrgBrstCtl = 0x00000001
	PrgBrstTypeMask PrgBrstCtl = 0x00000006
	PrgBrstTypeMain PrgBrstCtl = 0x00000000
	PrgBrstTypeInfo PrgBrstCtl = 0x00000002
	PrgBrstLenMask  PrgBrstCtl = 0x00000038
	PrgBrstLenShift            = 3
	PrgBrstAutoPre  PrgBrstCtl = 0x00000040
	PrgBrstAutoPst  PrgBrstCtl = 0x00000080
	PrgBrstPreErr   PrgBrstCtl = 0x00080000
	PrgBrstPstErr   PrgBrstCtl = 0x00100000
	PrgBrstAddrErr  PrgBrstCtl = 0x00200000
	PrgBrstClrStat  PrgBrstCtl = 0x00800000

	// PrgBrstStatusMask covers the status bits cleared by PrgBrstClrStat
	PrgBrstStatusMask PrgBrstCtl = 0x003F0000
)

// BurstLen encodes count words (0..16) as the number of 128-bit bursts
// in the LEN field: 0 -> 0, 1..4 -> 1, 5..8 -> 2, 9..12 -> 3, 13..16 -> 4.
func BurstLen(count int) PrgBrstCtl {
	return PrgBrstCtl((count+3)/4) << PrgBrstLenShift & PrgBrstLenMask
}

// Len decodes the LEN field into a number of 128-bit bursts.
func (c PrgBrstCtl) Len() int { return int((c & PrgBrstLenMask) >> PrgBrstLenShift) }

// EraseCtl is the erase control and status register.
type EraseCtl uint32

const (
	EraseStart      EraseCtl = 0x00000001
	EraseMode       EraseCtl = 0x00000002 // 0 = sector, 1 = mass erase
	EraseTypeMask   EraseCtl = 0x0000000C
	EraseTypeMain   EraseCtl = 0x00000000
	EraseTypeInfo   EraseCtl = 0x00000004
	EraseStatusMask EraseCtl = 0x00030000
	EraseStatusDone EraseCtl = 0x00030000
	EraseAddrErr    EraseCtl = 0x00040000
	EraseClrStat    EraseCtl = 0x00080000
)

// RdBrstCtl is the read burst/compare control and status register.
type RdBrstCtl uint32

const (
	RdBrstStart       RdBrstCtl = 0x00000001
	RdBrstMemTypeMask RdBrstCtl = 0x00000006
	RdBrstMemTypeMain RdBrstCtl = 0x00000000
	RdBrstStopFail    RdBrstCtl = 0x00000008
	RdBrstDataCmp     RdBrstCtl = 0x00000010 // compare pattern: 1 = all ones
	RdBrstTestEn      RdBrstCtl = 0x00000040
	RdBrstStatusMask  RdBrstCtl = 0x000F0000
	RdBrstCmpErr      RdBrstCtl = 0x00040000
	RdBrstAddrErr     RdBrstCtl = 0x00080000
	RdBrstClrStat     RdBrstCtl = 0x00800000
)

// IFG is the interrupt flag register; the same layout is used by CLRIFG.
type IFG uint32

const (
	IFGRdBrst IFG = 0x00000001 // read burst/compare complete
	IFGAvPre  IFG = 0x00000002 // pre-program verify error
	IFGAvPst  IFG = 0x00000004 // post-program verify error
	IFGPrg    IFG = 0x00000008 // word program complete
	IFGPrgB   IFG = 0x00000010 // burst program complete
	IFGErase  IFG = 0x00000020 // erase complete
	IFGPrgErr IFG = 0x00000200 // program error

	// IFGWordFlags are the flags cleared around a word program
	IFGWordFlags = IFGPrgErr | IFGPrg | IFGAvPst | IFGAvPre

	// IFGBurstFlags are the flags cleared around a burst program
	IFGBurstFlags = IFGPrgErr | IFGPrgB | IFGAvPst | IFGAvPre
)

// Has reports whether all bits of f are set.
func (i IFG) Has(f IFG) bool { return i&f == f }

func (i IFG) String() string {
	names := []struct {
		f    IFG
		name string
	}{
		{IFGRdBrst, "RDBRST"},
		{IFGAvPre, "AVPRE"},
		{IFGAvPst, "AVPST"},
		{IFGPrg, "PRG"},
		{IFGPrgB, "PRGB"},
		{IFGErase, "ERASE"},
		{IFGPrgErr, "PRG_ERR"},
	}
	s := ""
	for _, n := range names {
		if i&n.f != 0 {
			if s != "" {
				s += "|"
			}
			s += n.name
		}
	}
	if s == "" {
		return "0"
	}
	return s
}
