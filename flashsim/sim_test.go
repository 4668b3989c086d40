package flashsim

import (
	"errors"
	"testing"

	"github.com/moffa90/go-flctl/flctl"
)

func unlockAll(s *Sim) {
	s.SetRegister(flctl.Bank0MainWEProtAddr, 0)
	s.SetRegister(flctl.Bank1MainWEProtAddr, 0)
}

func TestNew(t *testing.T) {
	s := New()

	if got := s.Word(0x20000); got != flctl.ErasedWord {
		t.Errorf("Word() = 0x%08X, want erased", got)
	}
	if got := s.Register(flctl.Bank1MainWEProtAddr); got != 0xFFFFFFFF {
		t.Errorf("WEPROT = 0x%08X, want all locked", got)
	}
}

func TestLoadStoreErrors(t *testing.T) {
	s := New()

	tests := []struct {
		name string
		addr uint32
		want error
	}{
		{"misaligned", 0x20002, ErrMisaligned},
		{"unmapped", 0x20000000, ErrUnmapped},
		{"past flash", flctl.FlashSize, ErrUnmapped},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := s.Load(tt.addr); !errors.Is(err, tt.want) {
				t.Errorf("Load() error = %v, want %v", err, tt.want)
			}
			if err := s.Store(tt.addr, 0); !errors.Is(err, tt.want) {
				t.Errorf("Store() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestWordProgram(t *testing.T) {
	tests := []struct {
		name     string
		existing uint32
		data     uint32
		ctl      flctl.PrgCtl
		locked   bool
		wantWord uint32
		wantIFG  flctl.IFG
	}{
		{
			name:     "fresh word",
			existing: flctl.ErasedWord,
			data:     0xDEADBEEF,
			ctl:      flctl.PrgCtlEnable | flctl.PrgCtlVerPre | flctl.PrgCtlVerPst,
			wantWord: 0xDEADBEEF,
			wantIFG:  flctl.IFGPrg,
		},
		{
			name:     "pre-verify catches programmed bits",
			existing: 0xDEADBEEF,
			data:     0xDEAD0000,
			ctl:      flctl.PrgCtlEnable | flctl.PrgCtlVerPre | flctl.PrgCtlVerPst,
			wantWord: 0xDEADBEEF,
			wantIFG:  flctl.IFGAvPre | flctl.IFGPrg,
		},
		{
			name:     "no pre-verify programs over zeros",
			existing: 0xDEADBEEF,
			data:     0xDEAD0000,
			ctl:      flctl.PrgCtlEnable | flctl.PrgCtlVerPst,
			wantWord: 0xDEAD0000,
			wantIFG:  flctl.IFGPrg,
		},
		{
			name:     "locked sector",
			existing: flctl.ErasedWord,
			data:     0,
			ctl:      flctl.PrgCtlEnable,
			locked:   true,
			wantWord: flctl.ErasedWord,
			wantIFG:  flctl.IFGPrgErr | flctl.IFGPrg,
		},
		{
			name:     "programming disabled",
			existing: flctl.ErasedWord,
			data:     0,
			wantWord: flctl.ErasedWord,
			wantIFG:  flctl.IFGPrgErr,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			if !tt.locked {
				unlockAll(s)
			}
			s.Fill(0x20000, []uint32{tt.existing})
			s.SetRegister(flctl.PrgCtlStatAddr, uint32(tt.ctl))

			if err := s.Store(0x20000, tt.data); err != nil {
				t.Fatalf("Store() error = %v", err)
			}

			if got := s.Word(0x20000); got != tt.wantWord {
				t.Errorf("word = 0x%08X, want 0x%08X", got, tt.wantWord)
			}
			if got := flctl.IFG(s.Register(flctl.IFGAddr)); got != tt.wantIFG {
				t.Errorf("IFG = %s, want %s", got, tt.wantIFG)
			}
		})
	}
}

func TestWeakBits(t *testing.T) {
	s := New()
	unlockAll(s)
	s.SetRegister(flctl.PrgCtlStatAddr, uint32(flctl.PrgCtlEnable|flctl.PrgCtlVerPst))
	s.WeakBits(0x20000, 0xF, 1)

	s.Store(0x20000, 0)
	if got := s.Word(0x20000); got != 0xF {
		t.Fatalf("after first pulse word = 0x%08X, want 0x0000000F", got)
	}
	if !flctl.IFG(s.Register(flctl.IFGAddr)).Has(flctl.IFGAvPst) {
		t.Error("expected AVPST after weak pulse")
	}

	s.SetRegister(flctl.ClrIFGAddr, uint32(flctl.IFGWordFlags))
	s.Store(0x20000, 0xFFFFFFF0)
	if got := s.Word(0x20000); got != 0 {
		t.Errorf("after second pulse word = 0x%08X, want 0", got)
	}
	if got := s.Stats().ProgramPulses; got != 2 {
		t.Errorf("ProgramPulses = %d, want 2", got)
	}
}

func TestBurst(t *testing.T) {
	s := New()
	unlockAll(s)
	for i := 0; i < flctl.BurstWords; i++ {
		v := uint32(flctl.ErasedWord)
		if i < 5 {
			v = uint32(i)
		}
		s.SetRegister(flctl.PrgBrstDataAddr(i), v)
	}
	s.SetRegister(flctl.PrgBrstStartAddr, 0x20040)
	s.SetRegister(flctl.PrgBrstCtlStatAddr,
		uint32(flctl.PrgBrstAutoPre|flctl.PrgBrstAutoPst|flctl.BurstLen(5)|flctl.PrgBrstStart))

	if !flctl.IFG(s.Register(flctl.IFGAddr)).Has(flctl.IFGPrgB) {
		t.Fatal("PRGB not raised")
	}
	got := s.Words(0x20040, 9)
	for i, w := range got {
		want := uint32(flctl.ErasedWord)
		if i < 5 {
			want = uint32(i)
		}
		if w != want {
			t.Errorf("word %d = 0x%08X, want 0x%08X", i, w, want)
		}
	}
	if ctl := flctl.PrgBrstCtl(s.Register(flctl.PrgBrstCtlStatAddr)); ctl&flctl.PrgBrstStart != 0 {
		t.Error("START bit did not self clear")
	}
}

func TestBurstReserved(t *testing.T) {
	s := New()
	unlockAll(s)
	s.Reserve(0x20048, 8)
	for i := 0; i < flctl.BurstWords; i++ {
		s.SetRegister(flctl.PrgBrstDataAddr(i), 0)
	}
	s.SetRegister(flctl.PrgBrstStartAddr, 0x20040)
	s.SetRegister(flctl.PrgBrstCtlStatAddr, uint32(flctl.BurstLen(4)|flctl.PrgBrstStart))

	ctl := flctl.PrgBrstCtl(s.Register(flctl.PrgBrstCtlStatAddr))
	if ctl&flctl.PrgBrstAddrErr == 0 {
		t.Fatal("expected ADDR_ERR")
	}
	if got := s.Words(0x20040, 3); got[0] != 0 || got[1] != 0 || got[2] != flctl.ErasedWord {
		t.Errorf("words = %08X, want prefix programmed only", got)
	}

	s.SetRegister(flctl.PrgBrstCtlStatAddr, uint32(ctl|flctl.PrgBrstClrStat))
	if flctl.PrgBrstCtl(s.Register(flctl.PrgBrstCtlStatAddr))&flctl.PrgBrstStatusMask != 0 {
		t.Error("CLR_STAT did not clear status")
	}
}

func TestEraseAndCompare(t *testing.T) {
	s := New()
	unlockAll(s)
	s.Fill(0x21000, []uint32{0, 1, 2})
	s.StubbornSector(0x21000, 1)

	erase := func() {
		s.SetRegister(flctl.EraseSectAddr, 0x21000)
		s.SetRegister(flctl.EraseCtlStatAddr, uint32(flctl.EraseStart))
	}
	compare := func() uint32 {
		s.SetRegister(flctl.RdBrstFailCntAddr, 0)
		s.SetRegister(flctl.RdBrstStartAddr, 0x21000)
		s.SetRegister(flctl.RdBrstLenAddr, flctl.SectorSize)
		s.SetRegister(flctl.RdBrstCtlStatAddr, uint32(flctl.RdBrstDataCmp|flctl.RdBrstStopFail|flctl.RdBrstStart))
		return s.Register(flctl.RdBrstFailCntAddr)
	}

	erase()
	if got := compare(); got != 1 {
		t.Errorf("FAILCNT after stubborn erase = %d, want 1", got)
	}
	if got := s.Register(flctl.RdBrstFailAddr); got != 0x21000 {
		t.Errorf("FAILADDR = 0x%08X, want 0x00021000", got)
	}

	erase()
	if got := compare(); got != 0 {
		t.Errorf("FAILCNT after second erase = %d, want 0", got)
	}
	if got := s.Stats().ErasePulses; got != 2 {
		t.Errorf("ErasePulses = %d, want 2", got)
	}
}

func TestEraseLocked(t *testing.T) {
	s := New()
	s.Fill(0x21000, []uint32{0})

	s.SetRegister(flctl.EraseSectAddr, 0x21000)
	s.SetRegister(flctl.EraseCtlStatAddr, uint32(flctl.EraseStart))

	if got := s.Word(0x21000); got != 0 {
		t.Errorf("locked sector erased: word = 0x%08X", got)
	}
	if !flctl.IFG(s.Register(flctl.IFGAddr)).Has(flctl.IFGErase) {
		t.Error("ERASE not raised")
	}
}

func TestReadModeStatus(t *testing.T) {
	s := New()
	s.SetRegister(flctl.Bank1RdCtlAddr, uint32(flctl.MakeRdCtl(5, flctl.ReadProgramVerify)))

	rd := flctl.RdCtl(s.Register(flctl.Bank1RdCtlAddr))
	if rd.ModeStatus() != flctl.ReadProgramVerify {
		t.Errorf("ModeStatus() = %s, want program verify", rd.ModeStatus())
	}
	if rd.WaitStates() != 5 {
		t.Errorf("WaitStates() = %d, want 5", rd.WaitStates())
	}
}

func TestStallAndFailStore(t *testing.T) {
	s := New()
	unlockAll(s)
	s.Stall(flctl.IFGPrg)
	s.SetRegister(flctl.PrgCtlStatAddr, uint32(flctl.PrgCtlEnable))
	s.Store(0x20000, 0)
	if flctl.IFG(s.Register(flctl.IFGAddr)).Has(flctl.IFGPrg) {
		t.Error("stalled PRG was raised")
	}

	boom := errors.New("boom")
	s.FailStore(0x20004, boom)
	if err := s.Store(0x20004, 0); !errors.Is(err, boom) {
		t.Errorf("Store() error = %v, want boom", err)
	}
	if err := s.Store(0x20004, 0); err != nil {
		t.Errorf("second Store() error = %v, want nil", err)
	}
}

func TestReset(t *testing.T) {
	s := New()
	unlockAll(s)
	s.Fill(0, []uint32{0})
	s.Stall(flctl.IFGPrg)
	s.Reset()

	if s.Word(0) != flctl.ErasedWord {
		t.Error("Reset() did not erase flash")
	}
	if s.Register(flctl.Bank0MainWEProtAddr) != 0xFFFFFFFF {
		t.Error("Reset() did not relock")
	}
	if len(s.Stores()) != 0 {
		t.Error("Reset() did not clear the log")
	}
}
