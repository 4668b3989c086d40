package monitor

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/moffa90/go-flctl/flash"
	"github.com/moffa90/go-flctl/protocol"
)

// Server answers monitor commands against a local bus.
type Server struct {
	bus    flash.Bus
	config Config
}

// NewServer creates a Server backed by bus.
func NewServer(bus flash.Bus, opts ...Option) *Server {
	if bus == nil {
		panic("bus cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Server{
		bus:    bus,
		config: cfg,
	}
}

// Serve answers frames read from device until it reaches EOF, a read or
// write fails, or ctx is done. ctx is checked between frames; close device
// to interrupt a blocked read. EOF ends Serve with a nil error.
func (s *Server) Serve(ctx context.Context, device io.ReadWriter) error {
	logInfo(s.config, "monitor serving")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		frame, err := protocol.ReadFrame(device)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				logInfo(s.config, "monitor link closed")
				return nil
			}
			return fmt.Errorf("read command: %w", err)
		}

		if _, err := device.Write(s.Handle(frame)); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
}

// Handle answers a single command frame with a response frame.
func (s *Server) Handle(frame []byte) []byte {
	cmd, data, err := protocol.ParseFrame(frame)
	if err != nil {
		logError(s.config, "bad command frame", "error", err)
		var ce *protocol.ChecksumError
		if errors.As(err, &ce) {
			return s.respond(protocol.ErrChecksum, nil)
		}
		return s.respond(protocol.ErrData, nil)
	}

	status, reply := s.dispatch(cmd, data)
	return s.respond(status, reply)
}

func (s *Server) dispatch(cmd byte, data []byte) (byte, []byte) {
	switch cmd {
	case protocol.CmdPing:
		return protocol.StatusSuccess, protocol.BuildPingResponse(protocol.TargetInfo{
			Major:         protocol.VersionMajor,
			Minor:         protocol.VersionMinor,
			MaxBlockWords: protocol.MaxBlockWords,
		})

	case protocol.CmdReadWord:
		addr, err := protocol.ParseReadWordCmd(data)
		if err != nil {
			return protocol.ErrLength, nil
		}
		if addr%protocol.WordSize != 0 {
			return protocol.ErrAddress, nil
		}
		v, err := s.bus.Load(addr)
		if err != nil {
			logError(s.config, "load failed", "addr", fmt.Sprintf("0x%08X", addr), "error", err)
			return protocol.ErrBus, nil
		}
		return protocol.StatusSuccess, protocol.BuildWordsResponse([]uint32{v})

	case protocol.CmdWriteWord:
		addr, value, err := protocol.ParseWriteWordCmd(data)
		if err != nil {
			return protocol.ErrLength, nil
		}
		if addr%protocol.WordSize != 0 {
			return protocol.ErrAddress, nil
		}
		if err := s.bus.Store(addr, value); err != nil {
			logError(s.config, "store failed", "addr", fmt.Sprintf("0x%08X", addr), "error", err)
			return protocol.ErrBus, nil
		}
		logDebug(s.config, "store", "addr", fmt.Sprintf("0x%08X", addr), "value", fmt.Sprintf("0x%08X", value))
		return protocol.StatusSuccess, nil

	case protocol.CmdReadBlock:
		addr, count, err := protocol.ParseReadBlockCmd(data)
		if err != nil {
			return protocol.ErrLength, nil
		}
		if addr%protocol.WordSize != 0 {
			return protocol.ErrAddress, nil
		}
		words := make([]uint32, count)
		for i := range words {
			v, err := s.bus.Load(addr + uint32(i)*protocol.WordSize)
			if err != nil {
				return protocol.ErrBus, nil
			}
			words[i] = v
		}
		return protocol.StatusSuccess, protocol.BuildWordsResponse(words)

	default:
		return protocol.ErrCommand, nil
	}
}

func (s *Server) respond(status byte, data []byte) []byte {
	frame, err := protocol.BuildResponse(status, data)
	if err != nil {
		// Only oversized data fails, and dispatch never produces it.
		frame, _ = protocol.BuildResponse(protocol.ErrUnknown, nil)
	}
	return frame
}
