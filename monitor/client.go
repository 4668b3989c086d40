package monitor

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/moffa90/go-flctl/protocol"
)

// Client is a flash.Bus backed by a remote monitor.
//
// Client is safe for concurrent use; requests are serialized.
type Client struct {
	mu     sync.Mutex
	device io.ReadWriter
	config Config
}

// NewClient creates a Client talking to a monitor over device.
func NewClient(device io.ReadWriter, opts ...Option) *Client {
	if device == nil {
		panic("device cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		device: device,
		config: cfg,
	}
}

// Ping checks the link and returns the monitor's protocol version.
func (c *Client) Ping() (*protocol.TargetInfo, error) {
	cmd, err := protocol.BuildPingCmd()
	if err != nil {
		return nil, err
	}

	data, err := c.transact("ping", cmd)
	if err != nil {
		return nil, err
	}

	info, err := protocol.ParsePingResponse(data)
	if err != nil {
		return nil, err
	}
	if info.Major != protocol.VersionMajor {
		return nil, fmt.Errorf("ping: unsupported protocol version %d.%d", info.Major, info.Minor)
	}
	return info, nil
}

// Load implements flash.Bus.
func (c *Client) Load(addr uint32) (uint32, error) {
	cmd, err := protocol.BuildReadWordCmd(addr)
	if err != nil {
		return 0, err
	}

	data, err := c.transact("read word", cmd)
	if err != nil {
		return 0, err
	}
	return protocol.ParseReadWordResponse(data)
}

// Store implements flash.Bus.
func (c *Client) Store(addr, value uint32) error {
	cmd, err := protocol.BuildWriteWordCmd(addr, value)
	if err != nil {
		return err
	}

	_, err = c.transact("write word", cmd)
	return err
}

// ReadBlock loads count consecutive words starting at addr, splitting the
// request into protocol.MaxBlockWords sized commands.
func (c *Client) ReadBlock(addr uint32, count int) ([]uint32, error) {
	words := make([]uint32, 0, count)

	for count > 0 {
		n := count
		if n > protocol.MaxBlockWords {
			n = protocol.MaxBlockWords
		}

		cmd, err := protocol.BuildReadBlockCmd(addr, n)
		if err != nil {
			return nil, err
		}
		data, err := c.transact("read block", cmd)
		if err != nil {
			return nil, err
		}
		block, err := protocol.ParseReadBlockResponse(data, n)
		if err != nil {
			return nil, err
		}

		words = append(words, block...)
		addr += uint32(n) * protocol.WordSize
		count -= n
	}

	return words, nil
}

// transact sends cmd and returns the data of a successful response.
// Responses that fail their checksum are retried.
func (c *Client) transact(op string, cmd []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var lastErr error
	for attempt := 0; attempt <= c.config.Retries; attempt++ {
		if attempt > 0 {
			logDebug(c.config, "retrying command", "op", op, "attempt", attempt, "error", lastErr)
		}

		if _, err := c.device.Write(cmd); err != nil {
			return nil, fmt.Errorf("%s: write command: %w", op, err)
		}

		frame, err := protocol.ReadFrame(c.device)
		if err != nil {
			return nil, fmt.Errorf("%s: read response: %w", op, err)
		}

		statusCode, data, err := protocol.ParseResponse(frame)
		var ce *protocol.ChecksumError
		if errors.As(err, &ce) {
			lastErr = err
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		if statusCode == protocol.ErrChecksum {
			// The monitor saw a corrupted command.
			lastErr = &protocol.ProtocolError{Operation: op, StatusCode: statusCode}
			continue
		}
		if statusCode != protocol.StatusSuccess {
			return nil, &protocol.ProtocolError{Operation: op, StatusCode: statusCode}
		}

		return data, nil
	}

	logError(c.config, "command failed after retries", "op", op, "retries", c.config.Retries)
	return nil, fmt.Errorf("%s: giving up after %d retries: %w", op, c.config.Retries, lastErr)
}
