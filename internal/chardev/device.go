/*
 * Copyright (c) 2025 SECOM CO., LTD. All Rights reserved.
 *
 * SPDX-License-Identifier: BSD-2-Clause
 */

// Package chardev exposes a challenge session through the file-like contract
// of the twoStepAuth character device: control requests, a write carrying the
// candidate and a read returning the status line.
package chardev

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/kentakayama/two-step-auth/internal/domain"
	"github.com/kentakayama/two-step-auth/internal/twostep"
)

const (
	Name = "twoStepAuth"

	// control request codes
	ValidateKey uint = 666
	GenerateKey uint = 420
)

// Device adapts a twostep.Session. It holds no state of its own.
type Device struct {
	session *twostep.Session
	logger  *log.Logger
}

func New(session *twostep.Session, logger *log.Logger) *Device {
	if logger == nil {
		logger = log.Default()
	}
	return &Device{
		session: session,
		logger:  logger,
	}
}

// Ioctl dispatches a control request. ValidateKey stores the result code in arg.
func (d *Device) Ioctl(cmd uint, arg *int32) error {
	d.logger.Printf("Entering IOCTL")
	switch cmd {
	case ValidateKey:
		d.logger.Printf("Validating user key")
		result, err := d.session.Validate()
		if err != nil {
			return err
		}
		if arg != nil {
			*arg = int32(result)
		}
		return nil
	case GenerateKey:
		d.logger.Printf("Generating key")
		return d.session.Generate()
	default:
		return fmt.Errorf("%w: %d", domain.ErrUnknownCommand, cmd)
	}
}

// Write parses p as a decimal key and stores it for the next ValidateKey.
// A rejected write leaves no candidate behind.
func (d *Device) Write(p []byte) (int, error) {
	text := strings.TrimSpace(string(p))
	n, err := strconv.Atoi(text)
	if err != nil {
		d.logger.Printf("User entered invalid key format")
		d.session.DiscardCandidate()
		return 0, fmt.Errorf("%w: %q", domain.ErrInvalidFormat, text)
	}
	if err := d.WriteKey(n); err != nil {
		return 0, err
	}
	return len(p), nil
}

// WriteKey stores an already parsed candidate.
func (d *Device) WriteKey(n int) error {
	return d.session.Store(n)
}

// Read copies the status line, newline terminated, into p. Every call
// returns a whole line; a line longer than p is truncated. Reading an
// expired challenge issues a new key.
func (d *Device) Read(p []byte) (int, error) {
	line, err := d.session.ReadStatus()
	if line == "" {
		return 0, err
	}
	if err != nil {
		d.logger.Printf("status read rotated with error: %v", err)
	}
	n := copy(p, line+"\n")
	return n, err
}

// Close releases the device and cancels any armed timer.
func (d *Device) Close() error {
	d.logger.Printf("%s device closed", Name)
	return d.session.Close()
}
