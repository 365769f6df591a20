// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package simh

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/simlink/transport"
)

const banner = "\r\nConnected to the SIMH Remote Console, Port 1024\r\nsim> "

// fakeSimulator plays a SIMH remote console on one end of a pipe. It
// echoes each command line, then writes the handler's output and a
// prompt. A handler that reports running withholds the prompt until an
// interrupt arrives.
type fakeSimulator struct {
	link    transport.Link
	handler func(command string) (output string, running bool)

	mu         sync.Mutex
	commands   []string
	interrupts int
	running    bool
	memory     map[uint16]byte
}

func newFakeSimulator(link transport.Link) *fakeSimulator {
	s := &fakeSimulator{link: link, memory: make(map[uint16]byte)}
	s.handler = s.defaultHandler
	return s
}

func (s *fakeSimulator) defaultHandler(command string) (string, bool) {
	switch {
	case command == "examine state":
		return "PC:\t00100\r\nSP:\tFFF0\r\nAF:\t7008\r\nBC:\t0200\r\nDE:\t0000\r\nHL:\t1234\r\n" +
			"IX:\t0000\r\nIY:\t0000\r\nAF1:\t0000\r\nBC1:\t0000\r\nDE1:\t0000\r\nHL1:\t5678\r\nIR:\t0000", false
	case strings.HasPrefix(command, "examine -m "):
		return "0" + strings.TrimPrefix(command, "examine -m ") + ":\tLD A,01H", false
	case command == "step":
		return "\r\nStep expired, PC: 00102 (LD B,02H)", false
	case command == "go":
		return "Simulator Running", true
	case strings.HasPrefix(command, "examine "):
		var start, end uint16
		if _, err := fmt.Sscanf(command, "examine %X-%X", &start, &end); err != nil {
			return "Invalid argument", false
		}
		var lines []string
		s.mu.Lock()
		for address := int(start); address <= int(end); address++ {
			lines = append(lines, fmt.Sprintf("%05X:\t%02X", address, s.memory[uint16(address)]))
		}
		s.mu.Unlock()
		return strings.Join(lines, "\r\n"), false
	case strings.HasPrefix(command, "deposit "):
		var address uint16
		var value byte
		if _, err := fmt.Sscanf(command, "deposit %X %X", &address, &value); err == nil {
			s.mu.Lock()
			s.memory[address] = value
			s.mu.Unlock()
		}
		return "", false
	case strings.HasPrefix(command, "frob"):
		return "Invalid remote console command", false
	default:
		return "", false
	}
}

func (s *fakeSimulator) write(text string) {
	s.link.Write([]byte(text))
}

// serve runs until the link closes.
func (s *fakeSimulator) serve(sendBanner bool) {
	if sendBanner {
		s.write(banner)
	}
	var line []byte
	buffer := make([]byte, 256)
	for {
		n, err := s.link.Read(buffer)
		for _, b := range buffer[:n] {
			switch b {
			case 0x05:
				s.interrupt()
			case '\n':
				s.command(strings.TrimSpace(string(line)))
				line = line[:0]
			default:
				line = append(line, b)
			}
		}
		if err != nil {
			return
		}
	}
}

func (s *fakeSimulator) interrupt() {
	s.mu.Lock()
	s.interrupts++
	wasRunning := s.running
	s.running = false
	s.mu.Unlock()
	if wasRunning {
		s.write("\r\nSimulation stopped, PC: 00345 (NOP)\r\nsim> ")
	}
}

func (s *fakeSimulator) command(command string) {
	if command == "" || command == "#" {
		return
	}
	s.mu.Lock()
	s.commands = append(s.commands, command)
	s.mu.Unlock()

	output, running := s.handler(command)
	if running {
		s.mu.Lock()
		s.running = true
		s.mu.Unlock()
		s.write(command + "\r\n" + output + "\r\n")
		return
	}
	if output != "" {
		output += "\r\n"
	}
	s.write(command + "\r\n" + output + "sim> ")
}

func (s *fakeSimulator) received() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *fakeSimulator) interruptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.interrupts
}

// startClient connects a Client to a fakeSimulator and waits for the
// banner.
func startClient(t *testing.T, configure func(*fakeSimulator)) (*Client, *fakeSimulator) {
	t.Helper()
	clientEnd, simulatorEnd := transport.Pipe()
	simulator := newFakeSimulator(simulatorEnd)
	if configure != nil {
		configure(simulator)
	}
	go simulator.serve(true)

	client := New(clientEnd, Options{})
	result := make(chan error, 1)
	go func() { result <- client.Run(context.Background()) }()
	t.Cleanup(func() {
		client.Close()
		simulatorEnd.Close()
		select {
		case <-result:
		case <-time.After(5 * time.Second):
			t.Error("Run did not return after Close")
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.WaitConnected(ctx); err != nil {
		t.Fatalf("WaitConnected: %v", err)
	}
	return client, simulator
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}
