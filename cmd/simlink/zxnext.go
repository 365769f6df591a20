// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/bureau-foundation/simlink/dzrp"
	"github.com/bureau-foundation/simlink/transport"
	"github.com/bureau-foundation/simlink/zxnext"
)

// withZXNext connects to the configured ZX Next, performs the CMD_INIT
// handshake, and calls fn. The connection is closed when fn returns.
func withZXNext(ctx context.Context, flags *connectionFlags, fn func(context.Context, *zxnext.Client, dzrp.InitResponse) error) error {
	s, err := flags.open()
	if err != nil {
		return err
	}
	link, err := s.dialZXNext(ctx)
	if err != nil {
		return firstError(err, s.close)
	}
	client := zxnext.New(link, zxnext.Options{
		Logger:  s.logger,
		Tap:     s.tap(),
		Timeout: s.config.ZXNext.Timeout(),
	})
	stop := start(ctx, client)

	info, err := client.Init(ctx)
	if err == nil {
		err = fn(ctx, client, info)
	}
	err = firstError(err, stop)
	return firstError(err, s.close)
}

// writeMachineInfo prints the handshake result and the memory slot
// assignment.
func writeMachineInfo(ctx context.Context, client *zxnext.Client, info dzrp.InitResponse, w io.Writer) error {
	slots, err := client.Slots(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Program:  %s\n", info.ProgramName)
	fmt.Fprintf(w, "Protocol: %s (local %s)\n", info.Version, dzrp.ProtocolVersion)
	fmt.Fprintf(w, "Slots:   ")
	for slot, bank := range slots {
		fmt.Fprintf(w, " %d:%d", slot, bank)
	}
	fmt.Fprintln(w)
	return nil
}

// writeSerialPorts prints the serial devices a ZX Next can be reached
// on, one per line.
func writeSerialPorts(w io.Writer, list func() ([]string, error)) error {
	ports, err := list()
	if err != nil {
		return fmt.Errorf("listing serial ports: %w", err)
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "no serial ports found")
		return nil
	}
	for _, port := range ports {
		fmt.Fprintln(w, port)
	}
	return nil
}

// zxnextRegisters lists the registers CMD_GET_REGISTERS reports
// directly, in table order.
var zxnextRegisters = []zxnext.Register{
	zxnext.RegisterPC, zxnext.RegisterSP,
	zxnext.RegisterAF, zxnext.RegisterBC, zxnext.RegisterDE, zxnext.RegisterHL,
	zxnext.RegisterIX, zxnext.RegisterIY,
	zxnext.RegisterAF2, zxnext.RegisterBC2, zxnext.RegisterDE2, zxnext.RegisterHL2,
	zxnext.RegisterIR, zxnext.RegisterIM,
}

func registerTable(registers zxnext.Registers) ([]registerValue, error) {
	var values []registerValue
	for _, register := range zxnextRegisters {
		value, err := registers.Get(register)
		if err != nil {
			return nil, err
		}
		values = append(values, registerValue{register.String(), value})
	}
	return values, nil
}

func regsZXNext(ctx context.Context, flags *connectionFlags, w io.Writer) error {
	return withZXNext(ctx, flags, func(ctx context.Context, client *zxnext.Client, info dzrp.InitResponse) error {
		registers, err := client.Registers(ctx)
		if err != nil {
			return err
		}
		values, err := registerTable(registers)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, renderRegisters(info.ProgramName, values))
		return nil
	})
}
