// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// registerColumns is how many registers share a table row.
const registerColumns = 4

type registerValue struct {
	name  string
	value uint16
}

var (
	registerNameStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("12")).
				Bold(true).
				Width(4)
	registerValueStyle = lipgloss.NewStyle().
				PaddingRight(2)
	registerBoxStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				Padding(0, 1)
	titleStyle = lipgloss.NewStyle().
			Bold(true)
)

// renderRegisters lays registers out in rows of registerColumns, each
// value as four hex digits, inside a rounded border.
func renderRegisters(title string, registers []registerValue) string {
	var rows []string
	for start := 0; start < len(registers); start += registerColumns {
		end := min(start+registerColumns, len(registers))
		var cells []string
		for _, register := range registers[start:end] {
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top,
				registerNameStyle.Render(register.name),
				registerValueStyle.Render(fmt.Sprintf("%04X", register.value)),
			))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	body := strings.Join(rows, "\n")
	if title != "" {
		body = titleStyle.Render(title) + "\n" + body
	}
	return registerBoxStyle.Render(body)
}
