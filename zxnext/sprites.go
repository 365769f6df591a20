// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package zxnext

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/bureau-foundation/simlink/dzrp"
)

const (
	paletteEntries    = 256
	spriteAttributes  = 5
	spritePatternSize = 256
)

// Sprite holds the five attribute bytes of one hardware sprite.
type Sprite [spriteAttributes]byte

// ClipWindow is the sprite clip window and the sprite control
// register.
type ClipWindow struct {
	XL, XR, YT, YB byte
	Control        byte
}

// SpritesPalette reads one of the two sprite palettes: 256 9-bit
// colors.
func (c *Client) SpritesPalette(ctx context.Context, index byte) ([]uint16, error) {
	data, err := c.engine.Call(ctx, dzrp.OpGetSpritesPalette, []byte{index})
	if err != nil {
		return nil, fmt.Errorf("CMD_GET_SPRITES_PALETTE: %w", err)
	}
	if len(data) < paletteEntries*2 {
		return nil, fmt.Errorf("sprite palette of %d bytes, want %d", len(data), paletteEntries*2)
	}
	palette := make([]uint16, paletteEntries)
	for i := range palette {
		palette[i] = binary.LittleEndian.Uint16(data[i*2:])
	}
	return palette, nil
}

// Sprites reads the attributes of count sprites starting at index.
func (c *Client) Sprites(ctx context.Context, index, count byte) ([]Sprite, error) {
	data, err := c.engine.Call(ctx, dzrp.OpGetSprites, []byte{index, count})
	if err != nil {
		return nil, fmt.Errorf("CMD_GET_SPRITES: %w", err)
	}
	if len(data) < int(count)*spriteAttributes {
		return nil, fmt.Errorf("sprite attributes of %d bytes, want %d", len(data), int(count)*spriteAttributes)
	}
	sprites := make([]Sprite, count)
	for i := range sprites {
		copy(sprites[i][:], data[i*spriteAttributes:])
	}
	return sprites, nil
}

// SpritePatterns reads count 256-byte patterns starting at index.
func (c *Client) SpritePatterns(ctx context.Context, index, count byte) ([][]byte, error) {
	data, err := c.engine.Call(ctx, dzrp.OpGetSpritePatterns, []byte{index, count})
	if err != nil {
		return nil, fmt.Errorf("CMD_GET_SPRITE_PATTERNS: %w", err)
	}
	if len(data) < int(count)*spritePatternSize {
		return nil, fmt.Errorf("sprite patterns of %d bytes, want %d", len(data), int(count)*spritePatternSize)
	}
	patterns := make([][]byte, count)
	for i := range patterns {
		patterns[i] = data[i*spritePatternSize : (i+1)*spritePatternSize]
	}
	return patterns, nil
}

// SpritesClipWindow reads the sprite clip window and control register.
func (c *Client) SpritesClipWindow(ctx context.Context) (ClipWindow, error) {
	data, err := c.engine.Call(ctx, dzrp.OpGetSpritesClipWindowAndControl, nil)
	if err != nil {
		return ClipWindow{}, fmt.Errorf("CMD_GET_SPRITES_CLIP_WINDOW_AND_CONTROL: %w", err)
	}
	if len(data) < 5 {
		return ClipWindow{}, fmt.Errorf("clip window of %d bytes, want 5", len(data))
	}
	return ClipWindow{XL: data[0], XR: data[1], YT: data[2], YB: data[3], Control: data[4]}, nil
}
