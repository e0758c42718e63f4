// Package marker raises a GPIO line through the Linux character device
// so tick timing can be checked on a logic analyser.
package marker

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// Line is one output line requested from a gpiochip
type Line struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// Open requests offset on chip as an output, initially low
func Open(chip string, offset int) (*Line, error) {
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", chip, err)
	}
	l, err := c.RequestLine(offset, gpiocdev.AsOutput(0))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to request %s line %d: %w", chip, offset, err)
	}
	return &Line{chip: c, line: l}, nil
}

// Set drives the line
func (m *Line) Set(value int) error {
	return m.line.SetValue(value)
}

// Close drives the line low, returns it to input and releases the chip
func (m *Line) Close() error {
	_ = m.line.SetValue(0)
	_ = m.line.Reconfigure(gpiocdev.AsInput)
	err := m.line.Close()
	if cerr := m.chip.Close(); err == nil {
		err = cerr
	}
	return err
}
