package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/sigreer/esesgod/internal/eses"
	"github.com/sigreer/esesgod/internal/ses"
)

var (
	_ pflag.Value = (*elementTypeValue)(nil)
	_ pflag.Value = (*slotRangeValue)(nil)
	_ pflag.Value = (*opcodeListValue)(nil)
)

// elementTypeValue is an element type flag accepting names and aliases
// such as "drive", "phy" or "ps".
type elementTypeValue struct {
	t   ses.ElementType
	set bool
}

func (v *elementTypeValue) String() string {
	if !v.set {
		return ""
	}
	return v.t.String()
}

func (v *elementTypeValue) Set(s string) error {
	t, err := ses.ParseElementType(strings.ToLower(s))
	if err != nil {
		return err
	}
	v.t, v.set = t, true
	return nil
}

func (v *elementTypeValue) Type() string { return "type" }

// slotRangeValue is "N" or "N-M".
type slotRangeValue struct {
	first, last uint8
	set         bool
}

func (v *slotRangeValue) String() string {
	if !v.set {
		return ""
	}
	if v.first == v.last {
		return strconv.Itoa(int(v.first))
	}
	return fmt.Sprintf("%d-%d", v.first, v.last)
}

func (v *slotRangeValue) Set(s string) error {
	lo, hi, found := strings.Cut(s, "-")
	first, err := strconv.ParseUint(strings.TrimSpace(lo), 10, 8)
	if err != nil {
		return fmt.Errorf("invalid slot %q", lo)
	}
	last := first
	if found {
		last, err = strconv.ParseUint(strings.TrimSpace(hi), 10, 8)
		if err != nil {
			return fmt.Errorf("invalid slot %q", hi)
		}
	}
	if last < first {
		return fmt.Errorf("slot range %s is reversed", s)
	}
	v.first, v.last, v.set = uint8(first), uint8(last), true
	return nil
}

func (v *slotRangeValue) Type() string { return "range" }

// opcodeListValue collects opcodes from repeated or comma separated flags.
type opcodeListValue []eses.Opcode

func (v *opcodeListValue) String() string {
	names := make([]string, len(*v))
	for i, op := range *v {
		names[i] = op.String()
	}
	return strings.Join(names, ",")
}

func (v *opcodeListValue) Set(s string) error {
	for _, name := range strings.Split(s, ",") {
		op, err := eses.ParseOpcode(strings.TrimSpace(name))
		if err != nil {
			return err
		}
		*v = append(*v, op)
	}
	return nil
}

func (v *opcodeListValue) Type() string { return "opcodes" }
