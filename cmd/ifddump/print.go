// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/bep/ifd"
)

const indentWidth = 2

type printer struct {
	w         io.Writer
	maxBytes  int
	maxValues int
}

func (p *printer) printDirectory(dir *ifd.Directory, depth int) error {
	indent := strings.Repeat(" ", depth*indentWidth)

	for _, e := range dir.All() {
		head := fmt.Sprintf("%s%s (0x%04x) %s[%d]", indent, dir.TagName(e.Tag), uint16(e.Tag), e.Type, e.Count)

		switch v := e.Value.(type) {
		case *ifd.Directory:
			if _, err := fmt.Fprintln(p.w, head); err != nil {
				return err
			}
			if err := p.printDirectory(v, depth+1); err != nil {
				return err
			}
		case ifd.Bytes:
			if _, err := fmt.Fprintln(p.w, head); err != nil {
				return err
			}
			if err := p.hexDump(indent, v); err != nil {
				return err
			}
		default:
			if _, err := fmt.Fprintf(p.w, "%s %s\n", head, ifd.FormatValue(v, p.maxValues)); err != nil {
				return err
			}
		}
	}

	return nil
}

func (p *printer) hexDump(indent string, b []byte) error {
	n := len(b)
	if p.maxBytes > 0 && n > p.maxBytes {
		n = p.maxBytes
	}

	dump := strings.TrimSuffix(hex.Dump(b[:n]), "\n")
	for _, line := range strings.Split(dump, "\n") {
		if line == "" {
			continue
		}
		if _, err := fmt.Fprintf(p.w, "%s  %s\n", indent, line); err != nil {
			return err
		}
	}

	if n < len(b) {
		if _, err := fmt.Fprintf(p.w, "%s  ... (%d more bytes)\n", indent, len(b)-n); err != nil {
			return err
		}
	}

	return nil
}
