// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

// Command ifddump prints the TIFF/Exif directories of an image file.
package main

import (
	"os"

	"github.com/spf13/viper"
)

func main() {
	if err := newRootCmd(viper.New()).Execute(); err != nil {
		os.Exit(1)
	}
}
