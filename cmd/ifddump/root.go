// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package main

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/ifd"
	"github.com/bep/ifd/foreign"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "IFDDUMP"

var imageFormats = map[string]ifd.ImageFormat{
	"auto": ifd.ImageFormatAuto,
	"jpeg": ifd.JPEG,
	"jpg":  ifd.JPEG,
	"tiff": ifd.TIFF,
	"tif":  ifd.TIFF,
	"png":  ifd.PNG,
	"webp": ifd.WebP,
	"heif": ifd.HEIF,
	"heic": ifd.HEIF,
	"avif": ifd.HEIF,
}

func newRootCmd(v *viper.Viper) *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "ifddump FILE",
		Short: "Print the TIFF/Exif directories of an image file",
		Long: `Print every entry of the TIFF/Exif directories in FILE, nested directories indented.

With --offset the IFD chain at that offset is decoded without a TIFF header,
a negative offset selects little endian byte order.`,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, configFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, v, args[0])
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configFile, "config", "c", "", "config file (default $HOME/.ifddump/config.yaml)")
	flags.Int64P("offset", "o", 0, "decode the IFD chain at this offset without a TIFF header, negative for little endian")
	flags.Int("max-bytes", 128, "maximum number of bytes to hex dump per value, 0 for no limit")
	flags.Int("max-values", 20, "maximum number of array elements to print per value, 0 for no limit")
	flags.String("format", "auto", "image format: auto, jpeg, tiff, png, webp or heif")
	flags.Int("max-depth", 0, "maximum nesting depth of IFDs (default 16)")
	flags.Bool("foreign", false, "decode XMP and IPTC payloads")
	flags.BoolP("quiet", "q", false, "do not print warnings")

	for _, name := range []string{"offset", "max-bytes", "max-values", "format", "max-depth", "foreign", "quiet"} {
		if err := v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(err)
		}
	}

	return cmd
}

// initConfig reads in the config file and ENV variables if set.
func initConfig(v *viper.Viper, configFile string) error {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		home, err := homedir.Dir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".ifddump"))
		}
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	return nil
}

func run(cmd *cobra.Command, v *viper.Viper, filename string) error {
	format, found := imageFormats[strings.ToLower(v.GetString("format"))]
	if !found {
		return fmt.Errorf("unknown image format %q", v.GetString("format"))
	}

	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	logger := log.New(cmd.ErrOrStderr(), "ifddump: ", 0)
	warnf := logger.Printf
	if v.GetBool("quiet") {
		warnf = func(string, ...any) {}
	}

	opts := ifd.Options{
		R:           f,
		ImageFormat: format,
		Warnf:       warnf,
		MaxDepth:    v.GetInt("max-depth"),
	}

	var dir *ifd.Directory
	if v.IsSet("offset") {
		offset := v.GetInt64("offset")
		var order binary.ByteOrder = binary.BigEndian
		if offset < 0 {
			order = binary.LittleEndian
			offset = -offset
		}
		dir, err = ifd.DecodeAt(opts, order, offset)
	} else {
		dir, err = ifd.Decode(opts)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	p := &printer{
		w:         cmd.OutOrStdout(),
		maxBytes:  v.GetInt("max-bytes"),
		maxValues: v.GetInt("max-values"),
	}
	if err := p.printDirectory(dir, 0); err != nil {
		return err
	}

	if v.GetBool("foreign") {
		return dispatchForeign(cmd.OutOrStdout(), dir)
	}

	return nil
}

func dispatchForeign(w io.Writer, dir *ifd.Directory) error {
	printProperty := func(source string) func(foreign.Property) error {
		return func(p foreign.Property) error {
			_, err := fmt.Fprintf(w, "%s %s\n", source, p)
			return err
		}
	}

	r := foreign.NewRegistry()
	r.Register(ifd.TagXMP, foreign.XMPDecoder(printProperty("XMP")))
	r.Register(ifd.TagIPTC, foreign.IPTCDecoder(printProperty("IPTC")))
	r.Register(ifd.TagPhotoshop, foreign.IPTCDecoder(printProperty("IPTC")))

	return r.Dispatch(dir)
}
