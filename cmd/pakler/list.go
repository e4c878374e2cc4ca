// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"
	"github.com/woozymasta/pak"
	"gopkg.in/yaml.v3"
)

// Listing output formats.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

// listing is the structured form of one container listing.
type listing struct {
	CRC        *pak.CRCCheck   `json:"crc,omitempty" yaml:"crc,omitempty"`
	PAKS       *pak.PAKSHeader `json:"paks_header,omitempty" yaml:"paks_header,omitempty"`
	File       string          `json:"file" yaml:"file"`
	Sections   []pak.Section   `json:"sections" yaml:"sections"`
	Partitions []pak.Partition `json:"partitions,omitempty" yaml:"partitions,omitempty"`
	Header     pak.Header      `json:"header" yaml:"header"`
	Variant    pak.Variant     `json:"variant" yaml:"variant"`
}

func listCmd() *cli.Command {
	var raw bool

	return &cli.Command{
		Name:      "list",
		Aliases:   []string{"l"},
		Usage:     "Print header, sections and partitions, then check the CRC",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "raw",
				Usage:       "dump raw on-disk fields instead of the summary (text format only)",
				Destination: &raw,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path, err := requireFile(cmd)
			if err != nil {
				return err
			}

			if raw {
				return forEachPak(path, func(_ string, c *pak.Container) error {
					return c.WriteFieldDump(os.Stdout)
				})
			}

			return runList(ctx, cmd, path)
		},
	}
}

// runList writes listings of every PAK in path to stdout in the selected format.
func runList(_ context.Context, _ *cli.Command, path string) error {
	switch outputFormat {
	case formatText, "":
		return forEachPak(path, func(name string, c *pak.Container) error {
			return writeTextListing(os.Stdout, name, c)
		})
	case formatJSON, formatYAML:
		var listings []listing
		err := forEachPak(path, func(name string, c *pak.Container) error {
			l, err := buildListing(name, c)
			if err != nil {
				return err
			}

			listings = append(listings, l)
			return nil
		})
		if err != nil {
			return err
		}

		return encodeListings(os.Stdout, outputFormat, listings)
	default:
		return cli.Exit(fmt.Sprintf("unknown format %q (want text, json or yaml)", outputFormat), 2)
	}
}

// writeTextListing writes the summary dump followed by the CRC result line.
func writeTextListing(w io.Writer, name string, c *pak.Container) error {
	if err := c.WriteListing(w); err != nil {
		return err
	}

	if !c.Variant().SupportsCRC() {
		_, err := fmt.Fprintf(w, "CRC is not defined for %s, file: %s\n", c.Variant(), name)
		return err
	}

	check, err := c.CheckCRC()
	if err != nil {
		return err
	}

	if !check.OK {
		logger.Warn("CRC mismatch", "file", name, "error", check.Err())
		_, err = fmt.Fprintf(w, "CRC MISMATCH, file: %s, header.crc=0x%08x, got=0x%08x\n", name, check.Stored, check.Computed)
		return err
	}

	_, err = fmt.Fprintf(w, "File passes CRC check: %s\n", name)
	return err
}

// buildListing collects container metadata and CRC result.
func buildListing(name string, c *pak.Container) (listing, error) {
	l := listing{
		File:       name,
		Variant:    c.Variant(),
		Header:     c.Header(),
		Sections:   c.Sections(),
		Partitions: c.Partitions(),
	}

	if h, ok := c.PAKSHeader(); ok {
		l.PAKS = &h
	}

	if c.Variant().SupportsCRC() {
		check, err := c.CheckCRC()
		if err != nil {
			return listing{}, err
		}

		l.CRC = &check
	}

	return l, nil
}

// encodeListings writes listings as indented JSON or YAML.
func encodeListings(w io.Writer, format string, listings []listing) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(listings, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}

		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(listings); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return enc.Close()
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
