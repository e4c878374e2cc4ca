// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pak

/*
Package pak reads, extracts, checks and rewrites PAK firmware containers used
by Swann and Reolink cameras and NVRs. Three layouts are supported:

  - PAK32: 32-bit header and section offsets, followed by a partition table;
  - PAK64: the same structure with 64-bit header and section offsets;
  - PAKS: an explicit section count with section records inline before payloads.

PAK32 and PAK64 headers carry no section count. It is inferred by scanning
section-sized records until the first section name repeats, which marks the
start of the partition table. Layout width is inferred from zero high words
of the header and is a heuristic.

All payload access goes through io.ReaderAt and is streamed in ChunkSize
chunks, so extraction and rewrite never hold a whole section in memory.

# Reading

Open a PAK and list sections:

	c, err := pak.Open("CAM_FW.pak")
	if err != nil {
	    return err
	}
	defer c.Close()
	for _, s := range c.Sections() {
	    fmt.Println(s)
	}

Read one payload fully, or stream it:

	data, err := c.ReadSection(c.Sections()[2])
	if err != nil {
	    return err
	}
	_ = data

	n, err := c.WriteSectionTo(s, w)

For metadata-only scans:

	v, header, err := pak.ReadHeader("CAM_FW.pak")
	sections, err := pak.ListSections("CAM_FW.pak")

When the section count cannot be inferred, supply it:

	c, err := pak.OpenWithOptions("CAM_FW.pak", pak.ReaderOptions{
	    // used only when the scan finds no repeat
	    DefaultSectionCount: 10,
	})

# Checksums

PAK32 and PAK64 store a CRC32 over the payload region, a constant word and
the section table:

	check, err := c.CheckCRC()
	if err != nil {
	    return err
	}
	if err := check.Err(); err != nil {
	    log.Print(err)
	}

Recompute and store the CRC of a modified file in place:

	crc, err := pak.UpdateCRC("CAM_FW.pak")

# Extracting

Write every non-empty section to "NN_name.bin" files:

	files, err := c.Extract(ctx, "out/", pak.ExtractOptions{})

Select sections by name with github.com/woozymasta/pathrules rules:

	files, err := c.Extract(ctx, "out/", pak.ExtractOptions{
	    IncludeEmpty: true,
	    Sections: []pathrules.Rule{
	        {Action: pathrules.ActionInclude, Pattern: "rootfs*"},
	        {Action: pathrules.ActionInclude, Pattern: "kernel"},
	    },
	})

# Replacing

Write a copy with one section payload replaced; the output CRC is updated:

	res, err := pak.ReplaceSection(ctx, "CAM_FW.pak", 4, "new_fs.cramfs", "CAM_FW_PATCHED.pak",
	    pak.ReplaceOptions{
	        OnStateChange: func(state pak.ReplaceState) {
	            // validating, copying, header_finalized, checksum_updated, done or failed
	        },
	    })
	_ = res.CRC32

To replace several sections in place with a backup:

	editor, err := pak.OpenEditor("CAM_FW.pak", pak.EditOptions{BackupKeep: 1})
	if err != nil {
	    return err
	}
	_ = editor.Replace(3, "kernel.bin")
	_ = editor.Replace(4, "rootfs.cramfs")
	if _, err := editor.Commit(ctx); err != nil {
	    return err
	}

PAKS containers are read-only: replace and CRC return ErrUnsupportedOperation.
*/
package pak
