// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Package vpk reads, packs and edits Respawn Entertainment's VPK
// ("packedstore") game archive format: a dir archive holding a directory
// tree plus zero or more numbered side archives holding the bulk file
// data, with optional LZHAM-compressed chunks and ".cam" audio sidecars.
//
// Reading an existing archive:
//
//	r, err := vpk.Open("english_client_frontend.bsp.pak000_dir.vpk")
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	data, err := r.Read("materials/dev/dev_measuregeneric01.vtf")
//
// Packing a directory into a new archive:
//
//	result, err := vpk.Pack(ctx, "./staging", "out/mod_dir.vpk", vpk.PackOptions{})
//
// Editing an existing archive in place:
//
//	ed, err := vpk.OpenEditor("mod_dir.vpk", vpk.PackOptions{})
//	if err != nil {
//		return err
//	}
//	if err := ed.Replace("scripts/vscripts/mp/mp_glitch.nut", newData); err != nil {
//		return err
//	}
//	result, err := ed.Commit(ctx)
package vpk
