// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/pbo

// Command rvpk is a headless CLI over the vpk package: list, extract, pack
// and verify Respawn VPK archives.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	vpk "github.com/ReGlitched/reVPKEdit"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool
	var configPath string

	root := &cobra.Command{
		Use:   "rvpk",
		Short: "Inspect, extract and build Respawn VPK archives",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(configPath); err != nil {
				return fmt.Errorf("loading config: %w", err)
			}

			level := slog.LevelInfo
			if verbose || viper.GetBool("verbose") {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{Level: level})))
			return nil
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default $HOME/.rvpk.yaml)")

	root.AddCommand(newListCmd(), newExtractCmd(), newPackCmd(), newVerifyCmd())
	return root
}

// loadConfig points viper at configPath, or at $HOME/.rvpk.yaml if
// configPath is empty, and reads it into viper's global store. A missing
// config file at the default location is not an error -- every setting it
// could carry (currently just "verbose") has a working zero-value default --
// but an explicitly named, unreadable, or malformed one is.
func loadConfig(configPath string) error {
	if configPath != "" {
		viper.SetConfigFile(configPath)
		return viper.ReadInConfig()
	}

	viper.SetConfigName(".rvpk")
	viper.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return err
	}
	return nil
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <dir.vpk>",
		Short: "List every entry in an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := vpk.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			for _, e := range r.Entries() {
				fmt.Printf("%10d  %08x  %s\n", e.TotalUncompressedLength(), e.CRC32, e.Path)
			}
			return nil
		},
	}
}

func newExtractCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "extract <dir.vpk> <destDir>",
		Short: "Extract every entry to a destination directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := vpk.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			slog.Info("extracting", "archive", args[0], "dest", args[1], "entries", len(r.Entries()))
			return r.ExtractTo(args[1], workers)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0, "extraction worker count (default: 8)")
	return cmd
}

func newPackCmd() *cobra.Command {
	var opts vpk.PackOptions

	cmd := &cobra.Command{
		Use:   "pack <srcDir> <out_dir.vpk>",
		Short: "Pack a directory tree into a new archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := vpk.Pack(context.Background(), args[0], args[1], opts)
			if err != nil {
				return err
			}

			slog.Info("packed",
				"entries", result.EntryCount,
				"deduped_chunks", result.DedupedChunks,
				"bytes_in", result.TotalBytesIn,
				"bytes_out", result.TotalBytesOut,
				"side_archives", len(result.SideArchivePaths),
			)
			return nil
		},
	}

	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "build worker count (default: GOMAXPROCS)")
	cmd.Flags().Int64Var(&opts.CompressMinSize, "compress-min-size", 0, "minimum file size eligible for compression")
	cmd.Flags().Int64Var(&opts.MaxPartSize, "max-part-size", 0, "maximum bytes per chunk before a file is split")
	cmd.Flags().Int64Var(&opts.MaxSideArchiveSize, "max-side-archive-size", 0, "maximum bytes per side archive before rollover")
	return cmd
}

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify <dir.vpk>",
		Short: "Re-parse and checksum every entry, reporting the first failure",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := vpk.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()

			entries := r.Entries()
			if err := vpk.ValidateDirArchive(args[0], entries); err != nil {
				return err
			}

			for _, e := range entries {
				if _, err := r.Read(e.Path); err != nil {
					return fmt.Errorf("%s: %w", e.Path, err)
				}
			}

			slog.Info("verified ok", "archive", args[0], "entries", len(entries))
			return nil
		},
	}
}
