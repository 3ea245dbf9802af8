// Command mavgen turns MAVLink XML dialect definitions into a Go package of
// strongly-typed message structs and a dialect.Dialect registry, the way
// internal/dialect/common was produced by hand as this generator's
// reference output.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		pkgName              string
		formatGeneratedCode  bool
		emitCargoBuildMsgs   bool
		force                bool
	)

	cmd := &cobra.Command{
		Use:   "mavgen <definitions-dir> <destination-dir>",
		Short: "Generate a Go MAVLink dialect package from XML definitions",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			defsDir, destDir := args[0], args[1]

			hash, err := definitionsHash(defsDir)
			if err != nil {
				return fmt.Errorf("hashing definitions: %w", err)
			}
			if !force {
				if prev, err := loadCache(destDir); err == nil && prev != nil && prev.Hash == hash {
					fmt.Fprintf(cmd.OutOrStdout(), "mavgen: %s unchanged, skipping generation\n", destDir)
					return nil
				}
			}

			d, err := loadDialectDir(defsDir)
			if err != nil {
				return fmt.Errorf("loading definitions: %w", err)
			}

			name := pkgName
			if name == "" {
				name = filepath.Base(destDir)
			}
			opt := genOptions{
				DestDir:    destDir,
				PkgName:    name,
				SourceXML:  "definitions/" + filepath.Base(defsDir),
				FormatCode: formatGeneratedCode,
			}
			if err := generatePackage(d, opt); err != nil {
				return fmt.Errorf("generating package: %w", err)
			}
			if err := saveCache(destDir, hash); err != nil {
				return fmt.Errorf("writing cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mavgen: wrote package %q to %s (%d messages)\n", name, destDir, len(d.Messages))
			return nil
		},
	}

	cmd.Flags().StringVar(&pkgName, "package", "", "Go package name for generated output (default: destination directory's base name)")
	cmd.Flags().BoolVar(&formatGeneratedCode, "format-generated-code", true, "Run go/format.Source over every generated file")
	cmd.Flags().BoolVar(&emitCargoBuildMsgs, "emit-cargo-build-messages", false, "Emit cargo:rerun-if-changed build-script directives (no-op for a Go generator; kept for command-line parity with the reference tool)")
	cmd.Flags().BoolVar(&force, "force", false, "Regenerate even if the content-hash cache says nothing changed")
	_ = emitCargoBuildMsgs

	return cmd
}
