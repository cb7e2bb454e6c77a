package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/roach88/contactos/internal/backup"
	"github.com/roach88/contactos/internal/importer"
	"github.com/roach88/contactos/internal/store"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
}

// ExportResult is the structured output of a file export.
type ExportResult struct {
	Path     string `json:"path" yaml:"path"`
	Contacts int    `json:"contacts" yaml:"contacts"`
}

func (r ExportResult) String() string {
	return fmt.Sprintf("Exported %d contacts to %s", r.Contacts, r.Path)
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write all contacts to a JSON backup",
		Long: `Write every contact as a pretty-printed JSON array of
{id, name, email, phone} objects.

The file is written to a temporary name and renamed into place, so an
interrupted export never leaves a truncated backup behind.

Examples:
  contactos export
  contactos export -o /tmp/contacts.json
  contactos export -o - > contacts.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, "export contacts", func(st *store.Store, f *OutputFormatter) error {
				if opts.Output == "-" {
					_, err := backup.Export(cmd.Context(), st, cmd.OutOrStdout())
					return err
				}

				n, err := exportToFile(cmd, st, opts.Output)
				if err != nil {
					return err
				}
				return f.Success(ExportResult{Path: opts.Output, Contacts: n})
			})
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", backup.DefaultFileName, "backup file to write (- for stdout)")

	return cmd
}

func exportToFile(cmd *cobra.Command, st *store.Store, path string) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".contactos-export-*.json")
	if err != nil {
		return 0, fmt.Errorf("create backup file: %w", err)
	}
	defer os.Remove(tmp.Name()) // No-op once renamed

	n, err := backup.Export(cmd.Context(), st, tmp)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close backup file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("write backup file: %w", err)
	}
	return n, nil
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file|->",
		Short: "Merge contacts from a JSON backup",
		Long: `Merge contacts from a JSON array of {name, email, phone} objects.

Records whose email already exists are skipped, never overwritten.
Records missing a field are rejected and listed in the report. Any "id"
in the file is ignored; the store assigns new ids.

Examples:
  contactos import contactos_backup.json
  cat contacts.json | contactos import -`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, closeSrc, err := openImportSource(cmd, args[0])
			if err != nil {
				return err
			}
			defer closeSrc()

			return rootOpts.withStore(cmd, "import contacts", func(st *store.Store, f *OutputFormatter) error {
				im := importer.New(st,
					importer.WithLogger(rootOpts.logger),
					importer.WithMaxBatch(rootOpts.cfg.MaxBatch),
				)

				report, err := im.ImportReader(cmd.Context(), src)
				if err != nil {
					if report != nil {
						f.VerboseLog("partial import: %s", report)
					}
					return err
				}
				return f.Success(report)
			})
		},
	}

	return cmd
}

func openImportSource(cmd *cobra.Command, arg string) (io.Reader, func(), error) {
	if arg == "-" {
		return cmd.InOrStdin(), func() {}, nil
	}

	file, err := os.Open(arg)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "failed to read import file", err)
	}
	return file, func() { file.Close() }, nil
}
