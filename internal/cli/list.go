package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/contactos/internal/contact"
	"github.com/roach88/contactos/internal/store"
)

// contactList renders one contact per line in text mode.
type contactList []contact.Contact

func (l contactList) String() string {
	if len(l) == 0 {
		return "No contacts found."
	}
	lines := make([]string, 0, len(l))
	for _, c := range l {
		lines = append(lines, c.String())
	}
	return strings.Join(lines, "\n")
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all contacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, "list contacts", func(st *store.Store, f *OutputFormatter) error {
				contacts, err := st.GetAll(cmd.Context())
				if err != nil {
					return err
				}
				return f.Success(contactList(contacts))
			})
		},
	}
}

// NewSearchCommand creates the search command.
func NewSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search [query...]",
		Short: "Find contacts by name",
		Long: `Find contacts whose name contains the query, ignoring case.

An empty query lists every contact.

Example:
  contactos search ana`,
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")

			return rootOpts.withStore(cmd, "search contacts", func(st *store.Store, f *OutputFormatter) error {
				contacts, err := st.FindByNameSubstring(cmd.Context(), query)
				if err != nil {
					return err
				}
				f.VerboseLog("%d contacts match %q", len(contacts), query)
				return f.Success(contactList(contacts))
			})
		},
	}
}

// Stats summarises the register.
type Stats struct {
	Database string `json:"database" yaml:"database"`
	Contacts int    `json:"contacts" yaml:"contacts"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show register statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, "read statistics", func(st *store.Store, f *OutputFormatter) error {
				n, err := st.Count(cmd.Context())
				if err != nil {
					return err
				}
				stats := Stats{Database: rootOpts.cfg.Database, Contacts: n}
				if f.Format == "text" {
					return f.Success(fmt.Sprintf("Database: %s\nContacts: %d", stats.Database, stats.Contacts))
				}
				return f.Success(stats)
			})
		},
	}
}
