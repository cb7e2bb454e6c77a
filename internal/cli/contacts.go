package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/contactos/internal/contact"
	"github.com/roach88/contactos/internal/store"
)

// ContactFlags holds the record fields accepted by add and update.
type ContactFlags struct {
	Name  string
	Email string
	Phone string
}

func (c *ContactFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.Name, "name", "", "contact name")
	cmd.Flags().StringVar(&c.Email, "email", "", "contact email (unique)")
	cmd.Flags().StringVar(&c.Phone, "phone", "", "contact phone")
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	fields := &ContactFlags{}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a contact",
		Long: `Create a contact. The store assigns its id.

Fails if another contact already uses the email.

Example:
  contactos add --name "Ana López" --email ana@example.com --phone 555-0101`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withStore(cmd, "create contact", func(st *store.Store, f *OutputFormatter) error {
				c, err := st.Create(cmd.Context(), contact.Input{
					Name:  fields.Name,
					Email: fields.Email,
					Phone: fields.Phone,
				})
				if err != nil {
					return err
				}
				return f.Success(c)
			})
		},
	}

	fields.register(cmd)
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("phone")

	return cmd
}

// NewUpdateCommand creates the update command.
func NewUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	fields := &ContactFlags{}

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Edit a contact",
		Long: `Edit an existing contact.

The current record is loaded, the given flags replace the matching fields,
and the whole record is written back in the same transaction. The id never
changes.

Example:
  contactos update 3 --phone 555-0199`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return rootOpts.usage(cmd, err)
			}
			changed := cmd.Flags().Changed("name") || cmd.Flags().Changed("email") || cmd.Flags().Changed("phone")
			if !changed {
				return rootOpts.usage(cmd, errors.New("nothing to update: pass at least one of --name, --email, --phone"))
			}

			return rootOpts.withStore(cmd, "update contact", func(st *store.Store, f *OutputFormatter) error {
				c, err := st.Modify(cmd.Context(), id, func(c *contact.Contact) {
					if cmd.Flags().Changed("name") {
						c.Name = fields.Name
					}
					if cmd.Flags().Changed("email") {
						c.Email = fields.Email
					}
					if cmd.Flags().Changed("phone") {
						c.Phone = fields.Phone
					}
				})
				if err != nil {
					return err
				}
				return f.Success(c)
			})
		},
	}

	fields.register(cmd)

	return cmd
}

// NewDeleteCommand creates the delete command.
func NewDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a contact",
		Long: `Delete a contact by id. Deleting an id that does not exist succeeds.

Example:
  contactos delete 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return rootOpts.usage(cmd, err)
			}

			return rootOpts.withStore(cmd, "delete contact", func(st *store.Store, f *OutputFormatter) error {
				if err := st.Delete(cmd.Context(), id); err != nil {
					return err
				}
				if f.Format == "text" {
					return f.Success(fmt.Sprintf("Deleted contact %d", id))
				}
				return f.Success(map[string]int64{"id": id})
			})
		},
	}
}

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one contact",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return rootOpts.usage(cmd, err)
			}

			return rootOpts.withStore(cmd, "get contact", func(st *store.Store, f *OutputFormatter) error {
				c, err := st.Get(cmd.Context(), id)
				if err != nil {
					return err
				}
				return f.Success(c)
			})
		},
	}
}

func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid contact id %q", arg)
	}
	return id, nil
}
