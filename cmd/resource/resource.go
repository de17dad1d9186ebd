// Package resource holds the commands of the flat xCAT3 collections:
// networks, nics, osimages, passwds and services.
package resource

import (
	"fmt"
	"strings"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg/client"
	"github.com/spf13/cobra"
)

// collection describes the command set generated for one resource
type collection struct {
	resource client.Resource
	manager  func(c *client.Client) *client.ResourceManager
	line     func(r client.Record) string
	// create is false for resources registered by other means.
	create bool
	// named is set when create takes the key as first argument.
	named bool
	// byMAC lets show look records up with --mac.
	byMAC bool
}

func (col collection) key() string {
	return col.resource.Key
}

func newCommand(col collection, short string) *cobra.Command {
	root := &cobra.Command{
		Use:   col.resource.Kind,
		Short: short,
	}
	root.AddCommand(col.listCmd(), col.showCmd(), col.deleteCmd(), col.updateCmd())
	if col.create {
		root.AddCommand(col.createCmd())
	}
	return root
}

func manager(col collection) (*client.ResourceManager, error) {
	c, err := utils.Client()
	if err != nil {
		return nil, err
	}
	return col.manager(c), nil
}

func (col collection) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List the %ss registered with the xCAT3 service", col.resource.Kind),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(col)
			if err != nil {
				return err
			}
			ctx, cancel := utils.Context(cmd)
			defer cancel()

			records, err := m.List(ctx)
			if err != nil {
				return err
			}
			lines := make([]string, 0, len(records))
			for _, r := range records {
				lines = append(lines, col.line(r))
			}
			return utils.PrintList(lines)
		},
	}
}

func (col collection) showCmd() *cobra.Command {
	use := fmt.Sprintf("show <%s>", col.key())
	args := cobra.ExactArgs(1)
	if col.byMAC {
		use = fmt.Sprintf("show [%s] [--mac <mac>]", col.key())
		args = cobra.MaximumNArgs(1)
	}

	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Show detailed information about a %s", col.resource.Kind),
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := cmd.Flags().GetString("fields")
			if err != nil {
				return err
			}
			var mac string
			if col.byMAC {
				if mac, err = cmd.Flags().GetString("mac"); err != nil {
					return err
				}
			}
			if len(args) == 0 && mac == "" {
				return fmt.Errorf("either a %s or --mac is required", col.key())
			}

			m, err := manager(col)
			if err != nil {
				return err
			}
			ctx, cancel := utils.Context(cmd)
			defer cancel()

			var record client.Record
			if len(args) > 0 {
				record, err = m.Show(ctx, args[0], client.SplitFields(raw))
			} else {
				record, err = m.GetByMAC(ctx, mac)
			}
			if err != nil {
				return err
			}
			return utils.PrintDict(record)
		},
	}
	cmd.Flags().String("fields", "", "comma separated fields fetched from the service")
	if col.byMAC {
		cmd.Flags().String("mac", "", "look the record up by mac address")
	}
	return cmd
}

func (col collection) createCmd() *cobra.Command {
	use := "create <attr=value>..."
	args := cobra.MinimumNArgs(1)
	if col.named {
		use = fmt.Sprintf("create <%s> [attr=value]...", col.key())
	}

	return &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Register a %s, valid fields are %s", col.resource.Kind, strings.Join(col.resource.Fields, ",")),
		Args:  args,
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if col.named {
				name, args = args[0], args[1:]
			}
			m, err := manager(col)
			if err != nil {
				return err
			}
			ctx, cancel := utils.Context(cmd)
			defer cancel()

			record, err := m.Create(ctx, name, args)
			if err != nil {
				return err
			}
			return utils.PrintDict(record)
		},
	}
}

func (col collection) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("delete <%s>", col.key()),
		Short: fmt.Sprintf("Unregister a %s", col.resource.Kind),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(col)
			if err != nil {
				return err
			}
			ctx, cancel := utils.Context(cmd)
			defer cancel()

			if err := m.Delete(ctx, args[0]); err != nil {
				return err
			}
			_, err = fmt.Fprintf(utils.Out, "%s deleted\n", args[0])
			return err
		},
	}
}

func (col collection) updateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   fmt.Sprintf("update <%s> <path=value>...", col.key()),
		Short: fmt.Sprintf("Update a %s, an empty value removes the attribute", col.resource.Kind),
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := manager(col)
			if err != nil {
				return err
			}
			ctx, cancel := utils.Context(cmd)
			defer cancel()

			record, err := m.Update(ctx, args[0], args[1:])
			if err != nil {
				return err
			}
			return utils.PrintDict(record)
		},
	}
}
