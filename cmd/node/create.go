package node

import (
	"context"

	"github.com/chenglch/xcat3client/cmd/utils"
	"github.com/chenglch/xcat3client/pkg/batch"
	"github.com/chenglch/xcat3client/pkg/client"
	"github.com/chenglch/xcat3client/pkg/contrib"
	"github.com/chenglch/xcat3client/pkg/ipalloc"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	createCmd.Flags().String("arch", "", "architecture of the machine, like x86_64, ppc64le, ppc64")
	createCmd.Flags().String("netboot", "", "netboot method, like pxe, petitboot, grub, yaboot")
	createCmd.Flags().String("mgt", "", "management technique, like ipmi, kvm")
	createCmd.Flags().String("type", "", "node type, like physical, vm")
	createCmd.Flags().StringP("control", "c", "", "key=value pairs used by the control plugin, like bmc_address=11.0.0.1,bmc_username=admin")
	createCmd.Flags().StringArrayP("nic", "i", nil, "key=value pairs describing one nic, like mac=42:87:0a:05:00:00,primary=True,name=eth0 (repeatable)")
	createCmd.Flags().String("nic-subnet", "", "assign addresses of this subnet to primary nics without an ip")
	NodeCmd.AddCommand(createCmd)
}

type createOptions struct {
	Arch    string
	Netboot string
	Mgt     string
	Type    string
	Control string
	Nics    []string
}

// buildNodes returns one enrolment record per name sharing the given
// attributes. Each node gets its own copy of the control and nic maps.
func buildNodes(names []string, opts createOptions) ([]*client.Node, error) {
	control, err := client.ParseKeyValues(opts.Control, false)
	if err != nil {
		return nil, err
	}

	var nics []map[string]interface{}
	for _, raw := range opts.Nics {
		nic, err := client.ParseKeyValues(raw, true)
		if err != nil {
			return nil, err
		}
		nics = append(nics, nic)
	}

	nodes := make([]*client.Node, 0, len(names))
	for _, name := range names {
		n := &client.Node{
			Name:    name,
			Arch:    opts.Arch,
			Netboot: opts.Netboot,
			Mgt:     opts.Mgt,
			Type:    opts.Type,
		}
		if len(control) > 0 {
			n.ControlInfo = copyMap(control)
		}
		if len(nics) > 0 {
			n.NicsInfo = &client.NicsInfo{}
			for _, nic := range nics {
				n.NicsInfo.Nics = append(n.NicsInfo.Nics, client.Nic(copyMap(nic)))
			}
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func copyMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

var createCmd = &cobra.Command{
	Use:   "create <nodes>",
	Short: "Enroll nodes into the xCAT3 service",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := nodesArg(args)
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		opts := createOptions{}
		for flag, dst := range map[string]*string{
			"arch":    &opts.Arch,
			"netboot": &opts.Netboot,
			"mgt":     &opts.Mgt,
			"type":    &opts.Type,
			"control": &opts.Control,
		} {
			if *dst, err = flags.GetString(flag); err != nil {
				return err
			}
		}
		if opts.Nics, err = flags.GetStringArray("nic"); err != nil {
			return err
		}
		subnet, err := flags.GetString("nic-subnet")
		if err != nil {
			return err
		}

		nodes, err := buildNodes(names, opts)
		if err != nil {
			return err
		}

		if subnet != "" {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			allocator, err := ipalloc.NewAllocator(ctx, subnet)
			if err != nil {
				return err
			}
			assigned, err := allocator.AssignNodes(ctx, nodes)
			if err != nil {
				return err
			}
			log.Infof("Assigned %d addresses of %s", assigned, subnet)
		}

		return utils.RunBulk(cmd, contrib.OperationCreate, true, func(ctx context.Context, c *client.Client, opts batch.Options) (*batch.Result, error) {
			return c.Node.BulkCreate(ctx, nodes, contrib.OperationCreate, opts)
		})
	},
}
