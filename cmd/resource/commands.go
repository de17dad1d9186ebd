package resource

import (
	"fmt"

	"github.com/chenglch/xcat3client/pkg/client"
)

// NetworkCmd manages the provisioning networks
var NetworkCmd = newCommand(collection{
	resource: client.Networks,
	manager:  func(c *client.Client) *client.ResourceManager { return c.Network },
	line:     func(r client.Record) string { return fmt.Sprintf("%s (network)", r.Text("name")) },
	create:   true,
	named:    true,
}, "Manage the networks of the xCAT3 service")

// OSImageCmd manages the osimages. Images are registered by the service.
var OSImageCmd = newCommand(collection{
	resource: client.OSImages,
	manager:  func(c *client.Client) *client.ResourceManager { return c.OSImage },
	line:     func(r client.Record) string { return fmt.Sprintf("%s (osimage)", r.Text("name")) },
}, "Manage the osimages of the xCAT3 service")

// PasswdCmd manages the deployment credentials
var PasswdCmd = newCommand(collection{
	resource: client.Passwds,
	manager:  func(c *client.Client) *client.ResourceManager { return c.Passwd },
	line:     func(r client.Record) string { return fmt.Sprintf("%s (passwd)", r.Text("key")) },
	create:   true,
	named:    true,
}, "Manage the passwords used during deployment")

// NicCmd manages the network interfaces of nodes
var NicCmd = newCommand(collection{
	resource: client.Nics,
	manager:  func(c *client.Client) *client.ResourceManager { return c.Nic },
	line: func(r client.Record) string {
		return fmt.Sprintf("%s (uuid) %s (mac)", r.Text("uuid"), r.Text("mac"))
	},
	create: true,
	byMAC:  true,
}, "Manage the network interfaces of nodes")
