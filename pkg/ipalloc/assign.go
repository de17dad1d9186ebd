package ipalloc

import (
	"context"

	"github.com/chenglch/xcat3client/pkg/client"
)

// AssignNodes gives the primary nic of every node an address when it has
// none. The nic flagged primary is used, or the first one. Addresses
// already present on any nic are reserved first. It returns the number of
// assigned addresses.
func (a *Allocator) AssignNodes(ctx context.Context, nodes []*client.Node) (int, error) {
	for _, n := range nodes {
		for _, nic := range nics(n) {
			if ip, ok := nic["ip"].(string); ok && ip != "" {
				a.Reserve(ctx, ip)
			}
		}
	}

	netmask := a.Netmask()
	assigned := 0
	for _, n := range nodes {
		nic := primary(nics(n))
		if nic == nil {
			continue
		}
		if ip, ok := nic["ip"].(string); ok && ip != "" {
			continue
		}

		ip, err := a.Next(ctx)
		if err != nil {
			return assigned, err
		}
		nic["ip"] = ip
		if _, ok := nic["netmask"]; !ok && netmask != "" {
			nic["netmask"] = netmask
		}
		assigned++
	}
	return assigned, nil
}

func nics(n *client.Node) []client.Nic {
	if n.NicsInfo == nil {
		return nil
	}
	return n.NicsInfo.Nics
}

func primary(nics []client.Nic) client.Nic {
	for _, nic := range nics {
		if p, ok := nic["primary"].(bool); ok && p {
			return nic
		}
	}
	if len(nics) > 0 {
		return nics[0]
	}
	return nil
}
