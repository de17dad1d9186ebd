// Package ipalloc hands out addresses of a subnet to node interfaces.
package ipalloc

import (
	"context"
	"fmt"
	"net"

	"github.com/metal-stack/go-ipam"
	log "github.com/sirupsen/logrus"
)

// Allocator assigns free addresses of one prefix
type Allocator struct {
	ipm    ipam.Ipamer
	prefix *ipam.Prefix
}

// NewAllocator creates an allocator for cidr. The network, broadcast and
// the first host address, commonly the gateway, are never handed out.
func NewAllocator(ctx context.Context, cidr string) (*Allocator, error) {
	ipm := ipam.New(ctx)
	prefix, err := ipm.NewPrefix(ctx, cidr)
	if err != nil {
		return nil, fmt.Errorf("invalid subnet %q: %w", cidr, err)
	}

	a := &Allocator{ipm: ipm, prefix: prefix}
	if gw := firstHost(prefix.Cidr); gw != "" {
		a.Reserve(ctx, gw)
	}
	return a, nil
}

// Reserve marks ip as used. Addresses outside the prefix are ignored.
func (a *Allocator) Reserve(ctx context.Context, ip string) {
	if _, err := a.ipm.AcquireSpecificIP(ctx, a.prefix.Cidr, ip); err != nil {
		log.Debugf("Could not reserve %s in %s: %v", ip, a.prefix.Cidr, err)
	}
}

// Next returns the next free address
func (a *Allocator) Next(ctx context.Context) (string, error) {
	ip, err := a.ipm.AcquireIP(ctx, a.prefix.Cidr)
	if err != nil {
		return "", fmt.Errorf("could not allocate an address in %s: %w", a.prefix.Cidr, err)
	}
	return ip.IP.String(), nil
}

// Netmask returns the dotted netmask of an IPv4 prefix
func (a *Allocator) Netmask() string {
	_, n, err := net.ParseCIDR(a.prefix.Cidr)
	if err != nil || len(n.Mask) != net.IPv4len {
		return ""
	}
	return net.IP(n.Mask).String()
}

func firstHost(cidr string) string {
	_, n, err := net.ParseCIDR(cidr)
	if err != nil {
		return ""
	}
	v4 := n.IP.To4()
	if v4 == nil {
		return ""
	}
	ip := net.IPv4(v4[0], v4[1], v4[2], v4[3]+1)
	if n.Contains(ip) {
		return ip.String()
	}
	return ""
}
