// Package fakeserver is an in-memory xCAT3 service used by the tests and by
// the hidden fake-server command.
package fakeserver

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Record is a stored resource
type Record map[string]interface{}

// Fault is a response injected in place of the normal handling
type Fault struct {
	Status int
	Body   string
	// Delay postpones the response. The request context still aborts it.
	Delay time.Duration
}

// Injector decides whether a request gets a fault. route is the name of the
// matched route and nodes are the node names of the request body.
type Injector func(route string, nodes []string) *Fault

// Server holds the state of the fake service
type Server struct {
	mu sync.Mutex

	nodes     map[string]Record
	power     map[string]string
	boot      map[string]string
	provision map[string]string

	collections map[string]map[string]Record

	injector Injector
	requests map[string]int

	inFlight    int32
	maxInFlight int32
}

// NewServer creates a new empty fake service
func NewServer() (*Server, error) {
	s := &Server{
		nodes:       map[string]Record{},
		power:       map[string]string{},
		boot:        map[string]string{},
		provision:   map[string]string{},
		collections: map[string]map[string]Record{},
		requests:    map[string]int{},
	}
	for _, c := range collections {
		s.collections[c.path] = map[string]Record{}
	}
	return s, nil
}

// SetInjector installs a fault injector, nil removes it
func (s *Server) SetInjector(i Injector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.injector = i
}

// FailNext answers the next n requests with status and body
func (s *Server) FailNext(n int, status int, body string) {
	remaining := int32(n)
	s.SetInjector(func(route string, nodes []string) *Fault {
		if atomic.AddInt32(&remaining, -1) < 0 {
			return nil
		}
		return &Fault{Status: status, Body: body}
	})
}

// AddNode stores a node record
func (s *Server) AddNode(record Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes[fmt.Sprint(record["name"])] = record
}

// AddRecord stores a record of one of the flat collections
func (s *Server) AddRecord(collection string, record Record) error {
	c, ok := collectionByPath(collection)
	if !ok {
		return fmt.Errorf("unknown collection %s", collection)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.generateKey {
		if _, ok := record[c.key]; !ok {
			record[c.key] = newUUID()
		}
	}
	s.collections[c.path][fmt.Sprint(record[c.key])] = record
	return nil
}

// Node returns a copy of a node record
func (s *Server) Node(name string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[name]
	if !ok {
		return nil, false
	}
	return copyRecord(n), true
}

// NodeNames returns the sorted names of the stored nodes
func (s *Server) NodeNames() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nodeNamesLocked()
}

func (s *Server) nodeNamesLocked() []string {
	names := make([]string, 0, len(s.nodes))
	for name := range s.nodes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Power returns the power state of a node
func (s *Server) Power(name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.power[name]
}

// Requests returns the number of requests served by route
func (s *Server) Requests(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests[route]
}

// MaxInFlight returns the highest number of concurrent bulk requests seen
func (s *Server) MaxInFlight() int {
	return int(atomic.LoadInt32(&s.maxInFlight))
}

func (s *Server) enter() func() {
	now := atomic.AddInt32(&s.inFlight, 1)
	for {
		seen := atomic.LoadInt32(&s.maxInFlight)
		if now <= seen || atomic.CompareAndSwapInt32(&s.maxInFlight, seen, now) {
			break
		}
	}
	return func() { atomic.AddInt32(&s.inFlight, -1) }
}

func copyRecord(r Record) Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func project(r Record, fields []string) Record {
	if len(fields) == 0 {
		return copyRecord(r)
	}
	out := Record{}
	for _, f := range fields {
		if v, ok := r[f]; ok {
			out[f] = v
		}
	}
	return out
}

type patch struct {
	Op    string      `json:"op"`
	Path  string      `json:"path"`
	Value interface{} `json:"value"`
}

// apply applies one patch to r in place
func apply(r Record, p patch) error {
	segments := strings.Split(strings.Trim(p.Path, "/"), "/")
	if len(segments) == 0 || segments[0] == "" {
		return fmt.Errorf("invalid path %q", p.Path)
	}
	if segments[0] == "name" {
		return fmt.Errorf("attribute name is read only")
	}

	parent := map[string]interface{}(r)
	for _, seg := range segments[:len(segments)-1] {
		child, ok := parent[seg].(map[string]interface{})
		if !ok {
			if p.Op == "remove" {
				return nil
			}
			child = map[string]interface{}{}
			parent[seg] = child
		}
		parent = child
	}

	last := segments[len(segments)-1]
	switch p.Op {
	case "add", "replace":
		parent[last] = p.Value
	case "remove":
		delete(parent, last)
	default:
		return fmt.Errorf("unsupported op %q", p.Op)
	}
	return nil
}

// SeedDefaults stores one record of every collection
func (s *Server) SeedDefaults() error {
	seeds := []struct {
		collection string
		record     Record
	}{
		{"osimages", Record{"id": "1", "name": "rhels7.3-ppc64le", "ver": "7.3", "arch": "ppc64le", "distro": "rhels", "rootfstype": "ext4"}},
		{"networks", Record{"name": "mgmt", "subnet": "10.0.0.0", "netmask": "255.255.0.0", "gateway": "10.0.0.1", "dhcpserver": "10.0.0.1", "dynamic_range": "10.0.200.1-10.0.200.254", "nameservers": "10.0.0.1", "domain": "cluster.com"}},
		{"passwds", Record{"key": "system", "username": "root", "password": "cluster", "crypt_method": "sha512"}},
		{"services", Record{"hostname": "c910f03c05k21", "type": "api", "online": true, "workers": 4}},
		{"services", Record{"hostname": "c910f03c05k22", "type": "conductor", "online": false, "workers": 0}},
	}
	for _, seed := range seeds {
		if err := s.AddRecord(seed.collection, seed.record); err != nil {
			return err
		}
	}
	return nil
}
