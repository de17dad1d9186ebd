package fakeserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	uuid "github.com/satori/go.uuid"
	log "github.com/sirupsen/logrus"
)

type collection struct {
	path        string
	list        string
	key         string
	generateKey bool
}

var collections = []collection{
	{path: "networks", list: "networks", key: "name"},
	{path: "nics", list: "nics", key: "uuid", generateKey: true},
	{path: "osimages", list: "images", key: "name"},
	{path: "passwds", list: "passwds", key: "key"},
	{path: "services", list: "services", key: "hostname"},
}

func collectionByPath(path string) (collection, bool) {
	for _, c := range collections {
		if c.path == path {
			return c, true
		}
	}
	return collection{}, false
}

type nodeRef struct {
	Name string `json:"name"`
}

type nodesBody struct {
	Nodes   []json.RawMessage `json:"nodes"`
	Patches []patch           `json:"patches"`
}

type request struct {
	nodesBody
	Raw   json.RawMessage
	Names []string
}

type handlerFunc func(w http.ResponseWriter, r *http.Request, req *request)

// Handler returns the router serving the xCAT3 API under /v1
func (s *Server) Handler(buildInfo map[string]string) http.Handler {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/", BuildInformationHandler(buildInfo))

	v1 := r.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/nodes", s.bulk("nodes.list", s.listNodes)).Methods(http.MethodGet)
	v1.HandleFunc("/nodes", s.bulk("nodes.create", s.createNodes)).Methods(http.MethodPost)
	v1.HandleFunc("/nodes", s.bulk("nodes.delete", s.deleteNodes)).Methods(http.MethodDelete)
	v1.HandleFunc("/nodes", s.bulk("nodes.update", s.updateNodes)).Methods(http.MethodPatch)
	v1.HandleFunc("/nodes/info", s.bulk("nodes.info", s.nodesInfo)).Methods(http.MethodGet)
	v1.HandleFunc("/nodes/power", s.bulk("nodes.set_power", s.setPower)).Methods(http.MethodPut)
	v1.HandleFunc("/nodes/power", s.bulk("nodes.get_power", s.getState(s.power, "off"))).Methods(http.MethodGet)
	v1.HandleFunc("/nodes/boot_device", s.bulk("nodes.set_boot_device", s.setBootDevice)).Methods(http.MethodPut)
	v1.HandleFunc("/nodes/boot_device", s.bulk("nodes.get_boot_device", s.getState(s.boot, "disk"))).Methods(http.MethodGet)
	v1.HandleFunc("/nodes/provision", s.bulk("nodes.provision", s.setProvision)).Methods(http.MethodPut)
	v1.HandleFunc("/nodes/{name}", s.bulk("nodes.show", s.showNode)).Methods(http.MethodGet)

	v1.HandleFunc("/nics/get_by_mac", s.bulk("nics.get_by_mac", s.findBy("nics", "mac", "mac"))).Methods(http.MethodGet)
	v1.HandleFunc("/osimages/get_by_id", s.bulk("osimages.get_by_id", s.findBy("osimages", "id", "id"))).Methods(http.MethodGet)
	v1.HandleFunc("/services/hostname", s.bulk("services.hostname", s.findBy("services", "hostname", "name"))).Methods(http.MethodGet)

	for _, c := range collections {
		c := c
		v1.HandleFunc("/"+c.path, s.bulk(c.path+".list", s.listCollection(c))).Methods(http.MethodGet)
		v1.HandleFunc("/"+c.path, s.bulk(c.path+".create", s.createRecord(c))).Methods(http.MethodPost)
		v1.HandleFunc("/"+c.path+"/{name}", s.bulk(c.path+".show", s.showRecord(c))).Methods(http.MethodGet)
		v1.HandleFunc("/"+c.path+"/{name}", s.bulk(c.path+".delete", s.deleteRecord(c))).Methods(http.MethodDelete)
		v1.HandleFunc("/"+c.path+"/{name}", s.bulk(c.path+".update", s.updateRecord(c))).Methods(http.MethodPatch)
	}
	return r
}

// bulk decodes the optional nodes body, counts the request, applies the
// fault injector and dispatches to h.
func (s *Server) bulk(route string, h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		leave := s.enter()
		defer leave()

		req := &request{}
		if r.Body != nil && r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&req.Raw); err != nil {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request body: %v", err))
				return
			}
			if len(req.Raw) > 0 && req.Raw[0] == '{' {
				_ = json.Unmarshal(req.Raw, &req.nodesBody)
			}
		}

		for _, n := range req.Nodes {
			var ref nodeRef
			if err := json.Unmarshal(n, &ref); err == nil {
				req.Names = append(req.Names, ref.Name)
			}
		}

		s.mu.Lock()
		s.requests[route]++
		injector := s.injector
		s.mu.Unlock()

		log.WithFields(log.Fields{"route": route, "nodes": len(req.Names)}).Debug("Fake service request")

		if injector != nil {
			if fault := injector(route, req.Names); fault != nil {
				if fault.Delay > 0 {
					select {
					case <-time.After(fault.Delay):
					case <-r.Context().Done():
						return
					}
				}
				if fault.Status != 0 {
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(fault.Status)
					_, _ = w.Write([]byte(fault.Body))
					return
				}
			}
		}

		h(w, r, req)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warnf("Could not write response: %v", err)
	}
}

// writeError answers with the error envelope of the xCAT3 service
func writeError(w http.ResponseWriter, status int, message string) {
	inner, _ := json.Marshal(map[string]interface{}{"faultstring": message, "debuginfo": nil})
	writeJSON(w, status, map[string]string{"error_message": string(inner)})
}

func fields(r *http.Request) []string {
	raw := r.URL.Query().Get("fields")
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}

func results(w http.ResponseWriter, out map[string]string) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"nodes": out})
}

func (s *Server) listNodes(w http.ResponseWriter, r *http.Request, req *request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{"nodes": s.nodeNamesLocked()})
}

func (s *Server) createNodes(w http.ResponseWriter, r *http.Request, req *request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]string{}
	for _, raw := range req.Nodes {
		var record Record
		if err := json.Unmarshal(raw, &record); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid node: %v", err))
			return
		}
		name, _ := record["name"].(string)
		if name == "" {
			writeError(w, http.StatusBadRequest, "Node name is required")
			return
		}
		if _, ok := s.nodes[name]; ok {
			out[name] = fmt.Sprintf("Node %s already exists", name)
			continue
		}
		s.nodes[name] = record
		s.power[name] = "off"
		out[name] = "ok"
	}
	results(w, out)
}

func (s *Server) deleteNodes(w http.ResponseWriter, r *http.Request, req *request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]string{}
	for _, name := range req.Names {
		if _, ok := s.nodes[name]; !ok {
			out[name] = fmt.Sprintf("Could not find node %s", name)
			continue
		}
		delete(s.nodes, name)
		delete(s.power, name)
		delete(s.boot, name)
		delete(s.provision, name)
		out[name] = "deleted"
	}
	results(w, out)
}

func (s *Server) updateNodes(w http.ResponseWriter, r *http.Request, req *request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]string{}
	for _, name := range req.Names {
		node, ok := s.nodes[name]
		if !ok {
			out[name] = fmt.Sprintf("Could not find node %s", name)
			continue
		}
		out[name] = "updated"
		for _, p := range req.Patches {
			if err := apply(node, p); err != nil {
				out[name] = fmt.Sprintf("Could not update node %s: %v", name, err)
				break
			}
		}
	}
	results(w, out)
}

func (s *Server) nodesInfo(w http.ResponseWriter, r *http.Request, req *request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := append([]string(nil), req.Names...)
	sort.Strings(names)
	nodes := make([]Record, 0, len(names))
	for _, name := range names {
		if node, ok := s.nodes[name]; ok {
			nodes = append(nodes, project(node, fields(r)))
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"nodes": nodes})
}

func (s *Server) showNode(w http.ResponseWriter, r *http.Request, req *request) {
	name := mux.Vars(r)["name"]

	s.mu.Lock()
	defer s.mu.Unlock()

	node, ok := s.nodes[name]
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("Node %s could not be found.", name))
		return
	}
	writeJSON(w, http.StatusOK, project(node, fields(r)))
}

func (s *Server) target(w http.ResponseWriter, r *http.Request, allowed ...string) (string, bool) {
	target := r.URL.Query().Get("target")
	for _, a := range allowed {
		if a == target {
			return target, true
		}
	}
	writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid target %q", target))
	return "", false
}

func (s *Server) setPower(w http.ResponseWriter, r *http.Request, req *request) {
	target, ok := s.target(w, r, "on", "off", "reboot")
	if !ok {
		return
	}
	state := target
	if target == "reboot" {
		state = "on"
	}
	s.setState(w, req.Names, s.power, state, state)
}

func (s *Server) setBootDevice(w http.ResponseWriter, r *http.Request, req *request) {
	target, ok := s.target(w, r, "net", "disk", "cdrom")
	if !ok {
		return
	}
	s.setState(w, req.Names, s.boot, target, target)
}

func (s *Server) setProvision(w http.ResponseWriter, r *http.Request, req *request) {
	target, ok := s.target(w, r, "diskfull", "diskless", "dhcp", "hosts", "nodeset")
	if !ok {
		return
	}

	outcome := "ok"
	if target == "diskfull" || target == "diskless" || target == "nodeset" {
		outcome = "provision"
	}
	if image := r.URL.Query().Get("osimage"); image != "" {
		s.mu.Lock()
		_, found := s.collections["osimages"][image]
		s.mu.Unlock()
		if !found {
			writeError(w, http.StatusNotFound, fmt.Sprintf("OSImage %s could not be found.", image))
			return
		}
	}
	s.setState(w, req.Names, s.provision, target, outcome)
}

func (s *Server) setState(w http.ResponseWriter, names []string, states map[string]string, state, outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := map[string]string{}
	for _, name := range names {
		if _, ok := s.nodes[name]; !ok {
			out[name] = fmt.Sprintf("Could not find node %s", name)
			continue
		}
		states[name] = state
		out[name] = outcome
	}
	results(w, out)
}

func (s *Server) getState(states map[string]string, fallback string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		out := map[string]string{}
		for _, name := range req.Names {
			if _, ok := s.nodes[name]; !ok {
				out[name] = fmt.Sprintf("Could not find node %s", name)
				continue
			}
			state, ok := states[name]
			if !ok {
				state = fallback
			}
			out[name] = state
		}
		results(w, out)
	}
}

func (s *Server) listCollection(c collection) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		keys := make([]string, 0, len(s.collections[c.path]))
		for k := range s.collections[c.path] {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		records := make([]Record, 0, len(keys))
		for _, k := range keys {
			records = append(records, copyRecord(s.collections[c.path][k]))
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{c.list: records})
	}
}

func (s *Server) createRecord(c collection) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *request) {
		var record Record
		if err := json.Unmarshal(req.Raw, &record); err != nil || record == nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		if c.generateKey {
			if _, ok := record[c.key]; !ok {
				record[c.key] = newUUID()
			}
		}
		key := fmt.Sprint(record[c.key])
		if _, ok := record[c.key]; !ok || key == "" {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("Attribute %s is required", c.key))
			return
		}
		if _, ok := s.collections[c.path][key]; ok {
			writeError(w, http.StatusConflict, fmt.Sprintf("%s %s already exists.", c.path, key))
			return
		}
		s.collections[c.path][key] = record
		writeJSON(w, http.StatusCreated, copyRecord(record))
	}
}

func (s *Server) showRecord(c collection) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *request) {
		name := mux.Vars(r)["name"]

		s.mu.Lock()
		defer s.mu.Unlock()

		record, ok := s.collections[c.path][name]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s could not be found.", c.path, name))
			return
		}
		writeJSON(w, http.StatusOK, project(record, fields(r)))
	}
}

func (s *Server) deleteRecord(c collection) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *request) {
		name := mux.Vars(r)["name"]

		s.mu.Lock()
		defer s.mu.Unlock()

		if _, ok := s.collections[c.path][name]; !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s could not be found.", c.path, name))
			return
		}
		delete(s.collections[c.path], name)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) updateRecord(c collection) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *request) {
		name := mux.Vars(r)["name"]

		var patches []patch
		if err := json.Unmarshal(req.Raw, &patches); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		record, ok := s.collections[c.path][name]
		if !ok {
			writeError(w, http.StatusNotFound, fmt.Sprintf("%s %s could not be found.", c.path, name))
			return
		}
		for _, p := range patches {
			if strings.Trim(p.Path, "/") == c.key {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Attribute %s is read only", c.key))
				return
			}
			if err := apply(record, p); err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, copyRecord(record))
	}
}

func (s *Server) findBy(path, attr, param string) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request, req *request) {
		value := r.URL.Query().Get(param)

		s.mu.Lock()
		defer s.mu.Unlock()

		for _, record := range s.collections[path] {
			if fmt.Sprint(record[attr]) == value {
				writeJSON(w, http.StatusOK, copyRecord(record))
				return
			}
		}
		writeError(w, http.StatusNotFound, fmt.Sprintf("%s with %s %s could not be found.", path, attr, value))
	}
}

func newUUID() string {
	return uuid.NewV4().String()
}
