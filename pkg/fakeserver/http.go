package fakeserver

import (
	"context"
	"net/http"
	"time"
)

// HTTPServer serves a fake xCAT3 service
type HTTPServer struct {
	server *http.Server
	state  *Server
}

// NewHTTPServer creates a new HTTPServer around state
func NewHTTPServer(listenAddr string, state *Server, buildInfo map[string]string) (*HTTPServer, error) {
	srv := &http.Server{
		Handler:      state.Handler(buildInfo),
		Addr:         listenAddr,
		WriteTimeout: 15 * time.Minute,
		ReadTimeout:  15 * time.Second,
	}

	return &HTTPServer{server: srv, state: state}, nil
}

// Run starts the server and listens for incoming connections
func (s *HTTPServer) Run() error {
	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// GetListenAddr returns the address the server is listening on
func (s *HTTPServer) GetListenAddr() string {
	return s.server.Addr
}

// State returns the served state
func (s *HTTPServer) State() *Server {
	return s.state
}

// Shutdown closes the server gracefully
func (s *HTTPServer) Shutdown() error {
	return s.server.Shutdown(context.Background())
}
