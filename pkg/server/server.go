// Copyright 2024 Nokia
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/sdcio/dataplane-translator/pkg/config"
	"github.com/sdcio/dataplane-translator/pkg/datastore"
	"github.com/sdcio/dataplane-translator/pkg/device"
	"github.com/sdcio/dataplane-translator/pkg/device/sim"
	"github.com/sdcio/dataplane-translator/pkg/metrics"
	"github.com/sdcio/dataplane-translator/pkg/naming"
	"github.com/sdcio/dataplane-translator/pkg/registry"
	"github.com/sdcio/dataplane-translator/pkg/samples"
	"github.com/sdcio/dataplane-translator/pkg/store"
)

type Server struct {
	config *config.Config
	ready  atomic.Bool

	ctx context.Context
	cfn context.CancelFunc

	router  *mux.Router
	reg     *prometheus.Registry
	httpSrv *http.Server

	store     store.Store
	device    device.Client
	names     *naming.Registry
	graph     *registry.Graph
	datastore *datastore.Datastore
}

func New(ctx context.Context, c *config.Config) (*Server, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &Server{
		config: c,
		ctx:    ctx,
		cfn:    cancel,
		router: mux.NewRouter(),
		reg:    prometheus.NewRegistry(),
	}
	if err := s.init(); err != nil {
		s.Stop()
		return nil, err
	}
	return s, nil
}

func (s *Server) init() error {
	var err error
	s.store, err = store.New(s.config.MappingStore)
	if err != nil {
		return fmt.Errorf("failed to open mapping store: %w", err)
	}
	s.names, err = naming.NewRegistryFromConfig(s.config.Naming)
	if err != nil {
		return err
	}
	s.device, err = newDevice(s.config.Device)
	if err != nil {
		return err
	}
	s.graph, err = BuildGraph(device.NewReplyConsumer(s.device, s.config.Device.ReplyTimeout), s.names)
	if err != nil {
		return err
	}
	s.datastore = datastore.New(s.config, s.store, s.graph)
	if s.config.Prometheus != nil {
		if err := metrics.Register(s.reg); err != nil {
			return err
		}
	}
	return nil
}

func newDevice(c *config.DeviceConfig) (device.Client, error) {
	switch c.Type {
	case config.DeviceTypeSim:
		log.Infof("using simulated device, queue size %d", c.QueueSize)
		return sim.New(c.QueueSize), nil
	}
	return nil, fmt.Errorf("unknown device type %q", c.Type)
}

// BuildGraph registers all handlers and builds their dependency graph.
func BuildGraph(rc *device.ReplyConsumer, names *naming.Registry) (*registry.Graph, error) {
	b := registry.NewBuilder()
	if err := samples.Register(b, rc, names); err != nil {
		return nil, err
	}
	return b.Build()
}

func (s *Server) Datastore() *datastore.Datastore {
	return s.datastore
}

// Serve reads the device state into the datastore and serves the metrics
// endpoint until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	if s.config.Prometheus != nil {
		go func() {
			errCh <- s.ServeHTTP()
		}()
	}

	if err := s.datastore.Reconcile(ctx); err != nil {
		return fmt.Errorf("initial reconcile failed: %w", err)
	}
	s.ready.Store(true)
	log.Infof("ready...")

	select {
	case <-ctx.Done():
		return nil
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) ServeHTTP() error {
	s.router.Handle("/metrics", promhttp.HandlerFor(s.reg, promhttp.HandlerOpts{}))
	s.router.HandleFunc("/healthz", s.healthz).Methods(http.MethodGet)
	s.reg.MustRegister(collectors.NewGoCollector())
	s.reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	s.httpSrv = &http.Server{
		Addr:         s.config.Prometheus.Address,
		Handler:      s.router,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}
	log.Infof("starting HTTP server on %s", s.config.Prometheus.Address)
	err := s.httpSrv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Errorf("HTTP server stopped: %v", err)
		return err
	}
	return nil
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	fmt.Fprintln(w, "ok")
}

func (s *Server) Stop() {
	s.ready.Store(false)
	if s.httpSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			log.Errorf("HTTP server shutdown: %v", err)
		}
	}
	if s.datastore != nil {
		s.datastore.Close()
	}
	if s.device != nil {
		s.device.Close()
	}
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Errorf("closing mapping store: %v", err)
		}
	}
	s.cfn()
}
