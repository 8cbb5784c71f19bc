// Package router mounts the HTTP handlers under a versioned API prefix.
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Mounter attaches its routes to a gin router group
type Mounter interface {
	Mount(rg *gin.RouterGroup)
}

// API owns the /api/<version> group of an engine
type API struct {
	engine    *gin.Engine
	version   string
	resources []Mounter
}

// Option configures an API
type Option func(*API)

// WithVersion sets the version segment of the prefix. Defaults to "v1".
func WithVersion(version string) Option {
	return func(a *API) { a.version = version }
}

// NewAPI creates an API on engine
func NewAPI(engine *gin.Engine, opts ...Option) *API {
	a := &API{engine: engine, version: "v1"}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Add queues resources for Setup
func (a *API) Add(resources ...Mounter) *API {
	a.resources = append(a.resources, resources...)
	return a
}

// Setup mounts every queued resource under /api/<version>
func (a *API) Setup() {
	group := a.engine.Group("/api/" + a.version)
	for _, r := range a.resources {
		r.Mount(group)
	}
}

// Resource is a set of routes sharing a path prefix and middleware
type Resource struct {
	prefix     string
	middleware []gin.HandlerFunc
	routes     []route
}

type route struct {
	method, path string
	chain        []gin.HandlerFunc
}

// NewResource creates a resource mounted at prefix
func NewResource(prefix string) *Resource {
	return &Resource{prefix: prefix}
}

// Use runs middleware before every route of the resource
func (r *Resource) Use(middleware ...gin.HandlerFunc) *Resource {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Resource) GET(path string, chain ...gin.HandlerFunc) *Resource {
	return r.add(http.MethodGet, path, chain)
}

func (r *Resource) POST(path string, chain ...gin.HandlerFunc) *Resource {
	return r.add(http.MethodPost, path, chain)
}

func (r *Resource) PUT(path string, chain ...gin.HandlerFunc) *Resource {
	return r.add(http.MethodPut, path, chain)
}

func (r *Resource) DELETE(path string, chain ...gin.HandlerFunc) *Resource {
	return r.add(http.MethodDelete, path, chain)
}

func (r *Resource) add(method, path string, chain []gin.HandlerFunc) *Resource {
	r.routes = append(r.routes, route{method: method, path: path, chain: chain})
	return r
}

// Mount implements Mounter
func (r *Resource) Mount(rg *gin.RouterGroup) {
	group := rg.Group(r.prefix, r.middleware...)
	for _, rt := range r.routes {
		group.Handle(rt.method, rt.path, rt.chain...)
	}
}
