// Package router mounts the API's route groups on a gin engine under a
// versioned prefix.
package router

import (
	"net/http"
	"path"

	"github.com/gin-gonic/gin"
)

// Router collects DomainGroups and mounts them under /api/<version>.
// Middleware added with Use applies to API routes only; engine routes
// such as /health and /metrics are left alone.
type Router struct {
	engine     *gin.Engine
	apiVersion string
	middleware []gin.HandlerFunc
	groups     []*DomainGroup
}

type RouterOption func(*Router)

// WithAPIVersion sets the version segment of the prefix, "v1" by default
func WithAPIVersion(version string) RouterOption {
	return func(r *Router) { r.apiVersion = version }
}

func NewRouter(engine *gin.Engine, opts ...RouterOption) *Router {
	r := &Router{engine: engine, apiVersion: "v1"}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Prefix returns the versioned API path, e.g. /api/v1
func (r *Router) Prefix() string {
	return "/api/" + r.apiVersion
}

func (r *Router) Use(middleware ...gin.HandlerFunc) *Router {
	r.middleware = append(r.middleware, middleware...)
	return r
}

func (r *Router) Register(groups ...*DomainGroup) *Router {
	r.groups = append(r.groups, groups...)
	return r
}

// Setup mounts every registered group and returns the resulting routes
// with absolute paths.
func (r *Router) Setup() []RouteInfo {
	api := r.engine.Group(r.Prefix(), r.middleware...)
	var mounted []RouteInfo
	for _, g := range r.groups {
		g.mount(api)
		for _, info := range g.Routes() {
			info.Path = path.Join(r.Prefix(), info.Path)
			mounted = append(mounted, info)
		}
	}
	return mounted
}

// RouteInfo describes one route
type RouteInfo struct {
	Group  string `json:"group"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// DomainGroup holds the routes of one area of the API until the
// Router mounts them.
type DomainGroup struct {
	name       string
	prefix     string
	routes     []route
	middleware []gin.HandlerFunc
}

type route struct {
	method   string
	path     string
	handlers []gin.HandlerFunc
}

func NewDomainGroup(name, prefix string) *DomainGroup {
	return &DomainGroup{name: name, prefix: prefix}
}

// Use adds middleware that runs for this group's routes only
func (g *DomainGroup) Use(middleware ...gin.HandlerFunc) *DomainGroup {
	g.middleware = append(g.middleware, middleware...)
	return g
}

func (g *DomainGroup) Handle(method, p string, handlers ...gin.HandlerFunc) *DomainGroup {
	g.routes = append(g.routes, route{method: method, path: p, handlers: handlers})
	return g
}

func (g *DomainGroup) GET(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodGet, p, handlers...)
}

func (g *DomainGroup) POST(p string, handlers ...gin.HandlerFunc) *DomainGroup {
	return g.Handle(http.MethodPost, p, handlers...)
}

func (g *DomainGroup) mount(parent *gin.RouterGroup) {
	rg := parent.Group(g.prefix, g.middleware...)
	for _, rt := range g.routes {
		rg.Handle(rt.method, rt.path, rt.handlers...)
	}
}

// Routes lists the group's routes with paths relative to the API prefix
func (g *DomainGroup) Routes() []RouteInfo {
	out := make([]RouteInfo, 0, len(g.routes))
	for _, rt := range g.routes {
		out = append(out, RouteInfo{Group: g.name, Method: rt.method, Path: path.Join(g.prefix, rt.path)})
	}
	return out
}

func (g *DomainGroup) Name() string { return g.name }

func (g *DomainGroup) Prefix() string { return g.prefix }
