package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/prudhivi99/Distributed-Systems/minierp/internal/config"
	"github.com/prudhivi99/Distributed-Systems/minierp/internal/discovery"
)

// Resolver is implemented by *discovery.ConsulClient.
type Resolver interface {
	GetServiceURL(serviceName string) (string, error)
}

type Gateway struct {
	resolver Resolver
	// fallbacks are used when the resolver is missing or finds nothing
	fallbacks map[string]string
	proxies   map[string]*httputil.ReverseProxy
	mutex     sync.RWMutex
	services  map[string]string
	client    *http.Client
}

func NewGateway(resolver Resolver, fallbacks map[string]string) *Gateway {
	g := &Gateway{
		resolver:  resolver,
		fallbacks: fallbacks,
		proxies:   make(map[string]*httputil.ReverseProxy),
		services:  make(map[string]string),
		client:    &http.Client{Timeout: 2 * time.Second},
	}

	g.discoverServices()
	return g
}

func (g *Gateway) discoverServices() {
	for svc, fallback := range g.fallbacks {
		serviceURL := fallback
		if g.resolver != nil {
			found, err := g.resolver.GetServiceURL(svc)
			if err != nil {
				log.Printf("⚠️ Service %s not found: %v", svc, err)
			} else {
				serviceURL = found
			}
		}
		g.updateProxy(svc, serviceURL)
	}
}

func (g *Gateway) updateProxy(serviceName, serviceURL string) {
	g.mutex.Lock()
	defer g.mutex.Unlock()

	if g.services[serviceName] == serviceURL {
		return
	}

	target, err := url.Parse(serviceURL)
	if err != nil {
		log.Printf("❌ Invalid URL for %s: %v", serviceName, err)
		return
	}

	proxy := httputil.NewSingleHostReverseProxy(target)
	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("❌ Proxy error for %s: %v", serviceName, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"error": "service unavailable"}`)
	}

	g.proxies[serviceName] = proxy
	g.services[serviceName] = serviceURL
	log.Printf("✅ Updated route: %s → %s", serviceName, serviceURL)
}

// watchServices re-resolves every service until ctx is done.
func (g *Gateway) watchServices(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.discoverServices()
		}
	}
}

func (g *Gateway) getProxy(serviceName string) *httputil.ReverseProxy {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	return g.proxies[serviceName]
}

// Proxy returns a handler forwarding requests to serviceName.
func (g *Gateway) Proxy(serviceName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		proxy := g.getProxy(serviceName)
		if proxy == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": serviceName + " unavailable"})
			return
		}
		log.Printf("🔀 Routing %s %s → %s", c.Request.Method, c.Request.URL.Path, serviceName)
		proxy.ServeHTTP(c.Writer, c.Request)
	}
}

func (g *Gateway) HealthCheck(c *gin.Context) {
	g.mutex.RLock()
	services := make(map[string]string, len(g.services))
	for name, u := range g.services {
		services[name] = u
	}
	g.mutex.RUnlock()

	statuses := make(map[string]string)
	allHealthy := true

	for name, u := range services {
		resp, err := g.client.Get(u + "/health")
		if err != nil || resp.StatusCode != http.StatusOK {
			statuses[name] = "unhealthy"
			allHealthy = false
		} else {
			statuses[name] = "healthy"
		}
		if resp != nil {
			resp.Body.Close()
		}
	}

	status := "healthy"
	if !allHealthy {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   status,
		"service":  "api-gateway",
		"services": statuses,
	})
}

func (g *Gateway) ListServices(c *gin.Context) {
	g.mutex.RLock()
	defer g.mutex.RUnlock()
	c.JSON(http.StatusOK, gin.H{"services": g.services})
}

func newRouter(g *Gateway, serviceName string) *gin.Engine {
	router := gin.Default()

	router.GET("/health", g.HealthCheck)
	router.GET("/services", g.ListServices)

	proxy := g.Proxy(serviceName)
	for _, prefix := range []string{"/products", "/customers", "/orders"} {
		router.Any(prefix, proxy)
		router.Any(prefix+"/*path", proxy)
	}
	return router
}

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var resolver Resolver
	if cfg.ConsulEnabled {
		consul, err := discovery.NewConsulClient(cfg.ConsulHost, cfg.ConsulPort)
		if err != nil {
			log.Printf("⚠️ Failed to connect to Consul, using DNS fallback: %v", err)
		} else {
			resolver = consul
		}
	}

	gateway := NewGateway(resolver, map[string]string{cfg.ServiceName: cfg.UpstreamURL})
	go gateway.watchServices(ctx, 10*time.Second)

	server := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.GatewayPort),
		Handler: newRouter(gateway, cfg.ServiceName),
	}

	go func() {
		<-ctx.Done()
		log.Println("Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	log.Printf("🚀 API Gateway starting on http://0.0.0.0:%d", cfg.GatewayPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Gateway failed: %v", err)
	}
}
