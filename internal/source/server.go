package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
)

// Server serves the presentation page at / and local content under
// /content/ from one loopback origin, so the page can script the frame.
type Server struct {
	mu     sync.RWMutex
	page   []byte
	router *gin.Engine
	srv    *http.Server
	ln     net.Listener
}

func NewServer(content *Content) *Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{router: r}
	r.GET("/", s.handlePage)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if content != nil && content.Root != "" {
		r.Static("/content", content.Root)
	}
	return s
}

// SetPage replaces the presentation HTML.
func (s *Server) SetPage(html []byte) {
	s.mu.Lock()
	s.page = html
	s.mu.Unlock()
}

func (s *Server) handlePage(c *gin.Context) {
	s.mu.RLock()
	page := s.page
	s.mu.RUnlock()
	if page == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "presentation not ready"})
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

// Start listens on an ephemeral loopback port.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.ln = ln
	s.srv = &http.Server{Handler: s.router}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			gin.DefaultErrorWriter.Write([]byte("[!] content server: " + err.Error() + "\n"))
		}
	}()
	return nil
}

// URL is the base address, e.g. http://127.0.0.1:53211.
func (s *Server) URL() string {
	if s.ln == nil {
		return ""
	}
	return "http://" + s.ln.Addr().String()
}

// PageURL is the address of the presentation page.
func (s *Server) PageURL() string {
	return s.URL() + "/"
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Close(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}
