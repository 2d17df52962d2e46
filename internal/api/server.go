// Package api serves the packer over HTTP.
package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/labstack/echo/v5"
	"github.com/labstack/echo/v5/middleware"

	"github.com/psp-tools/psp-packer/internal/logger"
	"github.com/psp-tools/psp-packer/internal/version"
	"github.com/psp-tools/psp-packer/pkg/psp"
)

// DefaultMaxBodySize bounds request bodies when Config leaves it zero.
const DefaultMaxBodySize int64 = 64 << 20

const HeaderPSPKind = "X-Psp-Kind"

type Config struct {
	MaxBodySize int64
	// Tags applies to requests that do not pass their own.
	Tags *psp.Tags
	// Keys overrides the per-request key source. Tests use it for
	// reproducible output.
	Keys psp.KeySource
	Log  logger.Logger
}

type Server struct {
	cfg Config
	log logger.Logger
}

func NewServer(cfg Config) *Server {
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	log := cfg.Log
	if log == nil {
		log = logger.Discard()
	}
	return &Server{cfg: cfg, log: log}
}

func (s *Server) Register(e *echo.Echo) {
	e.GET("/healthz", s.handleHealth)
	e.POST("/v1/pack", s.handlePack)
	e.POST("/v1/inspect", s.handleInspect)
}

// NewEcho returns an echo instance with the standard middleware and the
// server's routes.
func NewEcho(s *Server) *echo.Echo {
	e := echo.New()
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	s.Register(e)
	return e
}

func (s *Server) handleHealth(c *echo.Context) error {
	return writeJSON(c, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": version.String(),
	})
}

func (s *Server) handlePack(c *echo.Context) error {
	id := requestID(c)
	tags, err := queryTags(c, s.cfg.Tags)
	if err != nil {
		return writeBadRequest(c, err)
	}
	body, err := s.readBody(c)
	if err != nil {
		return s.writeBodyError(c, err)
	}

	log := s.log.With("request_id", id)
	packed, err := psp.Pack(body, psp.Options{Tags: tags, Keys: s.cfg.Keys})
	if err != nil {
		log.Warn("pack failed", "size", len(body), "error", err)
		return writePackError(c, err)
	}
	log.Info("packed", "kind", packed.Kind.String(), "size", len(body), "packed_size", packed.Size())

	h := c.Response().Header()
	h.Set(HeaderPSPKind, kindName(packed.Kind))
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, packed.Bytes())
}

func (s *Server) handleInspect(c *echo.Context) error {
	requestID(c)
	tags, err := queryTags(c, s.cfg.Tags)
	if err != nil {
		return writeBadRequest(c, err)
	}
	body, err := s.readBody(c)
	if err != nil {
		return s.writeBodyError(c, err)
	}
	report, err := psp.Inspect(body, tags)
	if err != nil {
		return writePackError(c, err)
	}
	return writeJSON(c, http.StatusOK, report)
}

func (s *Server) readBody(c *echo.Context) ([]byte, error) {
	r := c.Request()
	if r.ContentLength > s.cfg.MaxBodySize {
		return nil, &http.MaxBytesError{Limit: s.cfg.MaxBodySize}
	}
	return io.ReadAll(http.MaxBytesReader(c.Response(), r.Body, s.cfg.MaxBodySize))
}

func (s *Server) writeBodyError(c *echo.Context, err error) error {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		msg := "request body exceeds " + strconv.FormatInt(tooBig.Limit, 10) + " bytes"
		return writeError(c, http.StatusRequestEntityTooLarge, "request_too_large", msg, 0)
	}
	return writeBadRequest(c, err)
}

// requestID echoes the caller's request id or assigns a new one.
func requestID(c *echo.Context) string {
	id := c.Request().Header.Get(echo.HeaderXRequestID)
	if id == "" {
		id = uuid.NewString()
	}
	c.Response().Header().Set(echo.HeaderXRequestID, id)
	return id
}

func queryTags(c *echo.Context, def *psp.Tags) (*psp.Tags, error) {
	tag, oeTag := c.QueryParam("tag"), c.QueryParam("oe_tag")
	if tag == "" && oeTag == "" {
		return def, nil
	}
	if tag == "" || oeTag == "" {
		return nil, newInvalidRequest("tag and oe_tag must be given together")
	}
	t, err := psp.ParseTags(tag, oeTag)
	if err != nil {
		return nil, newInvalidRequest(err.Error())
	}
	return &t, nil
}

func writeJSON(c *echo.Context, status int, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Blob(status, echo.MIMEApplicationJSON, b)
}

func kindName(k psp.Kind) string {
	b, err := k.MarshalText()
	if err != nil {
		return ""
	}
	return string(b)
}
