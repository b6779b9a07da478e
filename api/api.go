package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/TFMV/tabmatch/internal/wizard"
	"github.com/TFMV/tabmatch/pkg/core"
	"github.com/TFMV/tabmatch/pkg/mapping"
	"github.com/TFMV/tabmatch/pkg/plugin"
	"github.com/TFMV/tabmatch/pkg/writers"
	"github.com/TFMV/tabmatch/version"
)

// ServerOptions configures the HTTP server.
type ServerOptions struct {
	Port    string
	Prefork bool

	// Plugins backs the /plugins listing. May be nil.
	Plugins *plugin.Registry
	Logger  *zap.Logger
}

// Server holds the Fiber app instance
type Server struct {
	app  *fiber.App
	opts ServerOptions
	log  *zap.Logger
}

// NewServer initializes a new Fiber instance with the tabmatch routes.
func NewServer(opts ServerOptions) *Server {
	if opts.Port == "" {
		opts.Port = "3000"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	app := fiber.New(fiber.Config{
		IdleTimeout:  10 * time.Second,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    64 * 1024 * 1024,
		Prefork:      opts.Prefork,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())

	s := &Server{app: app, opts: opts, log: opts.Logger}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"service": "tabmatch API",
			"version": version.Version,
			"build":   version.BuildDate,
			"time":    time.Now().UTC().Format(time.RFC3339),
		})
	})

	app.Get("/plugins", s.handlePlugins)
	app.Post("/compare", s.handleCompare)

	return s
}

// GetApp exposes the Fiber app, mainly for app.Test in tests.
func (s *Server) GetApp() *fiber.App {
	return s.app
}

// Start listens on the configured port until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("tabmatch API is running", zap.String("port", s.opts.Port))
	return s.app.Listen(":" + s.opts.Port)
}

// Shutdown stops the server, waiting for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

type pluginInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Commands    []string `json:"commands"`
}

func (s *Server) handlePlugins(c *fiber.Ctx) error {
	list := []pluginInfo{}
	if s.opts.Plugins != nil {
		for _, p := range s.opts.Plugins.All() {
			list = append(list, pluginInfo{Name: p.Name(), Description: p.Description(), Commands: p.Commands()})
		}
	}
	return c.JSON(list)
}

// handleCompare accepts two uploaded files plus key columns and answers with
// the selected rows, projected onto File A's headers.
func (s *Server) handleCompare(c *fiber.Ctx) error {
	dir := filepath.Join(os.TempDir(), "tabmatch-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return s.fail(c, &core.IOError{Op: "create", Path: dir, Err: err})
	}
	defer os.RemoveAll(dir)

	pathA, err := saveUpload(c, "fileA", dir)
	if err != nil {
		return s.fail(c, err)
	}
	pathB, err := saveUpload(c, "fileB", dir)
	if err != nil {
		return s.fail(c, err)
	}

	kind, err := writers.ParseKind(c.FormValue("export", string(writers.KindMatched)))
	if err != nil {
		return s.fail(c, &core.ValidationError{Field: "export", Message: err.Error()})
	}
	format := c.FormValue("format", writers.FormatCSV)
	if format != "json" && !writers.DefaultFactory.Supports(format) {
		return s.fail(c, &core.ValidationError{Field: "format", Message: fmt.Sprintf("unsupported format %q", format)})
	}

	ctx := c.UserContext()
	tableA, tableB, result, err := wizard.Compare(ctx, pathA, pathB, c.FormValue("keysA"), c.FormValue("keysB"))
	if err != nil {
		return s.fail(c, err)
	}

	m := mapping.Identity(tableA.Headers, tableB.Headers)
	if raw := c.FormValue("mapping"); raw != "" {
		var overrides map[string]string
		if err := json.Unmarshal([]byte(raw), &overrides); err != nil {
			return s.fail(c, &core.ValidationError{Field: "mapping", Message: "must be a JSON object of File A field to File B field"})
		}
		for a, b := range overrides {
			m[a] = b
		}
	}
	if err := mapping.Validate(m, tableA.Headers, tableB.Headers); err != nil {
		return s.fail(c, err)
	}

	rows, err := kind.Rows(result, tableB)
	if err != nil {
		return s.fail(c, err)
	}

	s.log.Info("Compared uploads",
		zap.String("file_a", filepath.Base(pathA)),
		zap.String("file_b", filepath.Base(pathB)),
		zap.Int("matched", len(result.Matched)),
		zap.Int("unmatched", len(result.Unmatched)))

	if format == "json" {
		return c.JSON(fiber.Map{
			"matched":   len(result.Matched),
			"unmatched": len(result.Unmatched),
			"total":     result.Total(),
			"export":    kind,
			"headers":   tableA.Headers,
			"rows":      mapping.ProjectAll(rows, m, tableA.Headers),
		})
	}

	name := writers.OutputName(kind, format, time.Now())
	out := filepath.Join(dir, name)
	if err := writers.Export(ctx, format, rows, m, tableA.Headers, out); err != nil {
		return s.fail(c, err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return s.fail(c, &core.IOError{Op: "read", Path: out, Err: err})
	}

	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	c.Set("X-Matched-Rows", fmt.Sprint(len(result.Matched)))
	c.Set("X-Unmatched-Rows", fmt.Sprint(len(result.Unmatched)))
	if format == writers.FormatCSV {
		c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	} else {
		c.Set(fiber.HeaderContentType, fiber.MIMEOctetStream)
	}
	return c.Send(data)
}

// saveUpload stores the multipart file field under dir, keeping its extension
// so the reader can be chosen from it.
func saveUpload(c *fiber.Ctx, field, dir string) (string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return "", &core.ValidationError{Field: field, Message: "file upload is required"}
	}
	path := filepath.Join(dir, field+"-"+filepath.Base(fh.Filename))
	if err := c.SaveFile(fh, path); err != nil {
		return "", &core.IOError{Op: "save", Path: path, Err: err}
	}
	return path, nil
}

func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		s.log.Error("Compare request failed", zap.Error(err))
	} else {
		s.log.Warn("Rejected compare request", zap.Error(err))
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	var formatErr *core.FormatError
	var validationErr *core.ValidationError
	switch {
	case errors.As(err, &formatErr):
		return fiber.StatusUnsupportedMediaType
	case errors.As(err, &validationErr):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}
