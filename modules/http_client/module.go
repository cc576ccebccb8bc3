package http_client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/vk/anvil/internal/ctxlog"
	"github.com/vk/anvil/internal/element"
	"github.com/vk/anvil/internal/registry"
	"github.com/vk/anvil/internal/task"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Get is the <get> task. The body is written to Dest, stored in Property,
// or both.
type Get struct {
	task.Base
	Src      string        `anvil:"src,attr,required" validate:"string(nonempty)"`
	Dest     string        `anvil:"dest,attr"`
	Property string        `anvil:"property,attr"`
	Timeout  time.Duration `anvil:"timeout,attr"`
}

// SetDefaults implements element.Defaulter.
func (g *Get) SetDefaults() {
	g.Base.SetDefaults()
	g.Timeout = DefaultTimeout
}

// Execute performs the download.
func (g *Get) Execute(ctx context.Context, _ *task.Runtime) error {
	if g.Dest == "" && g.Property == "" {
		return fmt.Errorf("either dest or property must be set")
	}

	logger := ctxlog.FromContext(ctx)
	logger.Debug("Making HTTP request.", "url", g.Src, "timeout", g.Timeout)

	client := newClient(g.Timeout)
	defer client.Close()

	resp, err := client.R().SetContext(ctx).Get(g.Src)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	logger.Debug("Received HTTP response.", "status", resp.Status())
	if resp.IsError() {
		return fmt.Errorf("unable to download %s: %s", g.Src, resp.Status())
	}

	body := resp.String()
	if g.Dest != "" {
		dest := g.Dest
		if !filepath.IsAbs(dest) && g.Project.BaseDir != "" {
			dest = filepath.Join(g.Project.BaseDir, dest)
		}
		if err := os.WriteFile(dest, []byte(body), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", dest, err)
		}
	}
	if g.Property != "" {
		if err := g.Project.Properties.Set(g.Property, body); err != nil {
			return fmt.Errorf("cannot set property: %w", err)
		}
	}
	g.Detail("Retrieved %s (%s).", g.Src, humanize.Bytes(uint64(len(body))))
	return nil
}

// Register registers the task with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterTask("get", func() element.Element { return new(Get) })
}
