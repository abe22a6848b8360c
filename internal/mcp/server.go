package mcp

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/1broseidon/areascan/internal/capture"
	"github.com/1broseidon/areascan/internal/decode"
	"github.com/1broseidon/areascan/internal/platform"
	"github.com/1broseidon/areascan/internal/selection"
)

const (
	ServerName    = "areascan"
	ServerVersion = "0.1.0"
)

// Deps are the operations the server exposes. Each interactive call holds
// Lock for its duration.
type Deps struct {
	Select   func(ctx context.Context) (platform.Rect, error)
	Outputs  func() ([]platform.Output, error)
	Capturer capture.Capturer
	Decode   func(img image.Image) ([]string, error)
	// Lock guards against concurrent overlays, including ones started by
	// other processes. Optional.
	Lock func() (release func(), err error)
	// SettleDelay is waited between an interactive selection and its
	// capture so the compositor can drop the overlay first.
	SettleDelay time.Duration
}

// Server is the MCP server for region selection and scanning.
type Server struct {
	mcpServer *mcpsdk.Server
	deps      Deps
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error

	// One overlay at a time.
	mu sync.Mutex
}

// NewServer creates a new MCP server over deps.
func NewServer(deps Deps, logger *slog.Logger) (*Server, error) {
	if deps.Select == nil || deps.Outputs == nil {
		return nil, fmt.Errorf("mcp server requires Select and Outputs")
	}
	if deps.Decode == nil {
		deps.Decode = decode.QR
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Server{deps: deps, logger: logger, sleep: sleepContext}
	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    ServerName,
			Version: ServerVersion,
		},
		nil,
	)
	s.registerTools()
	return s, nil
}

// Run starts the MCP server on stdio transport, blocking until done.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "select_region",
		Description: "Show a fullscreen overlay on every monitor and let the user drag out a rectangle. Returns the rectangle in global desktop coordinates, or selected=false when the user cancels or clicks without dragging.",
	}, s.handleSelectRegion)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "scan_region",
		Description: "Capture a screen region and decode every QR code in it. Without a region the user selects one interactively first.",
	}, s.handleScanRegion)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "list_outputs",
		Description: "List connected monitors with their position and size in global desktop coordinates.",
	}, s.handleListOutputs)
}

func (s *Server) handleSelectRegion(ctx context.Context, _ *mcpsdk.CallToolRequest, _ SelectRegionInput) (*mcpsdk.CallToolResult, SelectRegionOutput, error) {
	rect, ok, cancelled, err := s.selectRegion(ctx)
	if err != nil {
		return nil, SelectRegionOutput{}, err
	}
	if !ok {
		return nil, SelectRegionOutput{Cancelled: cancelled}, nil
	}
	region := regionFromRect(rect)
	return nil, SelectRegionOutput{Selected: true, Region: &region}, nil
}

func (s *Server) handleScanRegion(ctx context.Context, _ *mcpsdk.CallToolRequest, args ScanRegionInput) (*mcpsdk.CallToolResult, ScanRegionOutput, error) {
	if s.deps.Capturer == nil {
		return nil, ScanRegionOutput{}, fmt.Errorf("no capture backend configured")
	}

	var rect platform.Rect
	if args.Region != nil {
		rect = platform.Rect{X: args.Region.X, Y: args.Region.Y, Width: args.Region.Width, Height: args.Region.Height}
		if rect.Empty() {
			return nil, ScanRegionOutput{}, fmt.Errorf("region must have positive width and height")
		}
	} else {
		selected, ok, cancelled, err := s.selectRegion(ctx)
		if err != nil {
			return nil, ScanRegionOutput{}, err
		}
		if !ok {
			return nil, ScanRegionOutput{Cancelled: cancelled, Codes: []string{}}, nil
		}
		rect = selected
		if rect.Empty() {
			// A straight-line drag selects nothing to capture.
			region := regionFromRect(rect)
			return nil, ScanRegionOutput{Selected: true, Region: &region, Codes: []string{}}, nil
		}
		if err := s.sleep(ctx, s.deps.SettleDelay); err != nil {
			return nil, ScanRegionOutput{}, err
		}
	}

	region := regionFromRect(rect)
	out := ScanRegionOutput{Selected: true, Region: &region, Codes: []string{}}

	img, err := s.deps.Capturer.Capture(ctx, rect)
	if err != nil {
		return nil, ScanRegionOutput{}, fmt.Errorf("capture failed: %w", err)
	}
	codes, err := s.deps.Decode(img)
	if err != nil && !errors.Is(err, decode.ErrNotFound) {
		return nil, ScanRegionOutput{}, fmt.Errorf("decode failed: %w", err)
	}
	if len(codes) > 0 {
		out.Codes = codes
	}
	s.logger.Info("scan_region", "region", region, "codes", len(out.Codes))
	return nil, out, nil
}

func (s *Server) handleListOutputs(_ context.Context, _ *mcpsdk.CallToolRequest, _ ListOutputsInput) (*mcpsdk.CallToolResult, ListOutputsOutput, error) {
	outputs, err := s.deps.Outputs()
	if err != nil {
		return nil, ListOutputsOutput{}, err
	}
	out := ListOutputsOutput{Outputs: make([]OutputInfo, 0, len(outputs))}
	for _, o := range outputs {
		out.Outputs = append(out.Outputs, OutputInfo{Name: o.Name, Region: regionFromRect(o.Bounds)})
	}
	return nil, out, nil
}

// selectRegion runs one interactive session. ok is false when the user
// produced no rectangle; cancelled distinguishes an explicit abort.
func (s *Server) selectRegion(ctx context.Context) (rect platform.Rect, ok bool, cancelled bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.deps.Lock != nil {
		release, err := s.deps.Lock()
		if err != nil {
			return platform.Rect{}, false, false, err
		}
		defer release()
	}

	rect, err = s.deps.Select(ctx)
	switch {
	case err == nil:
		return rect, true, false, nil
	case errors.Is(err, selection.ErrCancelled):
		return platform.Rect{}, false, true, nil
	case errors.Is(err, selection.ErrNoSelection):
		return platform.Rect{}, false, false, nil
	default:
		return platform.Rect{}, false, false, err
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func regionFromRect(r platform.Rect) Region {
	return Region{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}
