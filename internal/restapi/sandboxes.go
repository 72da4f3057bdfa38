package restapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/asbx/agent-sandbox/sandbox"
	"github.com/asbx/agent-sandbox/vfs"
)

// createSandboxRequest is the body of POST /api/sandbox.
type createSandboxRequest struct {
	ID               string            `json:"id,omitempty"`
	MaxTotalSize     int               `json:"maxTotalSize,omitempty"`
	MaxFileSize      int               `json:"maxFileSize,omitempty"`
	MaxNodeCount     int               `json:"maxNodeCount,omitempty"`
	WorkingDirectory string            `json:"workingDirectory,omitempty"`
	Environment      map[string]string `json:"environment,omitempty"`
}

// sandboxSummary is the JSON projection of a sandbox returned by create,
// get, and list.
type sandboxSummary struct {
	ID               string    `json:"id"`
	FileCount        int       `json:"fileCount"`
	TotalSize        int       `json:"totalSize"`
	CommandCount     int       `json:"commandCount"`
	CurrentDirectory string    `json:"currentDirectory"`
	CreatedAt        time.Time `json:"createdAt"`
	LastActivityAt   time.Time `json:"lastActivityAt"`
}

func toSummary(stats sandbox.Stats) sandboxSummary {
	return sandboxSummary{
		ID:               stats.ID,
		FileCount:        stats.FileCount,
		TotalSize:        stats.TotalSize,
		CommandCount:     stats.CommandCount,
		CurrentDirectory: stats.CurrentDirectory,
		CreatedAt:        stats.CreatedAt,
		LastActivityAt:   stats.LastActivityAt,
	}
}

func (s *Server) createSandbox(c echo.Context) error {
	var req createSandboxRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	opts := sandbox.DefaultOptions()

	if req.MaxTotalSize > 0 {
		opts.MaxTotalSize = req.MaxTotalSize
	}

	if req.MaxFileSize > 0 {
		opts.MaxFileSize = req.MaxFileSize
	}

	if req.MaxNodeCount > 0 {
		opts.MaxNodeCount = req.MaxNodeCount
	}

	if req.WorkingDirectory != "" {
		opts.WorkingDirectory = req.WorkingDirectory
	}

	if req.Environment != nil {
		opts.Environment = req.Environment
	}

	sb, err := s.manager.Create(req.ID, opts)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, toSummary(sb.Stats()))
}

func (s *Server) listSandboxes(c echo.Context) error {
	stats := s.manager.AllStats()

	summaries := make([]sandboxSummary, 0, len(stats))
	for _, st := range stats {
		summaries = append(summaries, toSummary(st))
	}

	return c.JSON(http.StatusOK, summaries)
}

func (s *Server) lookup(c echo.Context) (*sandbox.Sandbox, error) {
	id := c.Param("id")

	sb, ok := s.manager.Get(id)
	if !ok {
		return nil, echo.NewHTTPError(http.StatusNotFound, "no sandbox with id "+id)
	}

	return sb, nil
}

func (s *Server) getSandbox(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toSummary(sb.Stats()))
}

func (s *Server) deleteSandbox(c echo.Context) error {
	id := c.Param("id")

	if !s.manager.Destroy(id) {
		return echo.NewHTTPError(http.StatusNotFound, "no sandbox with id "+id)
	}

	return c.NoContent(http.StatusNoContent)
}

type execRequest struct {
	Command string `json:"command"`
}

func (s *Server) execCommand(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	var req execRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	result, err := sb.Execute(req.Command)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) getHistory(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, sb.History())
}

func (s *Server) createSnapshot(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	snap, err := sb.CreateSnapshot()
	if err != nil {
		return err
	}

	snapshotID := s.snapshots.put(snap)

	return c.JSON(http.StatusOK, map[string]any{
		"snapshotId":       snapshotID,
		"currentDirectory": snap.CurrentDirectory,
		"environment":      snap.Environment,
		"createdAt":        snap.CreatedAt,
		"sizeBytes":        len(snap.VFS),
		"headerBytes":      vfs.SnapshotSizeHeader(),
	})
}

func (s *Server) restoreSnapshot(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	snapshotID := c.QueryParam("snapshotId")

	snap, ok := s.snapshots.get(snapshotID)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "no snapshot with id "+snapshotID)
	}

	if err := sb.RestoreSnapshot(snap); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toSummary(sb.Stats()))
}

func (s *Server) getStats(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, toSummary(sb.Stats()))
}
