package restapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/asbx/agent-sandbox/vfs"
)

func (s *Server) readFile(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	path := c.QueryParam("path")

	content, readErr := sb.FileSystem().ReadFileString(path)
	if readErr != nil {
		return echo.NewHTTPError(http.StatusNotFound, readErr.Error())
	}

	return c.JSON(http.StatusOK, map[string]string{"path": vfs.Normalize(path), "content": content})
}

type writeFileRequest struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// writeFile goes through Sandbox.WriteFile, the quota-checked direct
// write path, so a request that would blow a quota is rejected with
// 400 via the shared error handler (spec.md §6/§7).
func (s *Server) writeFile(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	var req writeFileRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body: "+err.Error())
	}

	if err := sb.WriteFile(req.Path, []byte(req.Content)); err != nil {
		return err
	}

	return c.NoContent(http.StatusOK)
}

func (s *Server) listDirectory(c echo.Context) error {
	sb, err := s.lookup(c)
	if err != nil {
		return err
	}

	path := c.QueryParam("path")
	if path == "" {
		path = "/"
	}

	names, lsErr := sb.FileSystem().ListDirectory(path)
	if lsErr != nil {
		return echo.NewHTTPError(http.StatusNotFound, lsErr.Error())
	}

	return c.JSON(http.StatusOK, names)
}
