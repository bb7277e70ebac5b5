package handlers

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"balcao/internal/domain/backup"
	"balcao/pkg/logger"
)

// BackupHandler serves full-database export and restore.
type BackupHandler struct {
	BaseHandler
	backups *backup.Service
}

// NewBackupHandler creates the backup handler.
func NewBackupHandler(backups *backup.Service) *BackupHandler {
	return &BackupHandler{backups: backups}
}

// Export streams a compressed snapshot of the whole database.
func (h *BackupHandler) Export(c *gin.Context) {
	filename := fmt.Sprintf("balcao-%s.json.zst", time.Now().Format("2006-01-02-150405"))
	c.Header("Content-Type", "application/zstd")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := h.backups.Export(c.Request.Context(), c.Writer); err != nil {
		// Headers are already out; all we can do is log and drop the stream.
		logger.Error(c.Request.Context(), "backup export failed", "error", err)
	}
}

// Import restores the database from an uploaded snapshot, replacing all data.
func (h *BackupHandler) Import(c *gin.Context) {
	if err := h.backups.Import(c.Request.Context(), c.Request.Body); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "backup restored")
}
