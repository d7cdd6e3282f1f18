package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Brianwan04/PixBackend/common"
	"github.com/Brianwan04/PixBackend/constant"
)

// cleanupDirs are swept for expired files: staged uploads, processed
// results, and locally hosted copies.
func cleanupDirs() []string {
	return []string{
		constant.UploadStagingDir,
		constant.ProcessedDir,
		constant.PublicUploadsDir,
	}
}

// CleanDir removes regular files in dir older than retention. A missing
// directory is created instead of treated as an error.
func CleanDir(dir string, retention time.Duration) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			common.SysLog(fmt.Sprintf("directory not found, creating: %s", dir))
			return os.MkdirAll(dir, 0o755)
		}
		return err
	}

	now := time.Now()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			common.SysError(fmt.Sprintf("error handling file %s in %s: %v", entry.Name(), dir, err))
			continue
		}
		if now.Sub(info.ModTime()) > retention {
			filePath := filepath.Join(dir, entry.Name())
			if err := os.Remove(filePath); err != nil {
				common.SysError(fmt.Sprintf("failed to delete old file %s: %v", filePath, err))
				continue
			}
			common.SysLog(fmt.Sprintf("deleted old file: %s", filePath))
		}
	}
	return nil
}

// CleanupOldFiles sweeps every managed directory once.
func CleanupOldFiles() {
	retention := time.Duration(constant.FileRetentionHours) * time.Hour
	common.SysLog(fmt.Sprintf("running cleanup, retention: %dh", constant.FileRetentionHours))
	for _, dir := range cleanupDirs() {
		if err := CleanDir(dir, retention); err != nil {
			common.SysError(fmt.Sprintf("failed to clean dir %s: %v", dir, err))
		}
	}
}

// ScheduleCleanup runs an immediate sweep and then sweeps on a fixed
// interval until ctx is canceled.
func ScheduleCleanup(ctx context.Context) {
	if constant.DisableCleanup {
		common.SysLog("file cleanup disabled via DISABLE_CLEANUP=true")
		return
	}

	CleanupOldFiles()

	interval := time.Duration(constant.CleanupIntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	common.SysLog(fmt.Sprintf("scheduled file cleanup every %s (retention: %dh)", interval, constant.FileRetentionHours))

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				CleanupOldFiles()
			}
		}
	}()
}
