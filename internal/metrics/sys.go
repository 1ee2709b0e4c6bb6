package metrics

import (
	"io/fs"
	"path/filepath"
	"runtime"

	"github.com/dustin/go-humanize"
)

// SysHealth represents the resource usage of the export process.
type SysHealth struct {
	AllocMB           uint64
	SysMB             uint64
	NumGC             uint32
	Goroutines        int
	SnapshotFiles     int
	SnapshotDiskBytes uint64
}

// SnapshotDiskSize formats the snapshot disk usage for humans.
func (h SysHealth) SnapshotDiskSize() string {
	return humanize.IBytes(h.SnapshotDiskBytes)
}

// GetSysHealth collects runtime statistics and the size of the snapshot
// directory. A missing directory counts as empty.
func GetSysHealth(snapshotPath string) SysHealth {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	h := SysHealth{
		AllocMB:    m.Alloc / 1024 / 1024,
		SysMB:      m.Sys / 1024 / 1024,
		NumGC:      m.NumGC,
		Goroutines: runtime.NumGoroutine(),
	}
	h.SnapshotFiles, h.SnapshotDiskBytes = dirUsage(snapshotPath)
	return h
}

func dirUsage(path string) (files int, size uint64) {
	_ = filepath.WalkDir(path, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		files++
		size += uint64(info.Size())
		return nil
	})
	return files, size
}
