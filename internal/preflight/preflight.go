package preflight

import (
	"context"

	"subremux/internal/config"
)

// minUploadFreeBytes is the free space below which the uploads volume is
// reported as low. Remux output is roughly the size of the source video.
const minUploadFreeBytes = 1 << 30

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Media directory", cfg.Paths.MediaDir, AccessRead),
		CheckDirectoryAccess("Upload directory", cfg.Paths.UploadDir, AccessReadWrite),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir, AccessReadWrite),
		CheckFreeSpace("Upload volume", cfg.Paths.UploadDir, minUploadFreeBytes),
	}
	for _, status := range CheckSystemDeps(ctx, cfg) {
		result := Result{Name: status.Name, Passed: status.Available, Detail: status.Detail}
		if status.Available {
			result.Detail = status.Path
			if status.Version != "" {
				result.Detail += " (" + status.Version + ")"
			}
		}
		results = append(results, result)
	}
	return results
}

// Failed filters results down to failing checks.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
