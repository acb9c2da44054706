package transcoder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.uber.org/zap"

	"txconv/pkg/textenc"
)

// Run transcodes root, or every regular file below it when root is a
// directory, using a pool of opts.Workers goroutines. Files whose encoding
// cannot be detected, and empty files, are skipped rather than failed.
func Run(ctx context.Context, root string, opts BatchOptions, updates chan<- ProgressUpdate) (Summary, []FileReport, error) {
	summary := Summary{}
	var reports []FileReport

	if err := opts.Options.validate(); err != nil {
		return summary, nil, err
	}
	if !opts.InPlace && opts.OutputDir == "" {
		return summary, nil, fmt.Errorf("output directory required when not converting in place")
	}

	info, err := os.Stat(root)
	if err != nil {
		return summary, nil, err
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return summary, nil, err
	}

	var outputAbs string
	var outputInsideRoot bool
	if !opts.InPlace {
		if absOut, outErr := filepath.Abs(opts.OutputDir); outErr == nil {
			outputAbs = absOut
			absRootClean := filepath.Clean(absRoot)
			outputClean := filepath.Clean(outputAbs)
			if outputClean != absRootClean && isWithin(outputClean, absRootClean) {
				outputInsideRoot = true
			}
		}
	}

	jobs := make(chan Job)
	results := make(chan Result)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			worker(ctx, jobs, results, opts, updates)
		}()
	}

	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		for res := range results {
			summary.Total++
			var update ProgressUpdate
			switch {
			case res.Skipped:
				summary.Skipped++
				update.SkippedDelta = 1
			case res.Err != nil:
				summary.Errors++
				update.ErrorDelta = 1
			default:
				summary.Processed++
				update.ProcessedDelta = 1
			}
			summary.Lines += res.Stats.Lines
			summary.Chars += res.Stats.Chars
			update.LinesDelta = res.Stats.Lines
			update.CharsDelta = res.Stats.Chars
			if updates != nil {
				updates <- update
			}
			reports = append(reports, FileReport{
				Path:    res.Display,
				Source:  res.Stats.Source,
				Skipped: res.Skipped,
				Err:     res.Err,
				Stats:   res.Stats,
			})
		}
	}()

	producerErr := make(chan error, 1)
	go func() {
		defer close(jobs)

		sendJob := func(job Job) error {
			if ctx == nil {
				jobs <- job
				return nil
			}
			select {
			case jobs <- job:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if !info.IsDir() {
			job := Job{
				Path:    absRoot,
				RelPath: filepath.Base(absRoot),
				Display: filepath.Base(absRoot),
			}
			producerErr <- sendJob(job)
			return
		}

		fsys := os.DirFS(absRoot)
		err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if d.IsDir() {
				if outputInsideRoot {
					fullDir := filepath.Join(absRoot, path)
					if isWithin(fullDir, outputAbs) {
						return fs.SkipDir
					}
				}
				return nil
			}
			if !d.Type().IsRegular() || isTempName(d.Name()) {
				return nil
			}

			return sendJob(Job{
				Path:    filepath.Join(absRoot, path),
				RelPath: path,
				Display: path,
			})
		})
		producerErr <- err
	}()

	wg.Wait()
	close(results)
	<-collectorDone

	if err := <-producerErr; err != nil {
		return summary, reports, err
	}

	if ctx != nil {
		if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
			return summary, reports, err
		}
	}

	return summary, reports, nil
}

func worker(ctx context.Context, jobs <-chan Job, results chan<- Result, opts BatchOptions, updates chan<- ProgressUpdate) {
	for job := range jobs {
		if ctx != nil {
			if err := ctx.Err(); err != nil {
				return
			}
		}

		if updates != nil {
			updates <- ProgressUpdate{TotalDelta: 1}
		}

		res := Result{Path: job.Path, RelPath: job.RelPath, Display: job.Display}

		destPath, err := resolveDestination(job, opts)
		if err != nil {
			res.Err = err
			results <- res
			continue
		}

		res.Stats, res.Err = ConvertFile(job.Path, destPath, opts.Options, false)
		if isSkippable(res.Err) {
			res.Skipped = true
			Logger().Info("skipping file", zap.String("path", job.Display), zap.Error(res.Err))
		} else if res.Err != nil {
			Logger().Warn("conversion failed", zap.String("path", job.Display), zap.Error(res.Err))
		}
		results <- res
	}
}

// ConvertFile transcodes srcPath into destPath through a temporary file in
// the destination directory, so destPath may equal srcPath. The temporary
// file replaces destPath on success; after a failure that happened once
// output had started it is kept only if commitPartial is set.
func ConvertFile(srcPath, destPath string, opts Options, commitPartial bool) (Stats, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return Stats{}, err
	}
	defer src.Close()

	srcInfo, err := src.Stat()
	if err != nil {
		return Stats{}, err
	}

	destDir := filepath.Dir(destPath)
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return Stats{}, err
	}

	tmpFile, err := os.CreateTemp(destDir, tempPattern)
	if err != nil {
		return Stats{}, err
	}
	defer os.Remove(tmpFile.Name())

	if err := tmpFile.Chmod(srcInfo.Mode()); err != nil {
		_ = tmpFile.Close()
		return Stats{}, err
	}

	stats, convErr := Transcode(src, tmpFile, opts)
	if convErr != nil && (!commitPartial || !stats.Source.Concrete()) {
		_ = tmpFile.Close()
		return stats, convErr
	}

	if err := tmpFile.Sync(); err != nil {
		_ = tmpFile.Close()
		return stats, err
	}
	if err := tmpFile.Close(); err != nil {
		return stats, err
	}

	// Release the source before it may be replaced.
	_ = src.Close()
	if err := replaceFile(tmpFile.Name(), destPath); err != nil {
		return stats, err
	}

	return stats, convErr
}

const tempPattern = "txconv-*.tmp"

// isTempName matches files created from tempPattern by concurrent workers.
func isTempName(name string) bool {
	ok, _ := filepath.Match(tempPattern, name)
	return ok
}

func isSkippable(err error) bool {
	return errors.Is(err, textenc.ErrAmbiguousEncoding) || errors.Is(err, textenc.ErrEmptyInput)
}

func resolveDestination(job Job, opts BatchOptions) (string, error) {
	if opts.InPlace {
		return job.Path, nil
	}
	if opts.OutputDir == "" {
		return "", fmt.Errorf("output directory required when not using --inplace")
	}

	destPath := filepath.Join(opts.OutputDir, job.RelPath)
	if abs, err := filepath.Abs(destPath); err == nil && filepath.Clean(abs) == filepath.Clean(job.Path) {
		return "", fmt.Errorf("output path resolves to input path; use --inplace or a different --output")
	}

	return destPath, nil
}

func replaceFile(tmpPath, destPath string) error {
	if err := os.Rename(tmpPath, destPath); err == nil {
		return nil
	}
	if err := os.Remove(destPath); err != nil && !os.IsNotExist(err) {
		return err
	}
	return os.Rename(tmpPath, destPath)
}

func isWithin(path string, root string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	if strings.HasPrefix(rel, "..") {
		return false
	}
	return true
}
