package main

import (
	"bufio"
	"context"
	"math/bits"
	"os"
	"slices"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// maxFiles is the number of sources a uint bitmask can track.
const maxFiles = bits.UintSize

// ingestConfig controls how codes are extracted from source dumps.
type ingestConfig struct {
	// Capacity is the expected number of codes per file, used to size the
	// bloom filters.
	Capacity uint
	// FPR is the target false positive rate of each filter.
	FPR float64
	// MinFiles is how many distinct files must list a code for it to count.
	MinFiles int
	// MinLen and MaxLen bound the accepted code length in bytes.
	MinLen, MaxLen int
	// ProgressEvery logs progress after this many lines; zero disables it.
	ProgressEvery uint64
}

// ingester finds promo codes that appear in at least MinFiles of a set of
// gzip-compressed line files. Each file is streamed twice: once into its own
// bloom filter, then again to collect codes other filters also contain.
// Filter hits are only candidates; the exact per-file bitmask decides.
type ingester struct {
	cfg ingestConfig
	lg  *zap.Logger
}

func newIngester(cfg ingestConfig, lg *zap.Logger) *ingester {
	if cfg.MinFiles < 1 {
		cfg.MinFiles = 1
	}
	if lg == nil {
		lg = zap.NewNop()
	}
	return &ingester{cfg: cfg, lg: lg}
}

// Codes returns the accepted codes sorted, upper-cased.
func (in *ingester) Codes(ctx context.Context, files []string) ([]string, error) {
	if len(files) == 0 {
		return nil, errors.New("no input files")
	}
	if len(files) > maxFiles {
		return nil, errors.Errorf("too many input files: %d > %d", len(files), maxFiles)
	}
	if in.cfg.MinFiles > len(files) {
		return nil, errors.Errorf("min files %d exceeds %d inputs", in.cfg.MinFiles, len(files))
	}

	in.lg.Info("Pass 1: building filters", zap.Int("files", len(files)))
	filters, err := in.buildFilters(ctx, files)
	if err != nil {
		return nil, errors.Wrap(err, "build filters")
	}

	in.lg.Info("Pass 2: collecting candidates")
	masks, err := in.collect(ctx, files, filters)
	if err != nil {
		return nil, errors.Wrap(err, "collect candidates")
	}

	var codes []string
	for code, mask := range masks {
		if bits.OnesCount(mask) >= in.cfg.MinFiles {
			codes = append(codes, code)
		}
	}
	slices.Sort(codes)
	return codes, nil
}

func (in *ingester) buildFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(in.cfg.Capacity, in.cfg.FPR)
			n, err := in.stream(ctx, path, "pass 1", func(code string) {
				filter.AddString(code)
			})
			if err != nil {
				return errors.Wrapf(err, "file %d", i+1)
			}
			in.lg.Info("Filter built", zap.String("file", path), zap.Uint64("codes", n))
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// collect re-reads every file and records, per code, the bit of each file
// that lists it. A code only becomes a candidate when some other filter
// also reports it, so single-file codes never enter the maps unless
// MinFiles is one.
func (in *ingester) collect(ctx context.Context, files []string, filters []*bloom.BloomFilter) (map[string]uint, error) {
	perFile := make([]map[string]uint, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, path := range files {
		g.Go(func() error {
			found := make(map[string]uint)
			bit := uint(1) << uint(i)
			n, err := in.stream(ctx, path, "pass 2", func(code string) {
				if in.cfg.MinFiles == 1 || seenElsewhere(filters, i, code) {
					found[code] |= bit
				}
			})
			if err != nil {
				return errors.Wrapf(err, "file %d", i+1)
			}
			in.lg.Info("Candidates collected",
				zap.String("file", path),
				zap.Uint64("codes", n),
				zap.Int("candidates", len(found)),
			)
			perFile[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]uint)
	for _, found := range perFile {
		for code, mask := range found {
			merged[code] |= mask
		}
	}
	return merged, nil
}

func seenElsewhere(filters []*bloom.BloomFilter, self int, code string) bool {
	for j, f := range filters {
		if j != self && f.TestString(code) {
			return true
		}
	}
	return false
}

// stream calls fn for every acceptable code in a gzip file and returns how
// many it passed.
func (in *ingester) stream(ctx context.Context, path, phase string, fn func(code string)) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer func() { _ = f.Close() }()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "gzip reader")
	}
	defer func() { _ = gz.Close() }()

	var n uint64
	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		code, ok := in.accept(scanner.Text())
		if !ok {
			continue
		}
		fn(code)
		n++
		if in.cfg.ProgressEvery > 0 && n%in.cfg.ProgressEvery == 0 {
			in.lg.Info("Progress", zap.String("phase", phase), zap.String("file", path), zap.Uint64("codes", n))
		}
	}
	if err := scanner.Err(); err != nil {
		return n, errors.Wrap(err, "scan")
	}
	return n, nil
}

func (in *ingester) accept(line string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(line))
	if code == "" {
		return "", false
	}
	if in.cfg.MinLen > 0 && len(code) < in.cfg.MinLen {
		return "", false
	}
	if in.cfg.MaxLen > 0 && len(code) > in.cfg.MaxLen {
		return "", false
	}
	return code, true
}
