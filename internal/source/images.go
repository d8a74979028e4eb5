package source

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"sjsage522/propertyscraper/internal/record"
	"sjsage522/propertyscraper/logger"
)

// ImageDownloader saves listing images under Dir/<listing id>/<index><ext>
type ImageDownloader struct {
	Fetcher Fetcher
	// Dir is the images directory on disk
	Dir string
	// RelDir prefixes the paths recorded on the listing, e.g. "images"
	RelDir string
}

// Download fetches every image of l and returns the relative paths of the
// files written. Failed images are skipped.
func (d *ImageDownloader) Download(ctx context.Context, l *record.Listing, stats *record.Stats) []string {
	log := logger.ForSource(string(record.CategoryListings))

	id := "unknown"
	if l.ID > 0 {
		id = strconv.FormatInt(l.ID, 10)
	}
	dir := filepath.Join(d.Dir, id)

	var saved []string
	for i, imageURL := range l.Images {
		body, err := d.Fetcher.Fetch(ctx, imageURL, stats)
		if err != nil {
			log.Warn().Err(err).Str("image", imageURL).Msg("failed to download image")
			continue
		}
		if len(body) == 0 {
			continue
		}

		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("failed to create image directory")
			return saved
		}

		name := fmt.Sprintf("%d%s", i, extension(imageURL))
		if err := os.WriteFile(filepath.Join(dir, name), body, 0o644); err != nil {
			log.Warn().Err(err).Str("image", imageURL).Msg("failed to save image")
			continue
		}

		stats.AddImages(1)
		saved = append(saved, path.Join(d.RelDir, id, name))
		log.Debug().Str("file", name).Str("listing", id).Msg("downloaded image")
	}
	return saved
}

func extension(imageURL string) string {
	p := imageURL
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" {
		return ".jpg"
	}
	return ext
}
