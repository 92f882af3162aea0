package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noah-isme/paatshala-go-api/internal/observability"
)

// DownloadSubmission streams one submitted file to disk under
// root/course_<id>/downloads/<student>/ and returns the local path. An
// already-downloaded file is returned as is without touching the LMS. Files
// arriving without an extension get one from content sniffing.
func (s *Scraper) DownloadSubmission(ctx context.Context, root string, courseID int, student, fileURL string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "scrape.download")
	defer span.End()
	span.SetAttributes(attribute.Int("course.id", courseID))

	name := fileNameFromURL(fileURL)
	if name == "" {
		err := fmt.Errorf("no file name in submission url")
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad_url")
		return "", err
	}

	dir := filepath.Join(root, fmt.Sprintf("course_%d", courseID), "downloads", sanitizeName(student, false))
	dest := filepath.Join(dir, sanitizeName(name, true))
	if _, err := os.Stat(dest); err == nil {
		return dest, nil
	}

	client, err := s.session.Client(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "session_unavailable")
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad_url")
		return "", err
	}
	resp, err := client.Do(req)
	if err != nil {
		observability.ScrapePages().WithLabelValues("download", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "download_failed")
		return "", fmt.Errorf("download submission: %w: %w", ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		observability.ScrapePages().WithLabelValues("download", "bad_status").Inc()
		err := fmt.Errorf("%w: download answered %d", ErrNetwork, resp.StatusCode)
		span.RecordError(err)
		span.SetStatus(codes.Error, "download_failed")
		return "", err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "mkdir_failed")
		return "", fmt.Errorf("create download dir: %w", err)
	}
	out, err := os.Create(dest)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create_failed")
		return "", fmt.Errorf("create download file: %w", err)
	}
	if _, err := out.ReadFrom(resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		observability.ScrapePages().WithLabelValues("download", "error").Inc()
		span.RecordError(err)
		span.SetStatus(codes.Error, "download_failed")
		return "", fmt.Errorf("download submission: %w: %w", ErrNetwork, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("flush download file: %w", err)
	}

	if filepath.Ext(dest) == "" {
		if mime, err := mimetype.DetectFile(dest); err == nil && mime.Extension() != "" {
			renamed := dest + mime.Extension()
			if err := os.Rename(dest, renamed); err == nil {
				dest = renamed
			}
		}
	}

	observability.ScrapePages().WithLabelValues("download", "ok").Inc()
	return dest, nil
}

// fileNameFromURL pulls the trailing path segment of a pluginfile link.
func fileNameFromURL(fileURL string) string {
	parsed, err := url.Parse(fileURL)
	if err != nil {
		return ""
	}
	name := path.Base(parsed.Path)
	if name == "." || name == "/" {
		return ""
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	return name
}

// sanitizeName reduces a student or file name to filesystem-safe runes.
// Dots survive only in file names so extensions stay intact.
func sanitizeName(name string, keepDots bool) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteRune(r)
		case r == '.' && keepDots:
			b.WriteRune(r)
		}
	}
	cleaned := strings.TrimSpace(b.String())
	if cleaned == "" {
		return "unnamed"
	}
	return cleaned
}
