package library

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"quranbot/internal/logger"
)

// Library is the ordered list of recitation files the bot streams from. It
// is scanned once at startup; the state store positions itself by index into
// this list.
type Library struct {
	dir   string
	files []string
}

// Scan lists the .mp3 files in dir whose names start with a 3-digit surah
// number, sorted by filename so list order follows surah order.
func Scan(dir string) (*Library, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio directory %s: %w", dir, err)
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.EqualFold(filepath.Ext(name), ".mp3") {
			continue
		}
		if SurahNumber(name) == 0 {
			logger.Warn().Str("file", name).Msg("skipping file without a surah number prefix")
			continue
		}
		files = append(files, name)
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("no recitation files found in %s", dir)
	}

	sort.Strings(files)
	logger.Info().Str("dir", dir).Int("files", len(files)).Msg("recitation library scanned")

	return &Library{dir: dir, files: files}, nil
}

// Files returns the ordered filenames, as consumed by the state store's
// surah lookup.
func (l *Library) Files() []string {
	out := make([]string, len(l.files))
	copy(out, l.files)
	return out
}

func (l *Library) Len() int {
	return len(l.files)
}

// FileAt returns the filename at index. Out-of-range indexes fall back to
// the first file.
func (l *Library) FileAt(index int) string {
	if len(l.files) == 0 {
		return ""
	}
	if index < 0 || index >= len(l.files) {
		index = 0
	}
	return l.files[index]
}

// PathAt returns the absolute path of the file at index.
func (l *Library) PathAt(index int) string {
	name := l.FileAt(index)
	if name == "" {
		return ""
	}
	return filepath.Join(l.dir, name)
}

// SurahNumber parses the 3-digit prefix of a recitation filename. Returns 0
// when the name does not carry one.
func SurahNumber(filename string) int {
	base := filepath.Base(filename)
	if len(base) < 3 {
		return 0
	}
	n, err := strconv.Atoi(base[:3])
	if err != nil || n < 1 || n > SurahCount {
		return 0
	}
	return n
}

// DisplayName renders a filename as "Surah 001 - Al-Fatihah" for embeds and
// the persisted song name.
func DisplayName(filename string) string {
	n := SurahNumber(filename)
	if n == 0 {
		return strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	}
	return fmt.Sprintf("Surah %03d - %s", n, SurahName(n))
}
