package printer

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// GcodeFile is one entry of the printer's stored file inventory.
type GcodeFile struct {
	Path        string
	Name        string
	Size        int64
	LayerHeight float64
	Modified    time.Time
	FilamentMM  int64
}

// SizeMB reports the file size in mebibytes.
func (f GcodeFile) SizeMB() float64 {
	return float64(f.Size) / (1 << 20)
}

// ParseFileInfo decodes the firmware's packed inventory string. Entries
// are semicolon-separated records of colon-separated fields:
//
//	path:name:sizeBytes:layerHeight:unixTime:filamentMM
//
// Records that are truncated or carry unparseable numbers are skipped
// rather than failing the whole listing.
func ParseFileInfo(blob string) []GcodeFile {
	var files []GcodeFile
	for _, entry := range strings.Split(blob, ";") {
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 6 {
			continue
		}
		size, err := strconv.ParseInt(parts[2], 10, 64)
		if err != nil {
			continue
		}
		layer, err := strconv.ParseFloat(parts[3], 64)
		if err != nil {
			continue
		}
		ts, err := strconv.ParseInt(parts[4], 10, 64)
		if err != nil {
			continue
		}
		filament, err := strconv.ParseInt(parts[5], 10, 64)
		if err != nil {
			continue
		}
		files = append(files, GcodeFile{
			Path:        parts[0],
			Name:        parts[1],
			Size:        size,
			LayerHeight: layer,
			Modified:    time.Unix(ts, 0),
			FilamentMM:  filament,
		})
	}
	return files
}

// FilterFiles keeps entries whose name contains keyword, case
// insensitively. An empty keyword keeps everything.
func FilterFiles(files []GcodeFile, keyword string) []GcodeFile {
	if keyword == "" {
		return files
	}
	kw := strings.ToLower(keyword)
	var out []GcodeFile
	for _, f := range files {
		if strings.Contains(strings.ToLower(f.Name), kw) {
			out = append(out, f)
		}
	}
	return out
}

// LargerThan keeps entries above a mebibyte threshold.
func LargerThan(files []GcodeFile, mb float64) []GcodeFile {
	var out []GcodeFile
	for _, f := range files {
		if f.SizeMB() > mb {
			out = append(out, f)
		}
	}
	return out
}

// SortFiles orders entries by "size" (largest first), "time" (newest
// first), or name (case-insensitive, the default).
func SortFiles(files []GcodeFile, by string) {
	switch by {
	case "size":
		sort.Slice(files, func(i, j int) bool { return files[i].Size > files[j].Size })
	case "time":
		sort.Slice(files, func(i, j int) bool { return files[i].Modified.After(files[j].Modified) })
	default:
		sort.Slice(files, func(i, j int) bool {
			return strings.ToLower(files[i].Name) < strings.ToLower(files[j].Name)
		})
	}
}

// TotalSizeMB sums the size of all entries in mebibytes.
func TotalSizeMB(files []GcodeFile) float64 {
	var total int64
	for _, f := range files {
		total += f.Size
	}
	return float64(total) / (1 << 20)
}

// FindFile reports the entry matching name exactly.
func FindFile(files []GcodeFile, name string) (GcodeFile, bool) {
	for _, f := range files {
		if f.Name == name {
			return f, true
		}
	}
	return GcodeFile{}, false
}
