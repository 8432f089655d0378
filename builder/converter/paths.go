package converter

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"inkpress/builder/utils"
)

// PathInfo is everything that can be derived from a source file's relative
// path alone: its canonical URL, parent, an inferred title, an embedded
// date, and an image scale suffix.
type PathInfo struct {
	URL      string
	Parent   string
	Title    string
	HasTitle bool
	Date     *time.Time
	Scale    int
}

var (
	scalePattern = regexp.MustCompile(`^(.+?)@(\d+)x$`)
	datePattern  = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2}(-\d{2}-\d{2})?(-\d{2})?)(-(.+?))?$`)

	titleCaser = cases.Title(language.English)
)

func stripExt(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

func isIndex(p string) bool {
	return strings.EqualFold(stripExt(path.Base(p)), "index")
}

// stripTrailingIndex collapses "a/b/index.md" into "a/b".
func stripTrailingIndex(p string) string {
	if isIndex(p) {
		return path.Dir(p)
	}
	return p
}

// titleAndScale derives a display title and an optional @Nx scale suffix
// from a path's basename.
func titleAndScale(p string) (string, int) {
	base := path.Base(p)
	if isIndex(p) {
		base = path.Base(path.Dir(p))
	}

	name := stripExt(base)
	scale := 0
	if m := scalePattern.FindStringSubmatch(name); m != nil {
		scale, _ = strconv.Atoi(m[2])
		name = m[1]
	}

	return titleCaser.String(strings.ReplaceAll(name, "-", " ")), scale
}

// ParsePath derives URL, parent, title, date, and scale from a path
// relative to the content root. Filenames of the form
// "2006-01-02[-15-04[-05]]-title" contribute a date; a bare date filename
// contributes no title.
func ParsePath(relPath string) PathInfo {
	cleanPath := stripTrailingIndex(relPath)

	info := PathInfo{Parent: utils.ParentURL(cleanPath)}
	info.Title, info.Scale = titleAndScale(cleanPath)
	info.HasTitle = info.Title != ""

	base := strings.ToLower(stripExt(path.Base(cleanPath)))
	if base == "index" {
		base = ""
	}
	info.URL = utils.NormalizeURL(path.Join(path.Dir(cleanPath), base))

	if m := datePattern.FindStringSubmatch(stripExt(path.Base(cleanPath))); m != nil {
		if m[5] != "" {
			info.Title, info.Scale = titleAndScale(m[5])
		} else {
			info.Title = ""
			info.HasTitle = false
		}

		layouts := map[int]string{
			10: "2006-01-02",
			16: "2006-01-02-15-04",
			19: "2006-01-02-15-04-05",
		}
		if layout, ok := layouts[len(m[1])]; ok {
			if t, err := time.Parse(layout, m[1]); err == nil {
				info.Date = &t
			}
		}
	}

	return info
}
