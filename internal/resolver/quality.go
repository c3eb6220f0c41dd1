package resolver

import (
	"fmt"

	"github.com/vmunix/fafo/internal/policy"
)

// Format is one playable rendition offered by an extractor.
// Height 0 means the extractor did not report a resolution.
type Format struct {
	Height int
	URL    string
}

// HeightLabel formats a vertical resolution as a quality label.
func HeightLabel(height int) string {
	if height <= 0 {
		return string(policy.QualityBest)
	}
	return fmt.Sprintf("%dp", height)
}

// SelectFormat picks the rendition for q: the exact target height, else
// the closest height (ties go to the lower one), else the best available.
// Best targets the tallest rendition. Returns false if formats is empty.
func SelectFormat(q policy.Quality, formats []Format) (Format, bool) {
	var usable []Format
	for _, f := range formats {
		if f.URL != "" {
			usable = append(usable, f)
		}
	}
	if len(usable) == 0 {
		return Format{}, false
	}

	target := q.Height()
	best := usable[0]
	if target == 0 {
		for _, f := range usable[1:] {
			if f.Height > best.Height {
				best = f
			}
		}
		return best, true
	}

	var found bool
	var closest Format
	for _, f := range usable {
		if f.Height <= 0 {
			continue
		}
		if !found || closer(f.Height, closest.Height, target) {
			closest = f
			found = true
		}
	}
	if found {
		return closest, true
	}
	// no rendition reported a height
	return best, true
}

func closer(h, current, target int) bool {
	dh, dc := abs(h-target), abs(current-target)
	if dh != dc {
		return dh < dc
	}
	return h < current
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
