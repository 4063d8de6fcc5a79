package layout

import (
	"strings"

	"github.com/joseph-ayodele/docextract/constants"
	"github.com/joseph-ayodele/docextract/internal/entity"
	"github.com/joseph-ayodele/docextract/internal/textutil"
)

// GroupRegions assigns each fragment to one of six regions by its center:
// top or bottom half, then left, center or right third.
func GroupRegions(fragments []entity.TextFragment, width, height float64) map[constants.Region][]entity.TextFragment {
	out := make(map[constants.Region][]entity.TextFragment, len(constants.Regions))
	for _, r := range constants.Regions {
		out[r] = nil
	}
	for _, f := range fragments {
		r := regionOf(f, width, height)
		out[r] = append(out[r], f)
	}
	return out
}

func regionOf(f entity.TextFragment, width, height float64) constants.Region {
	top := f.CenterY() < height*0.5
	cx := f.CenterX()
	switch {
	case cx < width*0.33:
		if top {
			return constants.RegionTopLeft
		}
		return constants.RegionBottomLeft
	case cx < width*0.67:
		if top {
			return constants.RegionTopCenter
		}
		return constants.RegionBottomCenter
	default:
		if top {
			return constants.RegionTopRight
		}
		return constants.RegionBottomRight
	}
}

// RegionTexts renders each non-empty region as newline-joined, cleaned text.
func RegionTexts(fragments []entity.TextFragment, width, height float64) map[string]string {
	out := make(map[string]string)
	for region, frags := range GroupRegions(fragments, width, height) {
		if len(frags) == 0 {
			continue
		}
		out[string(region)] = textutil.CleanEncoding(BlockText(frags))
	}
	return out
}

// PageRegionTexts merges the region texts of several pages; text of later
// pages is appended below earlier pages.
func PageRegionTexts(pages []entity.Page) map[string]string {
	merged := make(map[string][]string)
	for _, p := range pages {
		for region, text := range RegionTexts(p.Fragments, p.Width, p.Height) {
			merged[region] = append(merged[region], text)
		}
	}
	out := make(map[string]string, len(merged))
	for region, parts := range merged {
		out[region] = strings.Join(parts, "\n")
	}
	return out
}
