package constants

// Region is one of the six page areas used to narrow the text given to the model.
type Region string

const (
	RegionTopLeft      Region = "top_left"
	RegionTopCenter    Region = "top_center"
	RegionTopRight     Region = "top_right"
	RegionBottomLeft   Region = "bottom_left"
	RegionBottomCenter Region = "bottom_center"
	RegionBottomRight  Region = "bottom_right"
)

// Regions lists every region in reading order.
var Regions = []Region{
	RegionTopLeft,
	RegionTopCenter,
	RegionTopRight,
	RegionBottomLeft,
	RegionBottomCenter,
	RegionBottomRight,
}

// IsRegion reports whether name is a known region.
func IsRegion(name string) bool {
	for _, r := range Regions {
		if string(r) == name {
			return true
		}
	}
	return false
}
