package models

// Category partitions uploaded assets by their declared content type.
type Category string

const (
	CategoryImages Category = "images"
	CategoryVideos Category = "videos"
	CategoryAudio  Category = "audio"
	CategoryOther  Category = "other"
)

// Categories lists every category in the fixed order used by listings.
var Categories = []Category{CategoryImages, CategoryVideos, CategoryAudio, CategoryOther}

// AssetRecord is the durable per-upload record kept in a category catalog.
// The report fields are reserved for moderation; they are persisted but
// never exposed through the public listing.
type AssetRecord struct {
	Name          string   `json:"name"`
	URL           string   `json:"url"`
	ThumbnailURL  string   `json:"thumbnailUrl"`
	Description   string   `json:"description"`
	ReportCount   int      `json:"reportCount"`
	ReportReasons []string `json:"reportReasons"`
}

// PublicAsset is the client-facing projection of an AssetRecord.
type PublicAsset struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Thumb       string `json:"thumb"`
	Description string `json:"description"`
}

// Public projects the record down to its four public fields.
func (r AssetRecord) Public() PublicAsset {
	return PublicAsset{
		Name:        r.Name,
		URL:         r.URL,
		Thumb:       r.ThumbnailURL,
		Description: r.Description,
	}
}
