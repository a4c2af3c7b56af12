package model

import "time"

// AssetType is a category of hardware with its own serial number prefix.
type AssetType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Prefix    string    `json:"prefix,omitempty"`
	ImageMime string    `json:"image_mime,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// HasImage reports whether an image is stored for the type.
func (t AssetType) HasImage() bool {
	return t.ImageMime != ""
}
