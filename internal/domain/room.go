package domain

// RoomType is the room category enumerator understood by the room service.
type RoomType string

const (
	RoomStandard     RoomType = "STANDARD"
	RoomSuperior     RoomType = "SUPERIOR"
	RoomDeluxe       RoomType = "DELUXE"
	RoomSuite        RoomType = "SUITE"
	RoomExecutive    RoomType = "EXECUTIVE"
	RoomPresidential RoomType = "PRESIDENTIAL"
	RoomFamily       RoomType = "FAMILY"
	RoomHoneymoon    RoomType = "HONEYMOON"
)

// Room is the subset of the room service's record used for suggestion cards.
type Room struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Type           RoomType `json:"type"`
	PricePerNight  float64  `json:"pricePerNight"`
	Size           int      `json:"size"`
	View           string   `json:"view"`
	ViewDisplay    string   `json:"viewDisplay,omitempty"`
	Images         []string `json:"images"`
	ThumbnailImage string   `json:"thumbnailImage,omitempty"`
}

// CoverImage returns the thumbnail, or the first gallery image when no
// thumbnail is set.
func (r Room) CoverImage() string {
	if r.ThumbnailImage != "" {
		return r.ThumbnailImage
	}
	if len(r.Images) > 0 {
		return r.Images[0]
	}
	return ""
}
