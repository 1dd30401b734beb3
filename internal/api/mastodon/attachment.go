package mastodon

import (
	"encoding/json"
	"strconv"
)

// AttachmentSource is the stored media row an attachment is built from.
// Missing dimensions are zero.
type AttachmentSource struct {
	Description   string
	ID            int64
	Width         int
	Height        int
	PreviewWidth  int
	PreviewHeight int
}

// MediaDimensions is one meta entry of an image attachment
type MediaDimensions struct {
	Size   string  `json:"size"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Aspect float64 `json:"aspect"`
}

// Attachment is the Mastodon API media attachment entity
//
// See https://docs.joinmastodon.org/entities/attachment
type Attachment struct {
	// Meta holds "original" and "small" for images with known dimensions
	Meta        map[string]MediaDimensions `json:"meta"`
	RemoteURL   *string                    `json:"remote_url"`
	ID          string                     `json:"id"`
	Type        string                     `json:"type"`
	URL         string                     `json:"url"`
	PreviewURL  string                     `json:"preview_url"`
	TextURL     string                     `json:"text_url"`
	Description string                     `json:"description"`
}

// NewAttachment builds the API entity for a media row
func NewAttachment(src AttachmentSource, mediaType, url, preview, remote string) *Attachment {
	a := &Attachment{
		ID:         strconv.FormatInt(src.ID, 10),
		Type:       mediaType,
		URL:        url,
		PreviewURL: preview,
		// text_url is remote when set, else url (never empty)
		TextURL:     url,
		Description: src.Description,
	}

	if remote != "" {
		a.RemoteURL = &remote
		a.TextURL = remote
	}

	if mediaType == "image" {
		if d, ok := dimensions(src.Width, src.Height); ok {
			a.meta()["original"] = d
		}
		if d, ok := dimensions(src.PreviewWidth, src.PreviewHeight); ok {
			a.meta()["small"] = d
		}
	}

	return a
}

func (a *Attachment) meta() map[string]MediaDimensions {
	if a.Meta == nil {
		a.Meta = make(map[string]MediaDimensions, 2)
	}
	return a.Meta
}

func dimensions(width, height int) (MediaDimensions, bool) {
	if width <= 0 || height <= 0 {
		return MediaDimensions{}, false
	}
	return MediaDimensions{
		Width:  width,
		Height: height,
		Size:   strconv.Itoa(width) + "x" + strconv.Itoa(height),
		Aspect: float64(width) / float64(height),
	}, true
}

// MarshalJSON keeps remote_url as an explicit null when empty
func (a Attachment) MarshalJSON() ([]byte, error) {
	type plain Attachment
	out := plain(a)
	if out.RemoteURL != nil && *out.RemoteURL == "" {
		out.RemoteURL = nil
	}
	return json.Marshal(out)
}
