package model

// MediaRef is the attachment reference carried by an inbound message.
type MediaRef struct {
	ID       string `json:"id" validate:"required"`
	MimeType string `json:"mimeType,omitempty"`
	Caption  string `json:"caption,omitempty"`
	SHA256   string `json:"sha256,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// MediaDescriptor describes an attachment after it was copied to object storage.
type MediaDescriptor struct {
	Bucket     string `json:"bucket"`
	Path       string `json:"path"`
	URL        string `json:"url"`
	MimeType   string `json:"mimeType"`
	Size       int64  `json:"size"`
	Thumbnail  string `json:"thumbnail,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}
