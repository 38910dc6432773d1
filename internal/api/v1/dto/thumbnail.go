package dto

// ThumbnailGenerateDTO is the body of POST /generate-thumbnail
type ThumbnailGenerateDTO struct {
	Prompt  string `json:"prompt" validate:"required,max=1000"`
	ModelID string `json:"modelId" validate:"required"`
}

type ThumbnailResponseDTO struct {
	ImageURL string `json:"imageUrl"`
	Credits  int    `json:"credits"`
}
