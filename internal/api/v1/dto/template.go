package dto

import "time"

// TemplateInputDTO is a template form field as the client sends it.
type TemplateInputDTO struct {
	ID          string   `json:"id" validate:"required"`
	Label       string   `json:"label"`
	Placeholder string   `json:"placeholder,omitempty"`
	Type        string   `json:"type,omitempty"`
	Options     []string `json:"options,omitempty"`
}

// TemplateDTO is a template as the client sends it. Display-only fields are accepted and ignored.
type TemplateDTO struct {
	ID          string             `json:"id"`
	Title       string             `json:"title,omitempty"`
	Description string             `json:"description,omitempty"`
	Command     string             `json:"command,omitempty"`
	Icon        string             `json:"icon,omitempty"`
	Categories  []string           `json:"categories,omitempty"`
	Inputs      []TemplateInputDTO `json:"inputs" validate:"dive"`
	Content     string             `json:"content,omitempty"`
	CreatedAt   *time.Time         `json:"createdAt,omitempty"`
}

// TemplateGenerateDTO is the body of POST /chatgpt
type TemplateGenerateDTO struct {
	Template   TemplateDTO       `json:"template" validate:"required"`
	InputsData map[string]string `json:"inputsData"`
	Model      string            `json:"model"`
}

type TemplateGenerateResponseDTO struct {
	Reply string `json:"reply"`
}

// TemplateLogDTO is the body of POST /logrecentTemplates
type TemplateLogDTO struct {
	TemplateID string `json:"templateId" validate:"required"`
	Content    string `json:"content" validate:"required"`
}

// MessageResponseDTO is a plain acknowledgement. Credits is set on metered routes.
type MessageResponseDTO struct {
	Message string `json:"message"`
	Credits *int   `json:"credits,omitempty"`
}

type RecentTemplateInputDTO struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

// RecentTemplateDTO is one entry of GET /recentTemplates
type RecentTemplateDTO struct {
	ID          string                   `json:"_id"`
	TemplateID  string                   `json:"templateId"`
	Content     string                   `json:"content"`
	CreatedAt   time.Time                `json:"createdAt"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Command     string                   `json:"command,omitempty"`
	Categories  []string                 `json:"categories,omitempty"`
	Inputs      []RecentTemplateInputDTO `json:"inputs,omitempty"`
}
