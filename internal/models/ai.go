package models

type GenerateBlogRequest struct {
	Title string `json:"title" validate:"required,min=3,max=200"`
	Tone  string `json:"tone,omitempty" validate:"omitempty,max=30"`
}

type GenerateTagsRequest struct {
	Title string `json:"title" validate:"required,max=200"`
	Body  string `json:"body" validate:"required"`
}

type GenerateTitleRequest struct {
	Body string `json:"body" validate:"required"`
	Tone string `json:"tone,omitempty" validate:"omitempty,max=30"`
}
