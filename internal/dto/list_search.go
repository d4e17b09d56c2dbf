package dto

import (
	"time"

	"otomar/internal/model"
)

type CreateListSearchRequest struct {
	FullName       string `form:"fullName" json:"fullName" validate:"required,max=128"`
	Email          string `form:"email" json:"email" validate:"required,email,max=256"`
	Phone          string `form:"phone" json:"phone" validate:"required,max=32"`
	VehicleBrand   string `form:"vehicleBrand" json:"vehicleBrand" validate:"omitempty,max=64"`
	VehicleModel   string `form:"vehicleModel" json:"vehicleModel" validate:"omitempty,max=64"`
	ModelYear      int    `form:"modelYear" json:"modelYear" validate:"omitempty,gte=1950,lte=2100"`
	ChassisNumber  string `form:"chassisNumber" json:"chassisNumber" validate:"omitempty,len=17,alphanum"`
	Parts          string `form:"parts" json:"parts" validate:"required,max=4000"`
	RecaptchaToken string `form:"recaptchaToken" json:"recaptchaToken"`
}

func (r *CreateListSearchRequest) GetRecaptchaToken() string { return r.RecaptchaToken }

type ListSearchResponse struct {
	ID        string    `json:"id"`
	Status    string    `json:"status"`
	Files     []string  `json:"files"`
	CreatedAt time.Time `json:"createdAt"`
}

func FromListSearch(ls *model.ListSearch) *ListSearchResponse {
	files := make([]string, 0, len(ls.Files))
	for _, f := range ls.Files {
		files = append(files, f.FileName)
	}
	return &ListSearchResponse{
		ID:        ls.ID,
		Status:    string(ls.Status),
		Files:     files,
		CreatedAt: ls.CreatedAt,
	}
}
