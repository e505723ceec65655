package dto

type UploadForm struct {
	CourseID     string `validate:"required,max=64"`
	InstructorID string `validate:"omitempty,max=64"`
	UploadedBy   string `validate:"required,max=128"`
}

type ListRequest struct {
	CourseID string `validate:"required"`
	Limit    int    `validate:"min=0"`
	Offset   int    `validate:"min=0"`
}
