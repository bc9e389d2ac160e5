package models

type SendOTPRequest struct {
	Phone string `json:"phoneNumber" form:"phoneNumber" validate:"required,bdphone"`
}

type VerifyOTPRequest struct {
	Phone string `json:"phoneNumber" form:"phoneNumber" validate:"required,bdphone"`
	Otp   string `json:"otp" form:"otp" validate:"required,len=6,numeric"`
}

type BasicInfoRequest struct {
	FullName       string `json:"fullName" form:"fullName" validate:"required,min=2,max=100,personname"`
	Phone          string `json:"phone" form:"phone" validate:"required,bdphone"`
	Email          string `json:"email" form:"email" validate:"omitempty,email"`
	DateOfBirth    string `json:"dateOfBirth" form:"dateOfBirth" validate:"required,adult"`
	EducationLevel string `json:"educationLevel" form:"educationLevel" validate:"required"`
	Gender         Gender `json:"gender" form:"gender" validate:"required,oneof=male female undisclosed"`
}

type IdentityRequest struct {
	Number string `json:"number" form:"number" validate:"required,min=5,max=30"`
}

type EmergencyContactRequest struct {
	Name  string `json:"name" form:"name" validate:"required,min=2,max=100,personname"`
	Phone string `json:"phone" form:"phone" validate:"required,intlphone"`
}

type AddressLineRequest struct {
	District string `json:"district" form:"district" validate:"required"`
	Upazila  string `json:"upazila" form:"upazila" validate:"required"`
	Street   string `json:"street" form:"street" validate:"required"`
}

type AddressRequest struct {
	Present   AddressLineRequest `json:"present" validate:"required"`
	Permanent AddressLineRequest `json:"permanent" validate:"required"`
}

type OtherInfoRequest struct {
	FathersName   string `json:"fathersName" form:"fathersName" validate:"required,min=2,max=100"`
	MothersName   string `json:"mothersName" form:"mothersName" validate:"required,min=2,max=100"`
	Religion      string `json:"religion" form:"religion" validate:"omitempty,max=50"`
	MaritalStatus string `json:"maritalStatus" form:"maritalStatus" validate:"omitempty,oneof=single married divorced widowed"`
}

type WorkInfoRequest struct {
	EmployeeId string `json:"employeeId" form:"employeeId" validate:"required"`
	Project    string `json:"project" form:"project" validate:"required"`
	Branch     string `json:"branch" form:"branch" validate:"required"`
	Shift      string `json:"shift" form:"shift" validate:"required"`
	Reference  string `json:"reference" form:"reference" validate:"omitempty,max=200"`
}

type ReviewRequest struct {
	Status          ApplicationStatus `json:"status" validate:"required,oneof=approved rejected"`
	AdminNotes      string            `json:"adminNotes" validate:"omitempty,max=2000"`
	RejectionReason string            `json:"rejectionReason" validate:"omitempty,max=2000"`
}

type AdminRegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

type AdminVerifyEmailRequest struct {
	Token string `json:"token" form:"token" validate:"required,hex64"`
}

type AdminLoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AdminForgetAuthRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type AdminResetAuthRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Token    string `json:"token" validate:"required,hex64"`
}

type ApplicationSearchRequest struct {
	Query  string `form:"q" validate:"omitempty,max=100"`
	Status string `form:"status" validate:"omitempty,oneof=submitted under-review approved rejected"`
	From   string `form:"from"`
	To     string `form:"to"`
	Page   int    `form:"page" validate:"omitempty,min=1,max=10000"`
	Limit  int    `form:"limit" validate:"omitempty,min=1,max=100"`
}
