package domain

type LoginForm struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type SignupForm struct {
	Username        string `json:"username" validate:"required,min=4,max=10"`
	Email           string `json:"email" validate:"required,email_format"`
	Password        string `json:"password" validate:"required,min=8,max=15"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

type PasswordResetForm struct {
	Token           string `json:"token" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=15,password_strength"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=NewPassword"`
}

// DeliveryForm is what checkout requires before a draft may be created.
type DeliveryForm struct {
	Name          string  `json:"name" validate:"required"`
	Phone         string  `json:"phone" validate:"required"`
	Province      string  `json:"province" validate:"required"`
	City          string  `json:"city" validate:"required"`
	District      string  `json:"district" validate:"required"`
	DetailAddress string  `json:"detailAddress" validate:"required"`
	Latitude      float64 `json:"latitude" validate:"required"`
	Longitude     float64 `json:"longitude" validate:"required"`
}

func (d DeliveryInfo) Form() DeliveryForm {
	f := DeliveryForm{
		Name:          d.Name,
		Phone:         d.Phone,
		Province:      d.Address.Province,
		City:          d.Address.City,
		District:      d.Address.District,
		DetailAddress: d.Address.DetailAddress,
	}
	if d.Address.Coordinate != nil {
		f.Latitude = d.Address.Coordinate.Latitude
		f.Longitude = d.Address.Coordinate.Longitude
	}
	return f
}
