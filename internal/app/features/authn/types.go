// internal/app/features/authn/types.go
package authn

type loginRequest struct {
	Correo   string `json:"correo" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	Nombre  string `json:"nombre" validate:"required,min=2,max=120"`
	Carrera string `json:"carrera" validate:"max=120"`
}

type changePasswordRequest struct {
	PasswordActual string `json:"passwordActual" validate:"required"`
	PasswordNueva  string `json:"passwordNueva" validate:"required,min=6,max=72"`
}
