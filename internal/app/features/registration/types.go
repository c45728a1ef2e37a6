// internal/app/features/registration/types.go
package registration

type submitRequest struct {
	Nombre   string `json:"nombre" validate:"required,min=2,max=120"`
	Correo   string `json:"correo" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Rol      string `json:"rol"`
	Carrera  string `json:"carrera" validate:"max=120"`
}
