// internal/app/features/adminpanel/types.go
package adminpanel

type updateRoleRequest struct {
	Rol string `json:"rol" validate:"required"`
}

type blockRequest struct {
	Bloqueado bool   `json:"bloqueado"`
	Motivo    string `json:"motivo" validate:"max=500"`
}

type reviewRequest struct {
	Notas string `json:"notas" validate:"max=500"`
}

type reportRequest struct {
	Beneficiarios int    `json:"beneficiarios" validate:"min=0"`
	Notas         string `json:"notas" validate:"max=2000"`
}
