package domain

import "time"

// Supplier is one vendor a purchase order can be placed with. RUC is the
// Peruvian tax identifier (11 digits).
type Supplier struct {
	SupplierID  string    `json:"id" dynamodbav:"supplier_id"`
	RUC         string    `json:"ruc" dynamodbav:"ruc"`
	RazonSocial string    `json:"razonSocial" dynamodbav:"razon_social"`
	Direccion   string    `json:"direccion" dynamodbav:"direccion"`
	Contacto    string    `json:"contacto" dynamodbav:"contacto"`
	Email       string    `json:"email" dynamodbav:"email"`
	Enable      bool      `json:"enable" dynamodbav:"enable"`
	CreatedAt   time.Time `json:"created" dynamodbav:"created_at"`
	UpdatedAt   time.Time `json:"updated" dynamodbav:"updated_at"`
}

type CreateSupplierRequest struct {
	RUC         string `json:"ruc" validate:"required,len=11,numeric"`
	RazonSocial string `json:"razonSocial" validate:"required"`
	Direccion   string `json:"direccion"`
	Contacto    string `json:"contacto"`
	Email       string `json:"email" validate:"omitempty,email"`
}

type UpdateSupplierRequest struct {
	RazonSocial *string `json:"razonSocial"`
	Direccion   *string `json:"direccion"`
	Contacto    *string `json:"contacto"`
	Email       *string `json:"email" validate:"omitempty,email"`
}
