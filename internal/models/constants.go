package models

// Роли пользователей платформы.
const (
	RoleAdmin    = "admin"
	RoleDesigner = "designer"
	RoleSchool   = "school"
	RoleGarment  = "garment"
)

// ValidRoles список валидных ролей.
var ValidRoles = map[string]struct{}{
	RoleAdmin:    {},
	RoleDesigner: {},
	RoleSchool:   {},
	RoleGarment:  {},
}

// Лимиты размеров доказательств.
const (
	MaxImageBytes int64 = 10 * 1024 * 1024
	MaxVideoBytes int64 = 50 * 1024 * 1024
)

// PaymentOrderType тип оплаты, передаваемый платёжному шлюзу для заказов.
const PaymentOrderType = "order"
