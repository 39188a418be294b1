package user

type Role string

const RoleAdmin Role = "admin"
const RoleHR Role = "hr"
const RoleManager Role = "manager"
const RoleStaff Role = "staff"

// User - внешняя сущность: ядру важны роль, ранг и принадлежность.
// Hierarchy - целочисленный ранг, меньше = старше по должности.
// Department - иерархический путь через точку, например "Eng.Backend".
type User struct {
	ID         int64  `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	Role       Role   `json:"role" db:"role"`
	Department string `json:"department" db:"department"`
	Hierarchy  int    `json:"hierarchy" db:"hierarchy"`
	Division   string `json:"division" db:"division"`
}
