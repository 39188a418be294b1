package project

// Project - внешняя сущность: ядру важны id, создатель,
// членство и проверка права управления участниками.
type Project struct {
	ID         int64   `json:"id" db:"id"`
	Name       string  `json:"name" db:"name"`
	CreatorID  int64   `json:"creator_id" db:"creator_id"`
	Department string  `json:"department" db:"department"`
	MemberIDs  []int64 `json:"member_ids" db:"member_ids"`
	ManagerIDs []int64 `json:"manager_ids" db:"manager_ids"`
}

func (p *Project) IsMember(userID int64) bool {
	for _, id := range p.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

func (p *Project) IsManager(userID int64) bool {
	if p.CreatorID == userID {
		return true
	}
	for _, id := range p.ManagerIDs {
		if id == userID {
			return true
		}
	}
	return false
}
