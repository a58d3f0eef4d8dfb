// Package reconcile вычисляет минимальный набор изменений членства
// при замене текущего списка назначений на желаемый.
package reconcile

import (
	"github.com/google/uuid"

	"taskflow/internal/model"
)

// Member - пара (пользователь, роль)
type Member struct {
	UserID uuid.UUID
	Role   string
}

// RoleChange фиксирует смену роли существующего участника
type RoleChange struct {
	UserID   uuid.UUID
	FromRole string
	ToRole   string
}

// Diff - результат сверки: кого добавить, кому сменить роль, кого убрать
type Diff struct {
	Added   []Member
	Updated []RoleChange
	Removed []Member
}

// Empty сообщает, что сверка не требует никаких изменений
func (d Diff) Empty() bool {
	return len(d.Added) == 0 && len(d.Updated) == 0 && len(d.Removed) == 0
}

// Compute сверяет current с desired. desired - полное целевое членство:
// отсутствие пользователя в desired означает удаление. Оба набора должны
// быть дедуплицированы по UserID вызывающей стороной.
// Побочных эффектов нет - применение diff к хранилищу лежит на вызывающем.
func Compute(current, desired []Member) Diff {
	var d Diff

	currentByUser := make(map[uuid.UUID]Member, len(current))
	for _, m := range current {
		currentByUser[m.UserID] = m
	}

	seen := make(map[uuid.UUID]struct{}, len(desired))
	for _, want := range desired {
		seen[want.UserID] = struct{}{}
		have, ok := currentByUser[want.UserID]
		if !ok {
			d.Added = append(d.Added, want)
			continue
		}
		if have.Role != want.Role {
			d.Updated = append(d.Updated, RoleChange{
				UserID:   want.UserID,
				FromRole: have.Role,
				ToRole:   want.Role,
			})
		}
	}

	for _, have := range current {
		if _, ok := seen[have.UserID]; !ok {
			d.Removed = append(d.Removed, have)
		}
	}

	return d
}

// FromAssignments переводит строки назначений в членов для сверки
func FromAssignments(assignments []model.Assignment) []Member {
	members := make([]Member, 0, len(assignments))
	for _, a := range assignments {
		members = append(members, Member{UserID: a.UserID, Role: a.Role})
	}
	return members
}

// FromInputs переводит входные назначения в членов, отбрасывая дубликаты по UserID
func FromInputs(inputs []model.AssignmentInput) []Member {
	members := make([]Member, 0, len(inputs))
	seen := make(map[uuid.UUID]struct{}, len(inputs))
	for _, in := range inputs {
		if _, ok := seen[in.UserID]; ok {
			continue
		}
		seen[in.UserID] = struct{}{}
		members = append(members, Member{UserID: in.UserID, Role: in.Role})
	}
	return members
}
