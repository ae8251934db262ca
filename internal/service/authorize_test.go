package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Daminigadpal/Event-Service-Management-System-sub001/internal/model"
)

func TestRequireRole(t *testing.T) {
	admin := model.Actor{UserID: 1, Role: model.RoleAdmin}
	user := model.Actor{UserID: 2, Role: model.RoleUser}

	assert.NoError(t, RequireRole(admin, model.RoleAdmin))
	assert.True(t, IsKind(RequireRole(user, model.RoleAdmin), KindForbidden))
	assert.True(t, IsKind(RequireRole(model.Actor{}, anyRole...), KindUnauthorized))
	assert.True(t, IsKind(RequireRole(model.Actor{UserID: 3, Role: "root"}, anyRole...), KindUnauthorized))

	assert.True(t, canSee(admin, 99))
	assert.True(t, canSee(user, 2))
	assert.False(t, canSee(user, 3))
}
