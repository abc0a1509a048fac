package domain

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleAssignment_Validate(t *testing.T) {
	tests := []struct {
		name      string
		in        RoleAssignment
		wantField string
	}{
		{"valid", RoleAssignment{UserID: "u1", Role: "moderator", RequestedBy: "admin1"}, ""},
		{"role is normalised", RoleAssignment{UserID: " u1 ", Role: " Admin ", RequestedBy: "admin1"}, ""},
		{"missing user", RoleAssignment{Role: "member", RequestedBy: "admin1"}, "user_id"},
		{"blank user", RoleAssignment{UserID: "   ", Role: "member", RequestedBy: "admin1"}, "user_id"},
		{"missing role", RoleAssignment{UserID: "u1", RequestedBy: "admin1"}, "role"},
		{"unknown role", RoleAssignment{UserID: "u1", Role: "owner", RequestedBy: "admin1"}, "role"},
		{"missing requester", RoleAssignment{UserID: "u1", Role: "member"}, "requested_by"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, IsValidation(err))
			structured := AsError(err)
			assert.Equal(t, http.StatusBadRequest, structured.HTTPStatus())
			assert.Equal(t, tt.wantField, structured.Context["field"])
		})
	}
}

func TestRoleAssignment_ValidateNormalises(t *testing.T) {
	a := RoleAssignment{UserID: " u1 ", Role: " Admin ", RequestedBy: " boss "}
	require.NoError(t, a.Validate())

	assert.Equal(t, RoleAssignment{UserID: "u1", Role: RoleAdmin, RequestedBy: "boss"}, a)
	assert.Equal(t, "System: User u1 has been assigned the role of admin.", a.Notice())
}

func TestAsError(t *testing.T) {
	assert.Nil(t, AsError(nil))

	plain := errors.New("boom")
	wrapped := AsError(plain)
	assert.Equal(t, TypeInternal, wrapped.Type)
	assert.ErrorIs(t, wrapped, plain)
	assert.Equal(t, http.StatusInternalServerError, wrapped.HTTPStatus())

	unavailable := UnavailableError("hub is not running", nil)
	assert.Same(t, unavailable, AsError(unavailable))
	assert.Equal(t, http.StatusServiceUnavailable, unavailable.HTTPStatus())
}

func TestRoleAssignmentResult_Summary(t *testing.T) {
	r := RoleAssignmentResult{UserID: "u1", Role: RoleModerator}
	assert.Equal(t, "Role 'moderator' assigned to user 'u1'.", r.Summary())
}
