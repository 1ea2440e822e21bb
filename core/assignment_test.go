package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentTypeOrder(t *testing.T) {
	assert.True(t, AssignAdmin.AtLeast(AssignAssignee))
	assert.True(t, AssignAssignee.AtLeast(AssignAssignee))
	assert.False(t, AssignReader.AtLeast(AssignAssignee))
	assert.False(t, AssignNone.AtLeast(AssignReader))
	assert.Equal(t, AssignAdmin, max(AssignReader, AssignAdmin, AssignNone))
}

func TestParseAssignmentType(t *testing.T) {
	for _, a := range []AssignmentType{AssignNone, AssignReader, AssignAssignee, AssignAdmin} {
		parsed, ok := ParseAssignmentType(a.String())
		require.True(t, ok)
		assert.Equal(t, a, parsed)
		assert.True(t, a.Valid())
	}

	parsed, ok := ParseAssignmentType(" Admin ")
	assert.True(t, ok)
	assert.Equal(t, AssignAdmin, parsed)

	_, ok = ParseAssignmentType("owner")
	assert.False(t, ok)
	assert.False(t, AssignmentType(0).Valid())
	assert.Equal(t, "unknown", AssignmentType(15).String())
}

func TestAssignmentTypeJSON(t *testing.T) {
	var req Request
	require.NoError(t, json.Unmarshal([]byte(`{"contentIds":[1,2],"assignmentTypes":["assignee","admin"],"userName":"bob","userRoles":[]}`), &req))
	assert.Equal(t, []AssignmentType{AssignAssignee, AssignAdmin}, req.AssignmentTypes)

	err := json.Unmarshal([]byte(`{"assignmentTypes":["owner"]}`), &req)
	assert.ErrorIs(t, err, ErrValidation)

	out, err := json.Marshal(StateRole{RoleID: 1, Assignment: AssignReader})
	require.NoError(t, err)
	assert.JSONEq(t, `{"roleId":1,"assignment":"reader","adhoc":false}`, string(out))
}
