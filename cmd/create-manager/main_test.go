package main

import (
	"testing"

	"github.com/gartstein/placement/internal/placement/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileFor(t *testing.T) {
	profile, err := profileFor(models.RoleProgramManager, "Ada", "ada@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, &models.ProgramManager{UserID: 3, Name: "Ada", Email: "ada@example.com"}, profile(3))

	profile, err = profileFor(models.RoleFacultyAdvisor, "Bob", "bob@example.com", "CS")
	require.NoError(t, err)
	assert.Equal(t, &models.FacultyAdvisor{UserID: 4, Name: "Bob", Email: "bob@example.com", Department: "CS"}, profile(4))

	profile, err = profileFor(models.RoleStudent, "Cy", "cy@example.com", "")
	require.NoError(t, err)
	assert.Equal(t, &models.Student{UserID: 5, Name: "Cy", Email: "cy@example.com"}, profile(5))

	profile, err = profileFor(models.RoleCompany, "Co", "co@example.com", "")
	require.NoError(t, err)
	assert.Nil(t, profile)

	_, err = profileFor(models.Role("ADMIN"), "x", "x@example.com", "")
	assert.Error(t, err)
}

func TestGenerateRandomString(t *testing.T) {
	a, err := generateRandomString(8)
	require.NoError(t, err)
	b, err := generateRandomString(8)
	require.NoError(t, err)

	assert.Len(t, a, 16)
	assert.NotEqual(t, a, b)
}
