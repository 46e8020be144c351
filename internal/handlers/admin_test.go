package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/taskloop/task-tracker-api/internal/models"
)

// AdminHandlerTestSuite defines the test suite for AdminHandler
type AdminHandlerTestSuite struct {
	suite.Suite
	env   *testEnv
	admin *models.User
}

// SetupTest runs before each test
func (suite *AdminHandlerTestSuite) SetupTest() {
	suite.env = newTestEnv(suite.T())
	suite.admin = suite.env.createUser(suite.T(), "admin@example.com", "password123", models.RoleAdmin)
}

// TearDownTest runs after each test
func (suite *AdminHandlerTestSuite) TearDownTest() {
	suite.env.close()
}

func (suite *AdminHandlerTestSuite) jsonBody(payload map[string]interface{}) *bytes.Buffer {
	body, err := json.Marshal(payload)
	suite.Require().NoError(err)
	return bytes.NewBuffer(body)
}

// TestListUsers_ExcludesRequestingAdmin tests the roster listing
func (suite *AdminHandlerTestSuite) TestListUsers_ExcludesRequestingAdmin() {
	suite.env.createUser(suite.T(), "a@example.com", "password123", models.RoleUser)
	suite.env.createUser(suite.T(), "b@example.com", "password123", models.RoleUser)

	c, w := authedContext("GET", "/admin/users", nil, "", suite.admin)

	suite.env.adminHandler.ListUsers(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.EqualValues(suite.T(), 2, response["totalUsers"])

	users := response["users"].([]interface{})
	suite.Require().Len(users, 2)
	for _, u := range users {
		entry := u.(map[string]interface{})
		assert.NotEqual(suite.T(), suite.admin.Email, entry["email"])
		assert.NotContains(suite.T(), entry, "passwordHash")
	}
}

// TestCreateUser_WithRole tests provisioning an admin account
func (suite *AdminHandlerTestSuite) TestCreateUser_WithRole() {
	body := suite.jsonBody(map[string]interface{}{
		"email":    "second@example.com",
		"password": "password123",
		"role":     "admin",
	})
	c, w := authedContext("POST", "/admin/users", body, "application/json", suite.admin)

	suite.env.adminHandler.CreateUser(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "second@example.com", response["email"])
	assert.Equal(suite.T(), "admin", response["role"])
}

// TestCreateUser_DefaultRole tests provisioning without a role
func (suite *AdminHandlerTestSuite) TestCreateUser_DefaultRole() {
	body := suite.jsonBody(map[string]interface{}{
		"email":    "plain@example.com",
		"password": "password123",
	})
	c, w := authedContext("POST", "/admin/users", body, "application/json", suite.admin)

	suite.env.adminHandler.CreateUser(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "user", response["role"])
}

// TestCreateUser_InvalidRole tests the role allow-list
func (suite *AdminHandlerTestSuite) TestCreateUser_InvalidRole() {
	body := suite.jsonBody(map[string]interface{}{
		"email":    "x@example.com",
		"password": "password123",
		"role":     "superuser",
	})
	c, w := authedContext("POST", "/admin/users", body, "application/json", suite.admin)

	suite.env.adminHandler.CreateUser(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestCreateUser_DuplicateEmail tests provisioning with a taken email
func (suite *AdminHandlerTestSuite) TestCreateUser_DuplicateEmail() {
	suite.env.createUser(suite.T(), "taken@example.com", "password123", models.RoleUser)

	body := suite.jsonBody(map[string]interface{}{
		"email":    "taken@example.com",
		"password": "password123",
	})
	c, w := authedContext("POST", "/admin/users", body, "application/json", suite.admin)

	suite.env.adminHandler.CreateUser(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "User already exists", response["message"])
}

// TestUpdateUser_Success tests a partial roster update
func (suite *AdminHandlerTestSuite) TestUpdateUser_Success() {
	user := suite.env.createUser(suite.T(), "user@example.com", "password123", models.RoleUser)

	body := suite.jsonBody(map[string]interface{}{
		"role": "admin",
	})
	c, w := authedContext("PUT", "/admin/users/2", body, "application/json", suite.admin)
	c.Params = gin.Params{{Key: "id", Value: "2"}}

	suite.env.adminHandler.UpdateUser(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var stored models.User
	suite.Require().NoError(suite.env.db.First(&stored, user.ID).Error)
	assert.Equal(suite.T(), models.RoleAdmin, stored.Role)
	assert.Equal(suite.T(), "user@example.com", stored.Email, "untouched fields survive")
}

// TestUpdateUser_NotFound tests updating a missing user
func (suite *AdminHandlerTestSuite) TestUpdateUser_NotFound() {
	body := suite.jsonBody(map[string]interface{}{"role": "admin"})
	c, w := authedContext("PUT", "/admin/users/999", body, "application/json", suite.admin)
	c.Params = gin.Params{{Key: "id", Value: "999"}}

	suite.env.adminHandler.UpdateUser(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestDeleteUser_CascadesAssignedTasks tests that deleting a user removes
// every task assigned to them along with the stored documents
func (suite *AdminHandlerTestSuite) TestDeleteUser_CascadesAssignedTasks() {
	victim := suite.env.createUser(suite.T(), "victim@example.com", "password123", models.RoleUser)

	for i := 0; i < 3; i++ {
		fields := validTaskFields()
		body, contentType := multipartBody(suite.T(), fields,
			mpFile{field: "taskFile", name: "doc.pdf", contentType: "application/pdf", content: []byte("x")},
		)
		c, w := authedContext("POST", "/task", body, contentType, victim)
		suite.env.taskHandler.CreateTask(c)
		suite.Require().Equal(http.StatusCreated, w.Code)
	}
	suite.Require().Equal(3, suite.env.store.count())

	c, w := authedContext("DELETE", "/admin/users/2", nil, "", suite.admin)
	c.Params = gin.Params{{Key: "id", Value: "2"}}

	suite.env.adminHandler.DeleteUser(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "User deleted successfully", response["message"])

	var taskCount int64
	suite.env.db.Model(&models.Task{}).Where("assigned_to_id = ?", victim.ID).Count(&taskCount)
	assert.Zero(suite.T(), taskCount)
	assert.Zero(suite.T(), suite.env.store.count(), "stored documents go with the tasks")

	var deleted models.User
	assert.Error(suite.T(), suite.env.db.First(&deleted, victim.ID).Error)
}

// TestDeleteUser_NotFound tests deleting a missing user
func (suite *AdminHandlerTestSuite) TestDeleteUser_NotFound() {
	c, w := authedContext("DELETE", "/admin/users/999", nil, "", suite.admin)
	c.Params = gin.Params{{Key: "id", Value: "999"}}

	suite.env.adminHandler.DeleteUser(c)

	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

// TestDeleteUser_InvalidID tests a non-numeric path parameter
func (suite *AdminHandlerTestSuite) TestDeleteUser_InvalidID() {
	c, w := authedContext("DELETE", "/admin/users/abc", nil, "", suite.admin)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}

	suite.env.adminHandler.DeleteUser(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestSuite runs the test suite
func TestAdminHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AdminHandlerTestSuite))
}
