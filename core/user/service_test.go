package user_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ionode-cloud/ERP-Cell/core/user"
	testutil "github.com/ionode-cloud/ERP-Cell/tests"
)

func TestService_Authenticate(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	testutil.CreateUser(t, svc.Users, "Admin", "Admin@College.edu", "s3cret!Pass", user.RoleAdmin, true)
	testutil.CreateUser(t, svc.Users, "Gone", "gone@college.edu", "s3cret!Pass", user.RoleTeacher, false)

	tests := []struct {
		name    string
		loginID string
		pwd     string
		wantErr error
	}{
		{name: "unknown user", loginID: "nobody@college.edu", pwd: "s3cret!Pass", wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", loginID: "admin@college.edu", pwd: "nope", wantErr: user.ErrInvalidCredentials},
		{name: "deactivated", loginID: "gone@college.edu", pwd: "s3cret!Pass", wantErr: user.ErrAccountDeactivated},
		{name: "case insensitive login", loginID: " ADMIN@college.edu ", pwd: "s3cret!Pass"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usr, err := svc.Users.Authenticate(ctx, tt.loginID, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "admin@college.edu", usr.LoginID)
			assert.False(t, usr.LastLogin.IsZero())
		})
	}
}

func TestService_CreateDuplicate(t *testing.T) {
	svc := testutil.NewServices(t)
	testutil.CreateUser(t, svc.Users, "Admin", "admin@college.edu", "pwd", user.RoleAdmin, true)

	_, err := svc.Users.Create(context.Background(), user.NewUser{Name: "Other", LoginID: "ADMIN@college.edu", Password: "pwd", Role: user.RoleAdmin})
	assert.EqualError(t, err, user.ErrLoginIDExists.Error())
}

func TestService_ChangePassword(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	usr := testutil.CreateUser(t, svc.Users, "Admin", "admin@college.edu", "old-Pass1", user.RoleAdmin, true)

	_, err := svc.Users.ChangePassword(ctx, usr, user.ChangePassword{CurrentPassword: "wrong", Password: "Tr0ub4dor&3"})
	assert.Error(t, err)

	_, err = svc.Users.ChangePassword(ctx, usr, user.ChangePassword{CurrentPassword: "old-Pass1", Password: "Tr0ub4dor&3"})
	require.NoError(t, err)
	_, err = svc.Users.Authenticate(ctx, "admin@college.edu", "Tr0ub4dor&3")
	assert.NoError(t, err)
}

func TestService_UpdateOrCreate(t *testing.T) {
	svc := testutil.NewServices(t)
	ctx := context.Background()
	orig := testutil.CreateUser(t, svc.Users, "Admin", "admin@college.edu", "pwd", user.RoleTeacher, false)

	usr, err := svc.Users.UpdateOrCreate(ctx, user.NewUser{Name: "Root", LoginID: "admin@college.edu", Password: "new", Role: user.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, orig.ID, usr.ID)
	assert.Equal(t, "Root", usr.Name)
	assert.Equal(t, user.RoleAdmin, usr.Role)
	assert.True(t, usr.IsActive)
	assert.NoError(t, usr.CheckPassword("new"))
}
