package store

import (
	"context"
	"errors"
	"testing"

	"github.com/nuclear-hardware/hms/internal/db"
	"github.com/nuclear-hardware/hms/internal/model"
)

func TestCreateAndLookUpUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	user, err := CreateUser(ctx, database, "  wanjiku ", "hash123", model.RoleManager)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.Username != "wanjiku" || user.Role != model.RoleManager {
		t.Errorf("unexpected user %+v", user)
	}

	byName, err := GetUserByUsername(ctx, database, "wanjiku")
	if err != nil || byName == nil || byName.ID != user.ID {
		t.Fatalf("GetUserByUsername: %+v, %v", byName, err)
	}

	missing, err := GetUserByUsername(ctx, database, "otieno")
	if err != nil || missing != nil {
		t.Errorf("expected nil, nil for unknown user, got %+v, %v", missing, err)
	}
	if u, err := GetUser(ctx, database, 999); err != nil || u != nil {
		t.Errorf("expected nil, nil for unknown id, got %+v, %v", u, err)
	}
}

func TestCreateUserRejects(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	if _, err := CreateUser(ctx, database, "alice", "hash", model.RoleUser); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, username, role string
		want                 error
	}{
		{"duplicate", "alice", model.RoleUser, model.ErrIntegrity},
		{"unknown role", "eve", "owner", model.ErrValidation},
		{"blank", "   ", model.RoleUser, model.ErrValidation},
	}
	for _, tt := range tests {
		if _, err := CreateUser(ctx, database, tt.username, "hash", tt.role); !errors.Is(err, tt.want) {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	if n, _ := CountUsers(ctx, database); n != 1 {
		t.Errorf("expected 1 user, got %d", n)
	}
}

func TestListUsersSortedByName(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"mwangi", "Achieng", "kamau"} {
		CreateUser(ctx, database, name, "hash", model.RoleUser)
	}

	users, err := ListUsers(ctx, database)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	var names []string
	for _, u := range users {
		names = append(names, u.Username)
	}
	if len(names) != 3 || names[0] != "Achieng" || names[1] != "kamau" || names[2] != "mwangi" {
		t.Errorf("unexpected order %v", names)
	}
}

func TestUpdateUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "pwuser", "oldhash", model.RoleUser)

	if err := UpdateUserPassword(ctx, database, user.ID, "newhash"); err != nil {
		t.Fatalf("UpdateUserPassword: %v", err)
	}
	if err := UpdateUser(ctx, database, user.ID, model.RoleManager); err != nil {
		t.Fatalf("UpdateUser: %v", err)
	}
	got, _ := GetUser(ctx, database, user.ID)
	if got.PasswordHash != "newhash" || got.Role != model.RoleManager {
		t.Errorf("update not applied: %+v", got)
	}

	if err := UpdateUser(ctx, database, user.ID, "owner"); !errors.Is(err, model.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
	if err := UpdateUser(ctx, database, 999, model.RoleUser); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	user, _ := CreateUser(ctx, database, "deleteme", "hash", model.RoleUser)

	if err := DeleteUser(ctx, database, user.ID); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if users, _ := ListUsers(ctx, database); len(users) != 0 {
		t.Errorf("expected no active users, got %d", len(users))
	}

	got, _ := GetUser(ctx, database, user.ID)
	if got == nil || got.DeletedAt == nil {
		t.Error("deleted user should still be readable by id")
	}

	if err := DeleteUser(ctx, database, user.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if err := UpdateUserPassword(ctx, database, user.ID, "x"); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("password of deleted user: expected ErrNotFound, got %v", err)
	}
	if _, err := CreateUser(ctx, database, "deleteme", "hash", model.RoleUser); !errors.Is(err, model.ErrIntegrity) {
		t.Errorf("reusing a deleted username: expected ErrIntegrity, got %v", err)
	}
}
