package engine

import (
	"context"
	"testing"

	userdomain "tenant-auth-core/internal/user/domain"
)

func TestAuthorize(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("evaluator: %v", err)
	}
	ctx := context.Background()

	active := func(role userdomain.Role) *userdomain.User {
		return &userdomain.User{ID: "u1", Role: role, Status: userdomain.UserStatusActive}
	}

	cases := []struct {
		name     string
		user     *userdomain.User
		required []userdomain.Role
		want     bool
	}{
		{"role in set", active(userdomain.RoleManager), []userdomain.Role{userdomain.RoleManager}, true},
		{"role in larger set", active(userdomain.RoleUser), []userdomain.Role{userdomain.RoleUser, userdomain.RoleManager}, true},
		{"role not in set", active(userdomain.RoleUser), []userdomain.Role{userdomain.RoleAdmin}, false},
		{"admin is not manager", active(userdomain.RoleAdmin), []userdomain.Role{userdomain.RoleManager}, false},
		{"empty set", active(userdomain.RoleAdmin), nil, false},
		{"nil user", nil, []userdomain.Role{userdomain.RoleUser}, false},
		{
			"inactive user",
			&userdomain.User{ID: "u2", Role: userdomain.RoleAdmin, Status: userdomain.UserStatusDisabled},
			[]userdomain.Role{userdomain.RoleAdmin},
			false,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := e.Authorize(ctx, tc.user, tc.required)
			if err != nil {
				t.Fatalf("authorize: %v", err)
			}
			if got != tc.want {
				t.Errorf("allow = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	e, err := NewOPAEvaluator()
	if err != nil {
		t.Fatalf("evaluator: %v", err)
	}
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Errorf("health check: %v", err)
	}
}
