package web

import "testing"

func TestAuthenticator_Enabled(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		username string
		password string
		want     bool
	}{
		{name: "both set", username: "user", password: "pass", want: true},
		{name: "empty username", username: "", password: "pass", want: false},
		{name: "empty password", username: "user", password: "", want: false},
		{name: "both empty", username: "", password: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			auth := NewAuthenticator(tt.username, tt.password)
			if got := auth.Enabled(); got != tt.want {
				t.Errorf("Enabled(): got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthenticator_Verify(t *testing.T) {
	t.Parallel()

	auth := NewAuthenticator("testuser", "testpass")

	tests := []struct {
		name string
		user string
		pass string
		want bool
	}{
		{name: "match", user: "testuser", pass: "testpass", want: true},
		{name: "wrong password", user: "testuser", pass: "wrongpass", want: false},
		{name: "wrong username", user: "other", pass: "testpass", want: false},
		{name: "prefix of password", user: "testuser", pass: "test", want: false},
		{name: "empty", user: "", pass: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := auth.Verify(tt.user, tt.pass); got != tt.want {
				t.Errorf("Verify(%q, %q): got %v, want %v", tt.user, tt.pass, got, tt.want)
			}
		})
	}
}
