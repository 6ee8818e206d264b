package seed

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/persistence/memory"
	"github.com/example/room-reservation/internal/persistence/storeadapter"
	"github.com/example/room-reservation/internal/scheduler"
)

func testOptions() Options {
	n := 0
	return Options{
		Now: func() time.Time { return time.Date(2025, time.April, 1, 8, 0, 0, 0, time.UTC) },
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%02d", n)
		},
		Hash: func(password string) (string, error) { return "hash:" + password, nil },
	}
}

func TestDemo(t *testing.T) {
	ctx := context.Background()
	target := storeadapter.New(memory.New())

	result, err := Demo(ctx, target, testOptions())
	require.NoError(t, err)
	assert.Equal(t, Result{Users: 2, Rooms: 6}, result)

	creds, err := target.GetUserCredentialsByEmail(ctx, "PROF@university.fr")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Dupont", creds.User.DisplayName)
	assert.Equal(t, scheduler.RoleProfessor, creds.User.Role)
	assert.Equal(t, "hash:password", creds.PasswordHash)

	admin, err := target.GetUserCredentialsByEmail(ctx, "admin@university.fr")
	require.NoError(t, err)
	assert.Equal(t, scheduler.RoleAdmin, admin.User.Role)

	rooms, err := target.ListRooms(ctx)
	require.NoError(t, err)
	require.Len(t, rooms, 6)
	byName := make(map[string]application.Room, len(rooms))
	for _, r := range rooms {
		byName[r.Name] = r
	}
	amphi := byName["Amphithéâtre C1"]
	assert.Equal(t, 150, amphi.Capacity)
	assert.True(t, amphi.HasFeature("microphones"))
	assert.Equal(t, "Salle de cours standard équipée d'un vidéoprojecteur", byName["Salle A101"].Description)
}

func TestDemoIsIdempotent(t *testing.T) {
	ctx := context.Background()
	target := storeadapter.New(memory.New())

	_, err := Demo(ctx, target, testOptions())
	require.NoError(t, err)

	opts := testOptions()
	opts.NewID = func() string { return "again-" + time.Now().String() }
	result, err := Demo(ctx, target, opts)
	require.NoError(t, err)
	assert.Equal(t, Result{}, result)

	users, err := target.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestDemoPasswordsVerify(t *testing.T) {
	ctx := context.Background()
	target := storeadapter.New(memory.New())
	opts := testOptions()
	opts.Hash = func(password string) (string, error) {
		return application.CreatePasswordHash(password, application.PasswordParams{
			Memory: 1024, Iterations: 1, Parallelism: 1, SaltLength: 8, KeyLength: 16,
		})
	}

	_, err := Demo(ctx, target, opts)
	require.NoError(t, err)

	creds, err := target.GetUserCredentialsByEmail(ctx, "prof@university.fr")
	require.NoError(t, err)
	assert.NoError(t, application.VerifyPassword(creds.PasswordHash, DemoPassword))
}
