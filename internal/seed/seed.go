// Package seed loads the demonstration catalog and accounts.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-reservation/internal/application"
	"github.com/example/room-reservation/internal/persistence"
	"github.com/example/room-reservation/internal/scheduler"
)

// DemoPassword is the password of every demo account.
const DemoPassword = "password"

// Target is where demo data is written. storeadapter.Adapter satisfies it.
type Target interface {
	application.RoomCatalog
	application.CredentialStore
	CreateUser(ctx context.Context, user application.User, passwordHash string) error
	CreateRoom(ctx context.Context, room application.Room) error
}

// Options overrides the clock, id source and hasher.
type Options struct {
	Now    func() time.Time
	NewID  func() string
	Hash   func(password string) (string, error)
	Logger *slog.Logger
}

// Result counts what was inserted.
type Result struct {
	Users int
	Rooms int
}

// DemoUsers are the accounts of the original demo.
func DemoUsers() []application.User {
	return []application.User{
		{Email: "prof@university.fr", DisplayName: "Dr. Dupont", Role: scheduler.RoleProfessor},
		{Email: "admin@university.fr", DisplayName: "Admin Martin", Role: scheduler.RoleAdmin},
	}
}

// DemoRooms is the original six-room catalog.
func DemoRooms() []application.Room {
	return []application.Room{
		{
			Name:        "Salle A101",
			Description: "Salle de cours standard équipée d'un vidéoprojecteur",
			Location:    "Bâtiment Central",
			Capacity:    30,
			Features:    []string{"Vidéoprojecteur", "Tableau blanc", "Wi-Fi"},
		},
		{
			Name:        "Salle B201",
			Description: "Salle informatique",
			Location:    "Annexe 1",
			Capacity:    20,
			Features:    []string{"PC", "Vidéoprojecteur", "Tableau interactif"},
		},
		{
			Name:        "Amphithéâtre C1",
			Description: "Grand amphithéâtre pour les cours magistraux",
			Location:    "Bâtiment Central",
			Capacity:    150,
			Features:    []string{"Système audio", "Vidéoprojecteur", "Microphones"},
		},
		{
			Name:        "Salle D105",
			Description: "Salle de travaux pratiques",
			Location:    "Annexe 2",
			Capacity:    25,
			Features:    []string{"Équipement scientifique", "Tableau blanc", "Wi-Fi"},
		},
		{
			Name:        "Salle E302",
			Description: "Salle de réunion",
			Location:    "Annexe 1",
			Capacity:    15,
			Features:    []string{"Table ronde", "Écran LCD", "Wi-Fi"},
		},
		{
			Name:        "Laboratoire F110",
			Description: "Laboratoire technique",
			Location:    "Annexe 2",
			Capacity:    30,
			Features:    []string{"PC spécialisés", "Logiciels techniques", "Vidéoprojecteur"},
		},
	}
}

// Demo inserts the demo accounts and, when the catalog is empty, the demo
// rooms. Accounts whose email already exists are left alone, so running it
// twice is harmless.
func Demo(ctx context.Context, target Target, opts Options) (Result, error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Hash == nil {
		opts.Hash = application.HashPassword
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var result Result
	for _, user := range DemoUsers() {
		_, err := target.GetUserCredentialsByEmail(ctx, user.Email)
		if err == nil {
			continue
		}
		if !isNotFound(err) {
			return result, fmt.Errorf("seed: look up %s: %w", user.Email, err)
		}

		hash, err := opts.Hash(DemoPassword)
		if err != nil {
			return result, fmt.Errorf("seed: hash password: %w", err)
		}
		now := opts.Now().UTC()
		user.ID = opts.NewID()
		user.CreatedAt, user.UpdatedAt = now, now
		if err := target.CreateUser(ctx, user, hash); err != nil {
			return result, fmt.Errorf("seed: create user %s: %w", user.Email, err)
		}
		result.Users++
	}

	existing, err := target.ListRooms(ctx)
	if err != nil {
		return result, fmt.Errorf("seed: list rooms: %w", err)
	}
	if len(existing) == 0 {
		for _, room := range DemoRooms() {
			now := opts.Now().UTC()
			room.ID = opts.NewID()
			room.CreatedAt, room.UpdatedAt = now, now
			if err := target.CreateRoom(ctx, room); err != nil {
				return result, fmt.Errorf("seed: create room %s: %w", room.Name, err)
			}
			result.Rooms++
		}
	}

	logger.InfoContext(ctx, "demo data seeded", "users", result.Users, "rooms", result.Rooms)
	return result, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, persistence.ErrNotFound) || errors.Is(err, application.ErrNotFound)
}
