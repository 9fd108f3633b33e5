package repository

import (
	"github.com/mbayedev/immoka/pkg/database"
)

// Repositories holds all repository interfaces
type Repositories struct {
	User       UserRepository
	Session    SessionRepository
	Entreprise EntrepriseRepository
	Annonce    AnnonceRepository
}

// NewRepositories creates all repositories
func NewRepositories(db *database.Postgres) *Repositories {
	return &Repositories{
		User:       NewUserRepository(db),
		Session:    NewSessionRepository(db),
		Entreprise: NewEntrepriseRepository(db),
		Annonce:    NewAnnonceRepository(db),
	}
}
