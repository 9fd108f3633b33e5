package dto

import (
	"bytes"
	"encoding/json"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/mbayedev/immoka/internal/domain"
)

// DecodeSection decodes raw into dest, accepting either a JSON value or a
// JSON string containing an encoded value. Multipart clients routinely send
// nested sections double-encoded.
func DecodeSection(raw []byte, dest any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return fmt.Errorf("invalid section encoding: %w", err)
		}
		raw = bytes.TrimSpace([]byte(inner))
		if len(raw) == 0 {
			return nil
		}
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("invalid section payload: %w", err)
	}
	return nil
}

// CreateAnnonceRequest carries a new listing. It arrives as a multipart form
// whose section fields hold JSON, alongside the media files.
type CreateAnnonceRequest struct {
	Titre             string `json:"titre"`
	DescriptionCourte string `json:"descriptionCourte"`
	Usage             string `json:"usage"`
	Statut            string `json:"statut"`

	Contact               domain.Contact               `json:"contact"`
	Localisation          domain.Localisation          `json:"localisation"`
	Transaction           domain.Transaction           `json:"transaction"`
	Composition           domain.Composition           `json:"composition"`
	Batiment              domain.Batiment              `json:"batiment"`
	EquipementsInterieurs domain.EquipementsInterieurs `json:"equipementsInterieurs"`
	EquipementsExterieurs domain.EquipementsExterieurs `json:"equipementsExterieurs"`
	Visibilite            domain.Visibilite            `json:"visibilite"`
}

// Validate checks the request before it reaches the service.
func (r CreateAnnonceRequest) Validate() error {
	err := validation.ValidateStruct(&r,
		validation.Field(&r.Titre, validation.Required, validation.Length(3, 200)),
		validation.Field(&r.Usage, validation.Required),
		validation.Field(&r.Statut, validation.In("", "brouillon", "actif")),
	)
	if err != nil {
		return err
	}

	return validation.ValidateStruct(&r.Transaction,
		validation.Field(&r.Transaction.TypeTransaction, validation.Required),
		validation.Field(&r.Transaction.Prix, validation.Required, validation.Min(0.0)),
	)
}

// ToAnnonce builds the domain aggregate. The room count is derived from
// bedrooms and living rooms, never taken from the client.
func (r CreateAnnonceRequest) ToAnnonce(createdBy string) *domain.Annonce {
	statut := domain.AnnonceStatus(r.Statut)
	if statut == "" {
		statut = domain.StatusBrouillon
	}

	composition := r.Composition
	composition.NombrePieces = composition.NombreChambres + composition.NombreSalons

	return &domain.Annonce{
		Statut:                statut,
		Titre:                 r.Titre,
		DescriptionCourte:     r.DescriptionCourte,
		Usage:                 r.Usage,
		Contact:               r.Contact,
		Localisation:          r.Localisation,
		Transaction:           r.Transaction,
		Composition:           composition,
		Batiment:              r.Batiment,
		EquipementsInterieurs: r.EquipementsInterieurs,
		EquipementsExterieurs: r.EquipementsExterieurs,
		Visibilite:            r.Visibilite,
		CreatedBy:             createdBy,
	}
}

// UpdateAnnonceStatusRequest moves a listing to a new lifecycle status.
type UpdateAnnonceStatusRequest struct {
	Statut string `json:"statut" binding:"required"`
}

// Validate checks the requested status against the lifecycle enum.
func (r UpdateAnnonceStatusRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Statut, validation.Required,
			validation.In("brouillon", "actif", "termine", "retire")),
	)
}
