package domain

import "time"

// AnnonceStatus is the listing lifecycle state.
type AnnonceStatus string

const (
	StatusBrouillon AnnonceStatus = "brouillon"
	StatusActif     AnnonceStatus = "actif"
	StatusTermine   AnnonceStatus = "termine"
	StatusRetire    AnnonceStatus = "retire"
)

func (s AnnonceStatus) Valid() bool {
	switch s {
	case StatusBrouillon, StatusActif, StatusTermine, StatusRetire:
		return true
	}
	return false
}

// Contact is the public point of contact published with a listing.
type Contact struct {
	Nom       string `json:"nom"`
	Telephone string `json:"telephone"`
	Email     string `json:"email"`
	WhatsApp  string `json:"whatsapp,omitempty"`
}

// Localisation places the property geographically.
type Localisation struct {
	Ville     string   `json:"ville,omitempty"`
	Commune   string   `json:"commune,omitempty"`
	Adresse   string   `json:"adresse,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Transaction carries the commercial terms.
type Transaction struct {
	TypeTransaction string  `json:"typeTransaction"`
	Prix            float64 `json:"prix"`
	Devise          string  `json:"devise,omitempty"`
	PrixNegociable  bool    `json:"prixNegociable,omitempty"`
	Caution         string  `json:"caution,omitempty"`
}

// Composition counts the rooms of the property. NombrePieces is derived
// (chambres + salons) and excludes kitchen, bathrooms, WC and corridors.
type Composition struct {
	NombrePieces     int  `json:"nombrePieces"`
	NombreChambres   int  `json:"nombreChambres"`
	NombreSallesBain int  `json:"nombreSallesBain"`
	NombreSallesEau  int  `json:"nombreSallesEau"`
	NombreWC         int  `json:"nombreWC"`
	NombreSalons     int  `json:"nombreSalons"`
	Balcon           bool `json:"balcon,omitempty"`
	SalleManger      bool `json:"salleManger,omitempty"`
	Parking          bool `json:"parking,omitempty"`
	Garage           bool `json:"garage,omitempty"`
}

// Batiment describes the building itself.
type Batiment struct {
	Etage            string `json:"etage,omitempty"`
	NombreEtages     int    `json:"nombreEtages,omitempty"`
	Ascenseur        bool   `json:"ascenseur,omitempty"`
	AnneeConstruction int   `json:"anneConstruction,omitempty"`
	EtatConstruction string `json:"etatConstruction,omitempty"`
	TypeConstruction string `json:"typeConstruction,omitempty"`
	Gardien          bool   `json:"gardien,omitempty"`
}

// EquipementsInterieurs lists the interior amenities.
type EquipementsInterieurs struct {
	CuisineEquipee bool `json:"cuisineEquipee,omitempty"`
	Refrigerateur  bool `json:"refrigerateur,omitempty"`
	MicroOndes     bool `json:"microOndes,omitempty"`
	Baignoire      bool `json:"baignoire,omitempty"`
	Jacuzzi        bool `json:"jacuzzi,omitempty"`
	Climatisation  bool `json:"climatisation,omitempty"`
}

// EquipementsExterieurs lists the exterior amenities.
type EquipementsExterieurs struct {
	Jardin   bool `json:"jardin,omitempty"`
	Terrasse bool `json:"terrasse,omitempty"`
	Balcon   bool `json:"balcon,omitempty"`
	Piscine  bool `json:"piscine,omitempty"`
	Garage   bool `json:"garage,omitempty"`
	Parking  bool `json:"parking,omitempty"`
}

// Visibilite carries the promotion flags.
type Visibilite struct {
	Exclusif  bool `json:"exclusif,omitempty"`
	EnVedette bool `json:"enVedette,omitempty"`
}

// Media is one uploaded file descriptor attached to a listing, as returned
// by the GED batch upload endpoint.
type Media struct {
	OriginalName  string `json:"original_name"`
	Filename      string `json:"filename"`
	Size          int64  `json:"size"`
	SizeFormatted string `json:"size_formatted,omitempty"`
	MimeType      string `json:"mime_type"`
	Path          string `json:"path,omitempty"`
	URL           string `json:"url,omitempty"`
}

// Annonce is a property listing.
type Annonce struct {
	ID        string        `json:"-" db:"id"`
	Key       string        `json:"key" db:"key"`
	Reference string        `json:"reference" db:"reference"`
	Statut    AnnonceStatus `json:"statut" db:"statut"`

	Titre             string `json:"titre" db:"titre"`
	DescriptionCourte string `json:"descriptionCourte,omitempty" db:"description_courte"`
	Usage             string `json:"usage" db:"usage"`

	Contact               Contact               `json:"contact" db:"contact"`
	Localisation          Localisation          `json:"localisation" db:"localisation"`
	Transaction           Transaction           `json:"transaction" db:"transaction"`
	Composition           Composition           `json:"composition" db:"composition"`
	Batiment              Batiment              `json:"batiment" db:"batiment"`
	EquipementsInterieurs EquipementsInterieurs `json:"equipementsInterieurs" db:"equipements_interieurs"`
	EquipementsExterieurs EquipementsExterieurs `json:"equipementsExterieurs" db:"equipements_exterieurs"`
	Visibilite            Visibilite            `json:"visibilite" db:"visibilite"`

	Medias []Media `json:"medias" db:"medias"`

	CreatedBy string `json:"createdBy,omitempty" db:"created_by"`

	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}
