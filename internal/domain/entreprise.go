package domain

import "time"

// LogoFile describes a file stored in the GED, as returned by its upload
// endpoints.
type LogoFile struct {
	OriginalName  string    `json:"original_name"`
	Filename      string    `json:"filename"`
	Size          int64     `json:"size"`
	SizeFormatted string    `json:"size_formatted,omitempty"`
	MimeType      string    `json:"mime_type"`
	Path          string    `json:"path,omitempty"`
	FullPath      string    `json:"full_path,omitempty"`
	URL           string    `json:"url,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Entreprise is an agency profile owned by a responsible user.
type Entreprise struct {
	ID             string    `json:"-" db:"id"`
	Key            string    `json:"key" db:"key"`
	CorporateName  string    `json:"corporateName" db:"corporate_name"`
	RCCM           string    `json:"rccm,omitempty" db:"rccm"`
	Description    string    `json:"description,omitempty" db:"description"`
	Adresse        string    `json:"adresse,omitempty" db:"adresse"`
	Phone          string    `json:"phone,omitempty" db:"phone"`
	OtherPhone     string    `json:"otherPhone,omitempty" db:"other_phone"`
	IsBlocked      bool      `json:"isBlocked" db:"is_blocked"`
	ResponsableKey string    `json:"responsableKey" db:"responsable_key"`
	LogoFile       *LogoFile `json:"logoFile,omitempty" db:"logo_file"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
}
