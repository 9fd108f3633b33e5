package dto

import (
	"testing"

	"github.com/mbayedev/immoka/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSection_Object(t *testing.T) {
	var contact domain.Contact
	err := DecodeSection([]byte(`{"nom":"Awa Diop","telephone":"+221770000000","email":"awa@example.com"}`), &contact)
	require.NoError(t, err)
	assert.Equal(t, "Awa Diop", contact.Nom)
	assert.Equal(t, "+221770000000", contact.Telephone)
}

func TestDecodeSection_DoubleEncodedString(t *testing.T) {
	var transaction domain.Transaction
	err := DecodeSection([]byte(`"{\"typeTransaction\":\"location\",\"prix\":250000}"`), &transaction)
	require.NoError(t, err)
	assert.Equal(t, "location", transaction.TypeTransaction)
	assert.Equal(t, float64(250000), transaction.Prix)
}

func TestDecodeSection_EmptyAndInvalid(t *testing.T) {
	var contact domain.Contact
	require.NoError(t, DecodeSection(nil, &contact))
	require.NoError(t, DecodeSection([]byte("  "), &contact))
	require.NoError(t, DecodeSection([]byte(`""`), &contact))

	assert.Error(t, DecodeSection([]byte(`{broken`), &contact))
	assert.Error(t, DecodeSection([]byte(`"{broken"`), &contact))
}

func TestCreateAnnonceRequest_Validate(t *testing.T) {
	valid := CreateAnnonceRequest{
		Titre: "Appartement F4 aux Almadies",
		Usage: "habitation",
		Transaction: domain.Transaction{
			TypeTransaction: "location",
			Prix:            450000,
		},
	}
	require.NoError(t, valid.Validate())

	missingTitle := valid
	missingTitle.Titre = ""
	assert.Error(t, missingTitle.Validate())

	badStatus := valid
	badStatus.Statut = "archive"
	assert.Error(t, badStatus.Validate())

	missingPrice := valid
	missingPrice.Transaction.Prix = 0
	assert.Error(t, missingPrice.Validate())
}

func TestToAnnonce_DerivesRoomCount(t *testing.T) {
	req := CreateAnnonceRequest{
		Titre: "Villa a Ngor",
		Usage: "habitation",
		Composition: domain.Composition{
			NombrePieces:   99,
			NombreChambres: 3,
			NombreSalons:   2,
			NombreWC:       2,
		},
	}

	annonce := req.ToAnnonce("user-key")
	assert.Equal(t, 5, annonce.Composition.NombrePieces)
	assert.Equal(t, domain.StatusBrouillon, annonce.Statut)
	assert.Equal(t, "user-key", annonce.CreatedBy)
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(45, 2, 10)
	assert.Equal(t, 5, p.Pages)
	assert.True(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)

	first := NewPagination(45, 1, 10)
	assert.False(t, first.HasPrevPage)
	assert.True(t, first.HasNextPage)

	last := NewPagination(45, 5, 10)
	assert.False(t, last.HasNextPage)

	empty := NewPagination(0, 1, 10)
	assert.Equal(t, 0, empty.Pages)
	assert.False(t, empty.HasNextPage)
	assert.False(t, empty.HasPrevPage)
}
