package models_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tw1zzzzz/CisBot2-sub001/internal/models"
)

func TestDecodeStringList(t *testing.T) {
	assert.Equal(t, []string{"mirage", "dust2"}, models.DecodeStringList(`["mirage","dust2"]`, "favorite_maps"))
	assert.Equal(t, []string{}, models.DecodeStringList("", "favorite_maps"))
	assert.Equal(t, []string{}, models.DecodeStringList("not-json", "favorite_maps"))
	assert.Equal(t, []string{}, models.DecodeStringList(`{"a":1}`, "favorite_maps"))
}

func TestEncodeStringList(t *testing.T) {
	assert.Equal(t, `["mirage"]`, models.EncodeStringList([]string{"mirage"}))
	// nil must be stored as an empty array, never SQL NULL.
	assert.Equal(t, `[]`, models.EncodeStringList(nil))
}

func TestNewProfile_StartsPending(t *testing.T) {
	p := models.NewProfile(1, "ace", 2450, "https://example.com/p/ace", "igl",
		[]string{"mirage"}, []string{"evening"}, []string{"matchmaking"}, nil)

	assert.Equal(t, "pending", p.ModerationStatus)
	assert.False(t, p.IsApproved())
	assert.False(t, p.HasMedia())
}

func TestProfile_HasMedia(t *testing.T) {
	p := models.NewProfile(1, "ace", 2450, "", "igl", nil, nil, nil, nil)

	mediaType := "photo"
	fileID := "file-123"
	p.MediaType = &mediaType
	assert.False(t, p.HasMedia(), "type without file id is not media")

	p.MediaFileID = &fileID
	assert.True(t, p.HasMedia())
}

func TestProfileUpdate_IsEmpty(t *testing.T) {
	assert.True(t, (&models.ProfileUpdate{}).IsEmpty())

	rating := 3000
	assert.False(t, (&models.ProfileUpdate{Rating: &rating}).IsEmpty())
}

func TestProfile_Apply(t *testing.T) {
	p := models.NewProfile(1, "ace", 2450, "", "igl",
		[]string{"mirage"}, []string{"evening"}, nil, nil)
	before := p.UpdatedAt

	rating := 2600
	role := "entry"
	maps := []string{"dust2", "inferno"}
	p.Apply(&models.ProfileUpdate{
		Rating:       &rating,
		Role:         &role,
		FavoriteMaps: &maps,
	})

	assert.Equal(t, 2600, p.Rating)
	assert.Equal(t, "entry", p.Role)
	assert.Equal(t, []string{"dust2", "inferno"}, p.FavoriteMaps)
	// Untouched fields stay put.
	assert.Equal(t, "ace", p.GameNickname)
	assert.Equal(t, []string{"evening"}, p.PlaytimeSlots)
	assert.False(t, p.UpdatedAt.Before(before))
}

func TestMatch_CanonicalPairAndPartner(t *testing.T) {
	lo, hi := models.CanonicalPair(9, 3)
	assert.Equal(t, int64(3), lo)
	assert.Equal(t, int64(9), hi)

	lo, hi = models.CanonicalPair(3, 9)
	assert.Equal(t, int64(3), lo)
	assert.Equal(t, int64(9), hi)

	m := &models.Match{User1ID: 3, User2ID: 9}
	assert.Equal(t, int64(9), m.Partner(3))
	assert.Equal(t, int64(3), m.Partner(9))
}
