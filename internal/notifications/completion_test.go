package notifications

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/gloriosas/wellness/internal/team"
)

func submittedNames(names ...string) *Submissions {
	s := NewSubmissions()
	for _, n := range names {
		s.Add(nil, n)
	}
	return s
}

func TestMissing_Complement(t *testing.T) {
	roster := []string{"A", "B", "C", "D"}

	missing := Missing(roster, submittedNames("A", "C"))
	assert.Equal(t, []string{"B", "D"}, missing)
	assert.Equal(t, "Faltan: B, D", MissingMessage(missing))
}

func TestMissing_Properties(t *testing.T) {
	roster := []string{"A", "B", "C", "D", "E"}
	cases := [][]string{
		{},
		{"A"},
		{"A", "Z"},
		{"E", "D", "C", "B", "A"},
		{"A", "B", "C", "D", "E", "F"},
	}
	for _, sub := range cases {
		s := submittedNames(sub...)
		missing := Missing(roster, s)

		inter := 0
		for _, name := range roster {
			if s.HasName(name) {
				inter++
			}
		}
		assert.Len(t, missing, len(roster)-inter, "submitted=%v", sub)
		for _, name := range missing {
			assert.False(t, s.HasName(name))
		}
	}

	assert.Empty(t, Missing(roster, submittedNames("A", "B", "C", "D", "E", "F")))
}

func TestMissing_TypoReadsAsMissing(t *testing.T) {
	missing := Missing([]string{"Izaro Tores"}, submittedNames("Izaro Torres"))
	assert.Equal(t, []string{"Izaro Tores"}, missing)
}

func TestMissingMessage(t *testing.T) {
	assert.Equal(t, "Faltan: A", MissingMessage([]string{"A"}))
	assert.Equal(t, "Faltan: A, B, C", MissingMessage([]string{"A", "B", "C"}))
	assert.Equal(t, "Faltan 5: A, B...", MissingMessage([]string{"A", "B", "C", "D", "E"}))
	assert.NotEmpty(t, MissingMessage(nil))
}

func TestSubmissions_HasUser(t *testing.T) {
	id := uuid.New()
	s := NewSubmissions()
	s.Add(&id, "Ana Renamed")

	assert.True(t, s.HasUser(team.User{ID: id, Name: "Ana"}))
	assert.True(t, s.HasName("Ana Renamed"))
	assert.False(t, s.HasUser(team.User{ID: uuid.New(), Name: "Ana"}))

	var none *Submissions
	assert.False(t, none.HasName("Ana"))
	assert.Equal(t, 0, none.Len())
}
