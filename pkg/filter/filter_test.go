package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/foliodb/folio/pkg/model"
)

func rec(tags ...model.Tag) model.Dict { return model.NewDict(tags...) }

func TestHasMatches(t *testing.T) {
	d := rec(model.Tag{Name: "site", Value: model.Marker})
	assert.True(t, Has{Name: "site"}.Matches(d))
	assert.False(t, Has{Name: "equip"}.Matches(d))
}

func TestEqMatches(t *testing.T) {
	d := rec(model.Tag{Name: "dis", Value: model.StrVal("Lobby")})
	assert.True(t, Eq{Name: "dis", Value: model.StrVal("Lobby")}.Matches(d))
	assert.False(t, Eq{Name: "dis", Value: model.StrVal("Other")}.Matches(d))
	assert.False(t, Eq{Name: "missing", Value: model.StrVal("x")}.Matches(d))
}

func TestAndOrNot(t *testing.T) {
	d := rec(
		model.Tag{Name: "site", Value: model.Marker},
		model.Tag{Name: "area", Value: model.Num(10)},
	)
	assert.True(t, And{Has{Name: "site"}, Has{Name: "area"}}.Matches(d))
	assert.False(t, And{Has{Name: "site"}, Has{Name: "equip"}}.Matches(d))
	assert.True(t, Or{Has{Name: "equip"}, Has{Name: "site"}}.Matches(d))
	assert.True(t, Not{Operand: Has{Name: "equip"}}.Matches(d))
}

func TestSimpleHasTagRecognizesBareIdentifier(t *testing.T) {
	tag, ok := SimpleHasTag(Has{Name: "site"})
	assert.True(t, ok)
	assert.Equal(t, "site", tag)
}

func TestSimpleHasTagRejectsCompoundPredicates(t *testing.T) {
	_, ok := SimpleHasTag(And{Has{Name: "site"}, Has{Name: "equip"}})
	assert.False(t, ok)

	_, ok = SimpleHasTag(Eq{Name: "dis", Value: model.StrVal("x")})
	assert.False(t, ok)

	_, ok = SimpleHasTag(Not{Operand: Has{Name: "site"}})
	assert.False(t, ok)
}

func TestSimpleHasTagRejectsLeadingDigit(t *testing.T) {
	_, ok := SimpleHasTag(Has{Name: "123abc"})
	assert.False(t, ok)
}
