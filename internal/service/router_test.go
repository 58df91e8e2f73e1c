package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unclebandit/wa-router/internal/menu"
)

func TestDecideFromMain(t *testing.T) {
	c := menu.Default()
	r := NewRouter(c)

	d := r.Decide(MainState(), " 2 ")
	assert.Equal(t, c.SubmenuText(menu.AreaAlumnos), d.Reply)
	assert.Equal(t, SubmenuState(menu.AreaAlumnos), d.Next)
	assert.Nil(t, d.Derivation)

	for _, in := range []string{"", "hola", "99", "21", "2.", "02"} {
		d := r.Decide(MainState(), in)
		assert.Equal(t, c.MainMenuText(), d.Reply, in)
		assert.Equal(t, MainState(), d.Next, in)
		assert.Nil(t, d.Derivation, in)
	}
}

func TestDecideDirectDerivation(t *testing.T) {
	c := menu.Default()
	d := NewRouter(c).Decide(MainState(), "5")
	require.NotNil(t, d.Derivation)
	assert.Equal(t, Derivation{Area: menu.AreaVentas, Subarea: menu.AreaOtraConsulta}, *d.Derivation)
	assert.Equal(t, MenuDerived, d.Next.Kind)
	assert.Equal(t, c.DerivationText(menu.AreaVentas, menu.AreaOtraConsulta), d.Reply)
}

func TestDecideFromSubmenu(t *testing.T) {
	c := menu.Default()
	r := NewRouter(c)
	state := SubmenuState(menu.AreaAdministracion)

	d := r.Decide(state, "15")
	require.NotNil(t, d.Derivation)
	assert.Equal(t, Derivation{Area: menu.AreaAdministracion, Subarea: "Otra"}, *d.Derivation)

	d = r.Decide(SubmenuState(menu.AreaInscripciones), "32")
	require.NotNil(t, d.Derivation)
	assert.Equal(t, menu.AreaVentas, d.Derivation.Area)
	assert.Equal(t, "Posgrado", d.Derivation.Subarea)

	// codes of another area are not valid here
	for _, in := range []string{"21", "1", "99", ""} {
		d := r.Decide(state, in)
		assert.Equal(t, c.SubmenuText(menu.AreaAdministracion), d.Reply, in)
		assert.Equal(t, state, d.Next, in)
		assert.Nil(t, d.Derivation, in)
	}
}

func TestDecideCommands(t *testing.T) {
	c := menu.Default()
	r := NewRouter(c)
	for _, in := range []string{"MENU", "menu", " Menu ", "VOLVER", "volver"} {
		for _, s := range []State{MainState(), SubmenuState(menu.AreaComunidad)} {
			d := r.Decide(s, in)
			assert.Equal(t, c.MainMenuText(), d.Reply)
			assert.Equal(t, MainState(), d.Next)
		}
	}
}

func TestDecideUnknownSubmenuAreaFallsBackToMain(t *testing.T) {
	c := menu.Default()
	d := NewRouter(c).Decide(SubmenuState("Rectorado"), "3")
	assert.Equal(t, SubmenuState(menu.AreaInscripciones), d.Next)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "main", MainState().String())
	assert.Equal(t, "Alumnos", SubmenuState("Alumnos").String())
	assert.Equal(t, "derived", State{Kind: MenuDerived}.String())
}
