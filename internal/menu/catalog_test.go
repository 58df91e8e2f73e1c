package menu

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogCodes(t *testing.T) {
	c := Default()

	mains := map[string]string{
		"1": AreaAdministracion,
		"2": AreaAlumnos,
		"3": AreaInscripciones,
		"4": AreaComunidad,
		"5": AreaOtraConsulta,
	}
	for code, area := range mains {
		o, ok := c.MainOption(code)
		require.True(t, ok, "code %s", code)
		assert.Equal(t, area, o.Area)
	}

	ranges := map[string][2]int{
		AreaAdministracion: {11, 15},
		AreaAlumnos:        {21, 26},
		AreaInscripciones:  {31, 36},
		AreaComunidad:      {41, 47},
	}
	for area, r := range ranges {
		for code := r[0]; code <= r[1]; code++ {
			s, ok := c.SubOption(area, itoa(code))
			require.True(t, ok, "%s %d", area, code)
			assert.Equal(t, area, s.Area)
			assert.NotEmpty(t, s.Subarea)
		}
		_, ok := c.SubOption(area, itoa(r[1]+1))
		assert.False(t, ok)
	}

	s, ok := c.SubOption(AreaAdministracion, "15")
	require.True(t, ok)
	assert.Equal(t, "Otra", s.Subarea)
}

func TestMatchingIsExact(t *testing.T) {
	c := Default()

	for _, code := range []string{" 1", "1 ", "01", "1.", "uno"} {
		_, ok := c.MainOption(code)
		assert.False(t, ok, "code %q", code)
	}
	_, ok := c.SubOption(AreaAlumnos, "2")
	assert.False(t, ok)
	_, ok = c.SubOption(AreaAlumnos, "11")
	assert.False(t, ok, "sub-codes are scoped to their area")
}

func TestMenuCopyCarriesSentinels(t *testing.T) {
	c := Default()

	main := c.MainMenuText()
	assert.True(t, c.IsMainMenu(main))
	assert.False(t, c.IsDerivation(main))
	_, isSub := c.SubmenuArea(main)
	assert.False(t, isSub)
	assert.Contains(t, main, "1. Administración")
	assert.Contains(t, main, "5. Otra consulta")

	for _, area := range c.submenuAreas() {
		text := c.SubmenuText(area)
		assert.True(t, strings.HasPrefix(text, area+":"), text)
		got, ok := c.SubmenuArea(text)
		require.True(t, ok)
		assert.Equal(t, area, got)
		assert.False(t, c.IsMainMenu(text))
		assert.False(t, c.IsDerivation(text))
	}

	derived := c.DerivationText(AreaVentas, "Grado")
	assert.True(t, c.IsDerivation(derived))
	assert.False(t, c.IsMainMenu(derived))
	assert.Contains(t, derived, "Ventas (Grado)")
}

func TestSubmenuAreasOrder(t *testing.T) {
	assert.Equal(t,
		[]string{AreaAdministracion, AreaAlumnos, AreaInscripciones, AreaComunidad},
		Default().submenuAreas())
	assert.False(t, Default().HasSubmenu(AreaOtraConsulta))
	assert.Empty(t, Default().SubmenuText(AreaOtraConsulta))
}

func TestMapArea(t *testing.T) {
	assert.Equal(t, AreaVentas, MapArea(AreaInscripciones))
	assert.Equal(t, AreaVentas, MapArea(AreaOtraConsulta))
	assert.Equal(t, AreaAdministracion, MapArea(AreaAdministracion))
	assert.Equal(t, AreaAlumnos, MapArea(AreaAlumnos))
	assert.Equal(t, AreaComunidad, MapArea(AreaComunidad))
}

func TestSlug(t *testing.T) {
	assert.Equal(t, "administracion", Slug(AreaAdministracion))
	assert.Equal(t, "otra-consulta", Slug(AreaOtraConsulta))
	assert.Equal(t, "router-default", Slug("router-default"))
	assert.Equal(t, "ventas", Slug(" Ventas "))
}

func TestRenderTemplate(t *testing.T) {
	got := RenderTemplate("Hi {name}, {name} from {area}", map[string]string{"name": "Ana", "area": "Alumnos"})
	assert.Equal(t, "Hi Ana, Ana from Alumnos", got)
}

func itoa(n int) string {
	return string(rune('0'+n/10)) + string(rune('0'+n%10))
}
