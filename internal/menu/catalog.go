// Package menu holds the static menu tree the router walks: main-menu codes,
// per-area sub-menus, the copy sent for each of them and the sentinel markers
// used to recognise that copy again when reading conversation history.
package menu

import (
	"fmt"
	"strings"
)

// Area names as they appear in menu copy and webhook payloads.
const (
	AreaAdministracion = "Administración"
	AreaAlumnos        = "Alumnos"
	AreaInscripciones  = "Inscripciones"
	AreaComunidad      = "Comunidad"
	AreaOtraConsulta   = "Otra consulta"
	AreaVentas         = "Ventas"
)

// Sentinel markers. Changing the copy that carries them resets every
// in-flight conversation to the main menu.
const (
	MainMenuMarker   = "Elegí el área de tu consulta"
	DerivationMarker = "Te derivamos a"
)

const (
	mainTemplate = "¡Hola! 👋 Gracias por comunicarte con nosotros.\n" +
		"{marker} respondiendo con el número de la opción:\n" +
		"{options}\n\n" +
		"Podés escribir MENU en cualquier momento para volver a este menú."

	submenuTemplate = "{area}:\n" +
		"Elegí una opción respondiendo con su número:\n" +
		"{options}\n\n" +
		"Escribí VOLVER para regresar al menú principal."

	derivationTemplate = "¡Gracias! {marker} {area} ({subarea}). " +
		"En breve una persona del equipo va a continuar la conversación por este medio."
)

// areaMapping maps menu areas to the line-of-business area a conversation is
// handed to. Areas not listed map to themselves.
var areaMapping = map[string]string{
	AreaInscripciones: AreaVentas,
	AreaOtraConsulta:  AreaVentas,
}

// SubOption is a leaf of an area sub-menu.
type SubOption struct {
	Code    string
	Label   string
	Area    string
	Subarea string
}

// Option is an entry of the main menu. Options without sub-options derive
// the conversation directly.
type Option struct {
	Code  string
	Area  string
	Label string
	Subs  []SubOption
}

// Catalog is immutable after construction and safe for concurrent use.
type Catalog struct {
	options []Option
	byCode  map[string]Option
	subs    map[string]map[string]SubOption
}

// New indexes the given options.
func New(options []Option) *Catalog {
	c := &Catalog{
		options: options,
		byCode:  make(map[string]Option, len(options)),
		subs:    make(map[string]map[string]SubOption),
	}
	for _, o := range options {
		c.byCode[o.Code] = o
		if len(o.Subs) == 0 {
			continue
		}
		idx := make(map[string]SubOption, len(o.Subs))
		for _, s := range o.Subs {
			idx[s.Code] = s
		}
		c.subs[o.Area] = idx
	}
	return c
}

// Default returns the production menu tree.
func Default() *Catalog {
	return New([]Option{
		{Code: "1", Area: AreaAdministracion, Label: AreaAdministracion, Subs: subs(AreaAdministracion,
			sub("11", "Pagos y cuotas", "Pagos"),
			sub("12", "Facturación", "Facturación"),
			sub("13", "Becas y descuentos", "Becas"),
			sub("14", "Constancias y certificados", "Certificados"),
			sub("15", "Otra (hablar con una persona)", "Otra"),
		)},
		{Code: "2", Area: AreaAlumnos, Label: AreaAlumnos, Subs: subs(AreaAlumnos,
			sub("21", "Campus virtual", "Campus virtual"),
			sub("22", "Horarios y aulas", "Horarios"),
			sub("23", "Exámenes y notas", "Exámenes"),
			sub("24", "Trámites académicos", "Trámites"),
			sub("25", "Bedelía", "Bedelía"),
			sub("26", "Otra (hablar con una persona)", "Otra"),
		)},
		{Code: "3", Area: AreaInscripciones, Label: AreaInscripciones, Subs: subs(AreaInscripciones,
			sub("31", "Carreras de grado", "Grado"),
			sub("32", "Posgrados", "Posgrado"),
			sub("33", "Cursos y diplomaturas", "Cursos"),
			sub("34", "Requisitos de ingreso", "Requisitos"),
			sub("35", "Aranceles y formas de pago", "Aranceles"),
			sub("36", "Otra (hablar con una persona)", "Otra"),
		)},
		{Code: "4", Area: AreaComunidad, Label: AreaComunidad, Subs: subs(AreaComunidad,
			sub("41", "Eventos", "Eventos"),
			sub("42", "Extensión y voluntariado", "Voluntariado"),
			sub("43", "Graduados", "Graduados"),
			sub("44", "Bolsa de trabajo", "Bolsa de trabajo"),
			sub("45", "Deportes", "Deportes"),
			sub("46", "Biblioteca", "Biblioteca"),
			sub("47", "Otra (hablar con una persona)", "Otra"),
		)},
		{Code: "5", Area: AreaOtraConsulta, Label: AreaOtraConsulta},
	})
}

func sub(code, label, subarea string) SubOption {
	return SubOption{Code: code, Label: label, Subarea: subarea}
}

func subs(area string, list ...SubOption) []SubOption {
	for i := range list {
		list[i].Area = area
	}
	return list
}

// MainOption looks up a main-menu code. Matching is exact.
func (c *Catalog) MainOption(code string) (Option, bool) {
	o, ok := c.byCode[code]
	return o, ok
}

// SubOption looks up a sub-menu code within an area. Matching is exact.
func (c *Catalog) SubOption(area, code string) (SubOption, bool) {
	s, ok := c.subs[area][code]
	return s, ok
}

// HasSubmenu reports whether the area owns a sub-menu.
func (c *Catalog) HasSubmenu(area string) bool {
	_, ok := c.subs[area]
	return ok
}

// submenuAreas lists the areas that own a sub-menu, in menu order.
func (c *Catalog) submenuAreas() []string {
	areas := make([]string, 0, len(c.subs))
	for _, o := range c.options {
		if len(o.Subs) > 0 {
			areas = append(areas, o.Area)
		}
	}
	return areas
}

// MainMenuText renders the top-level menu.
func (c *Catalog) MainMenuText() string {
	lines := make([]string, 0, len(c.options))
	for _, o := range c.options {
		lines = append(lines, fmt.Sprintf("%s. %s", o.Code, o.Label))
	}
	return RenderTemplate(mainTemplate, map[string]string{
		"marker":  MainMenuMarker,
		"options": strings.Join(lines, "\n"),
	})
}

// SubmenuText renders an area sub-menu. It always starts with "{area}:".
func (c *Catalog) SubmenuText(area string) string {
	o, ok := c.optionByArea(area)
	if !ok {
		return ""
	}
	lines := make([]string, 0, len(o.Subs))
	for _, s := range o.Subs {
		lines = append(lines, fmt.Sprintf("%s. %s", s.Code, s.Label))
	}
	return RenderTemplate(submenuTemplate, map[string]string{
		"area":    o.Area,
		"options": strings.Join(lines, "\n"),
	})
}

// DerivationText renders the confirmation sent when a conversation is handed off.
func (c *Catalog) DerivationText(area, subarea string) string {
	return RenderTemplate(derivationTemplate, map[string]string{
		"marker":  DerivationMarker,
		"area":    area,
		"subarea": subarea,
	})
}

// IsMainMenu reports whether a stored body is a rendering of the main menu.
func (c *Catalog) IsMainMenu(body string) bool {
	return strings.Contains(body, MainMenuMarker)
}

// IsDerivation reports whether a stored body is a derivation confirmation.
func (c *Catalog) IsDerivation(body string) bool {
	return strings.Contains(body, DerivationMarker)
}

// SubmenuArea returns the area whose sub-menu a stored body renders.
func (c *Catalog) SubmenuArea(body string) (string, bool) {
	for _, o := range c.options {
		if len(o.Subs) > 0 && strings.HasPrefix(body, o.Area+":") {
			return o.Area, true
		}
	}
	return "", false
}

func (c *Catalog) optionByArea(area string) (Option, bool) {
	for _, o := range c.options {
		if o.Area == area {
			return o, true
		}
	}
	return Option{}, false
}

// MapArea returns the line-of-business area a menu area derives to.
func MapArea(area string) string {
	if mapped, ok := areaMapping[area]; ok {
		return mapped
	}
	return area
}
