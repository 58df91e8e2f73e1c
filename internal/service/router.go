// internal/service/router.go
package service

import (
	"strings"

	"github.com/unclebandit/wa-router/internal/menu"
)

// Control commands accepted from any state.
const (
	CommandMenu   = "MENU"
	CommandVolver = "VOLVER"
)

type MenuKind int

const (
	MenuMain MenuKind = iota
	MenuSubmenu
	MenuDerived
)

// State is the caller's position in the menu tree.
type State struct {
	Kind MenuKind
	Area string // set for MenuSubmenu
}

func MainState() State { return State{Kind: MenuMain} }

func SubmenuState(area string) State { return State{Kind: MenuSubmenu, Area: area} }

func (s State) String() string {
	switch s.Kind {
	case MenuSubmenu:
		return s.Area
	case MenuDerived:
		return "derived"
	default:
		return "main"
	}
}

// Derivation is the hand-off produced by a terminal menu choice.
type Derivation struct {
	Area    string // line-of-business area, already mapped
	Subarea string
}

// Decision is the outcome of one routing step.
type Decision struct {
	Reply      string
	Next       State
	Derivation *Derivation
}

// Router walks the menu state machine. It does no I/O.
type Router struct {
	Catalog *menu.Catalog
}

func NewRouter(catalog *menu.Catalog) *Router {
	return &Router{Catalog: catalog}
}

// Normalize trims and upper-cases inbound text before matching.
func Normalize(text string) string {
	return strings.ToUpper(strings.TrimSpace(text))
}

// Decide computes the reply and next state for an inbound text.
func (r *Router) Decide(state State, text string) Decision {
	input := Normalize(text)

	if input == CommandMenu || input == CommandVolver {
		return r.mainMenu()
	}

	if state.Kind == MenuSubmenu && r.Catalog.HasSubmenu(state.Area) {
		if sub, ok := r.Catalog.SubOption(state.Area, input); ok {
			return r.derive(sub.Area, sub.Subarea)
		}
		// invalid input keeps the caller where they are
		return Decision{Reply: r.Catalog.SubmenuText(state.Area), Next: state}
	}

	opt, ok := r.Catalog.MainOption(input)
	if !ok {
		return r.mainMenu()
	}
	if r.Catalog.HasSubmenu(opt.Area) {
		return Decision{Reply: r.Catalog.SubmenuText(opt.Area), Next: SubmenuState(opt.Area)}
	}
	return r.derive(opt.Area, opt.Label)
}

func (r *Router) mainMenu() Decision {
	return Decision{Reply: r.Catalog.MainMenuText(), Next: MainState()}
}

func (r *Router) derive(area, subarea string) Decision {
	mapped := menu.MapArea(area)
	return Decision{
		Reply:      r.Catalog.DerivationText(mapped, subarea),
		Next:       State{Kind: MenuDerived, Area: mapped},
		Derivation: &Derivation{Area: mapped, Subarea: subarea},
	}
}
