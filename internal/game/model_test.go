package game

import (
	"errors"
	"testing"
	"time"

	"github.com/peterkuimelis/rallyx/internal/board"
	"github.com/peterkuimelis/rallyx/internal/geom"
)

func TestRegisterIndexAndLocking(t *testing.T) {
	var r ProgrammingRegister
	for _, i := range []int{-1, RegisterCount} {
		if err := r.Set(i, CardFor(CardMoveI)); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("Set(%d): got %v, want ErrInvalidOperation", i, err)
		}
		if _, err := r.Get(i); !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("Get(%d): got %v", i, err)
		}
	}

	if err := r.Lock(2, CardFor(CardSpam)); err != nil {
		t.Fatal(err)
	}
	err := r.Set(2, CardFor(CardMoveI))
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("Set on a locked slot: got %v, want ErrRejected", err)
	}
	if c, _ := r.Get(2); c.Type != CardSpam {
		t.Errorf("locked slot changed to %s", c.Name)
	}

	for i := 0; i < RegisterCount; i++ {
		if i != 2 {
			_ = r.Set(i, CardFor(CardMoveII))
		}
	}
	if !r.IsFilled() {
		t.Error("register should be filled")
	}
	if got := r.DrainFrom(3); len(got) != 2 {
		t.Errorf("DrainFrom(3) returned %d cards", len(got))
	}
	if got := r.Drain(); len(got) != 3 {
		t.Errorf("Drain returned %d cards", len(got))
	}
	if r.IsLocked(2) {
		t.Error("Drain should drop locks")
	}
}

func TestLookupCard(t *testing.T) {
	for name, want := range map[string]CardType{
		"Move II":      CardMoveII,
		"move-2":       CardMoveII,
		"u_turn":       CardUTurn,
		"trojan":       CardTrojan,
		"Trojan Horse": CardTrojan,
		"doublebarrel": CardDoubleBarrelLaser,
	} {
		c, err := LookupCard(name)
		if err != nil || c.Type != want {
			t.Errorf("LookupCard(%q) = %v, %v", name, c, err)
		}
	}
	if _, err := LookupCard("Move IV"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown card: got %v", err)
	}
	if n := len(AllCards()); n != 27 {
		t.Errorf("expected 27 card types, got %d", n)
	}
	if n := len(CardsOfFamily(FamilyUpgrade)); n != 8 {
		t.Errorf("expected 8 upgrades, got %d", n)
	}
}

func TestParseRules(t *testing.T) {
	r, err := ParseRules([]byte(`
hand_size: 7
reboot_spam: 1
programming_timeout: 30s
upgrade_costs:
  rear laser: 1
starting_deck:
  - name: Move I
    count: 10
  - name: Again
    count: 2
`))
	if err != nil {
		t.Fatalf("ParseRules: %v", err)
	}
	if r.HandSize != 7 || r.RebootSpam != 1 || r.ProgrammingTimeout != 30*time.Second {
		t.Errorf("unexpected rules: %+v", r)
	}
	if r.StartingEnergy != 5 {
		t.Errorf("absent key should keep its default, got starting_energy %d", r.StartingEnergy)
	}
	if r.Cost(CardFor(CardRearLaser)) != 1 || r.Cost(CardFor(CardFirewall)) != 3 {
		t.Error("upgrade cost override not applied")
	}
	deck, _ := r.StartingCards()
	if len(deck) != 12 {
		t.Errorf("starting deck has %d cards, want 12", len(deck))
	}
}

func TestParseRulesRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"small hand":      "hand_size: 3",
		"damage in deck":  "starting_deck: [{name: Spam, count: 20}]",
		"unknown card":    "starting_deck: [{name: Teleport, count: 20}]",
		"short deck":      "starting_deck: [{name: Move I, count: 4}]",
		"bad upgrade":     "upgrade_pool: [{name: Move I, count: 4}]",
		"negative damage": "laser_damage: -1",
		"not yaml":        "hand_size: [",
	} {
		if _, err := ParseRules([]byte(doc)); !errors.Is(err, ErrInvalidRules) {
			t.Errorf("%s: got %v, want ErrInvalidRules", name, err)
		}
	}
}

func TestOrderForRegister(t *testing.T) {
	a := NewPlayer(0, "A", NewCardManager(nil, nil), 0)
	b := NewPlayer(1, "B", NewCardManager(nil, nil), 0)
	c := NewPlayer(2, "C", NewCardManager(nil, nil), 0)
	ranked := []*Player{a, b, c}
	played := map[*Player]*Card{
		a: CardFor(CardTurnLeft),
		b: CardFor(CardMoveIII),
		c: CardFor(CardTurnLeft),
	}

	order := orderForRegister(ranked, played)
	if order[0] != b || order[1] != a || order[2] != c {
		t.Errorf("order %v, want [B A C]", order)
	}

	c.Upgrades.Add(CardFor(CardAdminPrivilege))
	order = orderForRegister(ranked, played)
	if order[0] != c {
		t.Errorf("Admin Privilege holder should act first, got %v", order)
	}
}

func TestAntennaRank(t *testing.T) {
	b := board.New("rank", 5, 5)
	b.Push(geom.Vector{X: 2, Y: 2}, board.NewAntenna(geom.Right))
	mk := func(id int, v geom.Vector) *Player {
		p := NewPlayer(id, "", NewCardManager(nil, nil), 0)
		p.Robot.Place(v)
		return p
	}
	far := mk(0, geom.Vector{X: 0, Y: 0})   // distance 4
	below := mk(1, geom.Vector{X: 2, Y: 3}) // distance 1, bearing 90° clockwise
	right := mk(2, geom.Vector{X: 3, Y: 2}) // distance 1, bearing 0°
	above := mk(3, geom.Vector{X: 2, Y: 1}) // distance 1, bearing 270°

	got := AntennaRank(b, []*Player{far, below, right, above})
	want := []*Player{right, below, above, far}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rank %v, want %v", got, want)
		}
	}
}

func TestShippedRules(t *testing.T) {
	r, err := LoadRules("../../configs/rules.yaml")
	if err != nil {
		t.Fatalf("LoadRules: %v", err)
	}
	if r.ProgrammingTimeout != 2*time.Minute {
		t.Errorf("programming_timeout = %v, want 2m", r.ProgrammingTimeout)
	}
	if got := r.Cost(CardFor(CardMemorySwap)); got != 1 {
		t.Errorf("Memory Swap costs %d, want 1", got)
	}
	deck, _ := r.StartingCards()
	if len(deck) != 20 {
		t.Errorf("starting deck has %d cards, want 20", len(deck))
	}
}
